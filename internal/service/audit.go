package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/pkg/middleware/requestid"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Actor identifies the back-office user behind a request.
type Actor struct {
	UserID    string
	IP        string
	UserAgent string
}

func emitAudit(ctx context.Context, repo auditRecorder, logger *zap.Logger, actor Actor, action, resource string, resourceID *string, oldValues, newValues interface{}) {
	if repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		id := actor.UserID
		entry.UserID = &id
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := repo.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log",
			zap.String("action", action),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
	}
}

func stringPtr(v string) *string {
	return &v
}
