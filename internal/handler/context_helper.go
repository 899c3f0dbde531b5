package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/careers-admin-api/internal/middleware"
	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/service"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

// ClientIDHeader identifies an anonymous applicant's browser across requests.
const ClientIDHeader = "X-Client-ID"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
	}
	return actor
}

// requireActor rejects requests that carry no authenticated user.
func requireActor(c *gin.Context) (service.Actor, bool) {
	actor := actorFromContext(c)
	if actor.UserID == "" {
		return actor, false
	}
	return actor, true
}

func wizardKey(c *gin.Context) (wizard.Key, error) {
	key := wizard.Key{
		ClientID: strings.TrimSpace(c.GetHeader(ClientIDHeader)),
		JobID:    strings.TrimSpace(c.Param("jobId")),
	}
	if key.ClientID == "" {
		return key, appErrors.Validation(ClientIDHeader+" header is required", ClientIDHeader)
	}
	// Key.String joins the parts with ':' so the client id must not contain one.
	if strings.Contains(key.ClientID, ":") {
		return key, appErrors.Validation(ClientIDHeader+" header must not contain ':'", ClientIDHeader)
	}
	// Unparseable job ids pass through and are rejected as unknown jobs downstream.
	if id, err := uuid.Parse(key.JobID); err == nil {
		key.JobID = id.String()
	}
	return key, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
