package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/review"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/export"
	"github.com/noah-isme/careers-admin-api/pkg/logger"
)

// Selection scopes for select-all.
const (
	ScopePage     = "page"
	ScopeFiltered = "filtered"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Bulk action names used for metrics and audit.
const (
	BulkActionStatus = "set_status"
	BulkActionDelete = "delete"
)

type applicationStore interface {
	List(ctx context.Context) ([]models.ApplicationRecord, error)
	GetByID(ctx context.Context, id string) (*models.ApplicationRecord, error)
	Update(ctx context.Context, id string, patch models.ApplicationPatch) error
	UpdateMany(ctx context.Context, ids []string, patch models.ApplicationPatch) ([]string, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
}

type auditStore interface {
	auditRecorder
	ListRecent(ctx context.Context, resourceID string, limit int) ([]models.AuditLog, error)
}

type fileRemover interface {
	Delete(filename string) error
}

// ReviewConfig configures the reviewer capabilities and paging bounds.
type ReviewConfig struct {
	Capabilities review.Capabilities
	Paging       review.PagingBounds
}

// BulkResult reports a completed bulk action.
type BulkResult struct {
	Action    string          `json:"action"`
	Requested []string        `json:"requested"`
	Affected  []string        `json:"affected"`
	Skipped   []string        `json:"skipped"`
	Snapshot  review.Snapshot `json:"snapshot"`
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
}

// ReviewService hosts one review board per reviewer and dispatches single and bulk actions.
type ReviewService struct {
	repo    applicationStore
	audit   auditStore
	files   fileRemover
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ReviewConfig
	now     func() time.Time

	mu     sync.Mutex
	boards map[string]*review.Board
}

// NewReviewService builds a ReviewService. files may be nil when resumes are stored inline.
func NewReviewService(repo applicationStore, audit auditStore, files fileRemover, metrics *MetricsService, logger *zap.Logger, cfg ReviewConfig) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		repo:    repo,
		audit:   audit,
		files:   files,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		boards:  make(map[string]*review.Board),
	}
}

// Capabilities returns the enabled reviewer features.
func (s *ReviewService) Capabilities() review.Capabilities {
	return s.cfg.Capabilities
}

func (s *ReviewService) board(actor Actor) *review.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[actor.UserID]
	if !ok {
		state, _ := review.DefaultViewState().Normalize(s.cfg.Capabilities, s.cfg.Paging)
		b = review.NewBoard(s.cfg.Capabilities, state)
		s.boards[actor.UserID] = b
	}
	return b
}

// refresh reloads the collection. A response overtaken by a newer fetch is dropped.
func (s *ReviewService) refresh(ctx context.Context, b *review.Board) error {
	seq := b.BeginFetch()
	start := time.Now()
	records, err := s.repo.List(ctx)
	s.metrics.ObserveDBQuery("applications_list", time.Since(start))
	if err != nil {
		return appErrors.Storage(err, "failed to load applications")
	}
	if !b.ApplyFetch(seq, records) {
		s.metrics.RecordStaleFetch()
		s.logger.Debug("discarded stale application fetch", zap.Uint64("seq", seq))
	}
	return nil
}

func (s *ReviewService) ensureLoaded(ctx context.Context, b *review.Board) error {
	if b.Loaded() {
		return nil
	}
	return s.refresh(ctx, b)
}

// View refetches the collection and applies state to the reviewer's board.
func (s *ReviewService) View(ctx context.Context, actor Actor, state review.ViewState) (review.Snapshot, error) {
	normalized, err := state.Normalize(s.cfg.Capabilities, s.cfg.Paging)
	if err != nil {
		return review.Snapshot{}, err
	}
	b := s.board(actor)
	if err := s.refresh(ctx, b); err != nil {
		return review.Snapshot{}, err
	}
	return b.SetState(normalized), nil
}

// Current returns the reviewer's board as last computed, loading it once if needed.
func (s *ReviewService) Current(ctx context.Context, actor Actor) (review.Snapshot, error) {
	b := s.board(actor)
	if err := s.ensureLoaded(ctx, b); err != nil {
		return review.Snapshot{}, err
	}
	return b.Snapshot(), nil
}

// ToggleSelection flips one id. Ids outside the filtered set are ignored.
func (s *ReviewService) ToggleSelection(ctx context.Context, actor Actor, id string) (review.Snapshot, error) {
	b := s.board(actor)
	if err := s.ensureLoaded(ctx, b); err != nil {
		return review.Snapshot{}, err
	}
	b.ToggleOne(id)
	return b.Snapshot(), nil
}

// ToggleAll applies select-all to the current page or, with ScopeFiltered, every filtered record.
func (s *ReviewService) ToggleAll(ctx context.Context, actor Actor, scope string) (review.Snapshot, error) {
	b := s.board(actor)
	if err := s.ensureLoaded(ctx, b); err != nil {
		return review.Snapshot{}, err
	}
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", ScopePage:
		b.TogglePage()
	case ScopeFiltered:
		b.ToggleFiltered()
	default:
		return review.Snapshot{}, appErrors.Validation("scope must be page or filtered", "scope")
	}
	return b.Snapshot(), nil
}

// ClearSelection empties the reviewer's selection.
func (s *ReviewService) ClearSelection(actor Actor) review.Snapshot {
	b := s.board(actor)
	b.ClearSelection()
	return b.Snapshot()
}

// BulkSetStatus moves every selected application to status in one statement.
func (s *ReviewService) BulkSetStatus(ctx context.Context, actor Actor, status models.ApplicationStatus) (*BulkResult, error) {
	status = models.ApplicationStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, appErrors.Validation("unknown status", "status")
	}
	now := s.now().UTC()
	patch := models.ApplicationPatch{Status: &status}
	return s.runBulk(ctx, actor, BulkActionStatus, func(ids []string) ([]string, error) {
		return s.repo.UpdateMany(ctx, ids, patch)
	}, func(affected []string) {
		emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionBulkStatus, "application", nil, nil,
			map[string]interface{}{"ids": affected, "status": status, "at": now})
	})
}

// BulkDelete removes every selected application in one statement.
func (s *ReviewService) BulkDelete(ctx context.Context, actor Actor) (*BulkResult, error) {
	b := s.board(actor)
	return s.runBulk(ctx, actor, BulkActionDelete, func(ids []string) ([]string, error) {
		return s.repo.DeleteMany(ctx, ids)
	}, func(affected []string) {
		for _, id := range affected {
			if r, ok := b.Record(id); ok {
				s.removeResumeFile(r)
			}
		}
		emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionBulkDelete, "application", nil, nil,
			map[string]interface{}{"ids": affected})
	})
}

// runBulk applies fn to the selection. Ids missing server-side are skipped; any error fails the batch
// without touching the board. On success the selection is cleared and the board refetched.
func (s *ReviewService) runBulk(ctx context.Context, actor Actor, action string, fn func(ids []string) ([]string, error), onSuccess func(affected []string)) (*BulkResult, error) {
	if !s.cfg.Capabilities.BulkActions {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "bulk actions are disabled")
	}
	b := s.board(actor)
	requested := b.Selected()
	if len(requested) == 0 {
		return nil, appErrors.Validation("no applications selected", "selection")
	}

	valid := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}

	affected := []string{}
	if len(valid) > 0 {
		var err error
		affected, err = fn(valid)
		if err != nil {
			s.metrics.RecordBulkAction(action, len(requested), false)
			logger.WithRequest(ctx, s.logger).Warn("bulk action failed", zap.String("action", action), zap.Int("size", len(requested)), zap.Error(err))
			return nil, appErrors.OperationFailed(err, action, requested)
		}
	}
	s.metrics.RecordBulkAction(action, len(requested), true)
	onSuccess(affected)

	b.ClearSelection()
	if err := s.refresh(ctx, b); err != nil {
		s.logger.Warn("refetch after bulk action failed", zap.String("action", action), zap.Error(err))
	}

	return &BulkResult{
		Action:    action,
		Requested: requested,
		Affected:  affected,
		Skipped:   difference(requested, affected),
		Snapshot:  b.Snapshot(),
	}, nil
}

// Get returns one application including its inline resume payload.
func (s *ReviewService) Get(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "application not found", "failed to load application")
	}
	return record, nil
}

// UpdateStatus sets the status of one application.
func (s *ReviewService) UpdateStatus(ctx context.Context, actor Actor, id string, status models.ApplicationStatus) (*models.ApplicationRecord, error) {
	status = models.ApplicationStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, appErrors.Validation("unknown status", "status")
	}
	return s.updateOne(ctx, actor, id, models.AuditActionApplicationStatus, models.ApplicationPatch{Status: &status})
}

// UpdateRating sets the 0-5 rating of one application.
func (s *ReviewService) UpdateRating(ctx context.Context, actor Actor, id string, rating int) (*models.ApplicationRecord, error) {
	if !s.cfg.Capabilities.Rating {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "rating is disabled")
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, appErrors.Validation(fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating), "rating")
	}
	return s.updateOne(ctx, actor, id, models.AuditActionApplicationRating, models.ApplicationPatch{Rating: &rating})
}

// UpdateNotes replaces the reviewer notes of one application.
func (s *ReviewService) UpdateNotes(ctx context.Context, actor Actor, id string, notes string) (*models.ApplicationRecord, error) {
	if len(notes) > 10000 {
		return nil, appErrors.Validation("notes are too long", "adminNotes")
	}
	return s.updateOne(ctx, actor, id, models.AuditActionApplicationNotes, models.ApplicationPatch{AdminNotes: &notes})
}

func (s *ReviewService) updateOne(ctx context.Context, actor Actor, id, action string, patch models.ApplicationPatch) (*models.ApplicationRecord, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, storeError(err, "application not found", "failed to update application")
	}
	after := *before
	if patch.Status != nil {
		after.Status = *patch.Status
	}
	if patch.Rating != nil {
		rating := *patch.Rating
		after.Rating = &rating
	}
	if patch.AdminNotes != nil {
		after.AdminNotes = *patch.AdminNotes
	}
	after.UpdatedAt = s.now().UTC()

	emitAudit(ctx, s.audit, s.logger, actor, action, "application", stringPtr(id), auditFields(*before), auditFields(after))
	return &after, nil
}

// Delete removes one application and its stored resume file.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "application not found", "failed to delete application")
	}
	s.removeResumeFile(*record)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionApplicationDelete, "application", stringPtr(id), auditFields(*record), nil)
	return nil
}

// History returns the audit trail of one application, newest first.
func (s *ReviewService) History(ctx context.Context, id string, limit int) ([]models.AuditLog, error) {
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	logs, err := s.audit.ListRecent(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load audit history")
	}
	return logs, nil
}

// Export renders the reviewer's view after applying state. ScopeFiltered exports every
// filtered record, ScopePage only the visible page.
func (s *ReviewService) Export(ctx context.Context, actor Actor, state review.ViewState, format, scope string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Validation("format must be csv or pdf", "format")
	}

	snap, err := s.View(ctx, actor, state)
	if err != nil {
		return nil, err
	}
	var records []models.ApplicationRecord
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", ScopeFiltered:
		records = snap.View.Filtered
	case ScopePage:
		records = snap.View.Visible
	default:
		return nil, appErrors.Validation("scope must be page or filtered", "scope")
	}

	stamp := s.now().UTC().Format("20060102-150405")
	file := &ExportFile{Rows: len(records)}
	switch format {
	case FormatPDF:
		data, err := export.NewPDFExporter().Render(review.ExportDataset(records), "Applications")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		file.Data = data
		file.ContentType = "application/pdf"
		file.FileName = "applications-" + stamp + ".pdf"
	default:
		out, err := review.ToCSV(records)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		file.Data = []byte(out)
		file.ContentType = export.NewCSVExporter().ContentType()
		file.FileName = "applications-" + stamp + ".csv"
	}
	return file, nil
}

func (s *ReviewService) removeResumeFile(record models.ApplicationRecord) {
	if s.files == nil || record.ResumePath == "" {
		return
	}
	if err := s.files.Delete(record.ResumePath); err != nil {
		s.logger.Warn("failed to remove resume file", zap.String("application_id", record.ID), zap.Error(err))
	}
}

func auditFields(r models.ApplicationRecord) map[string]interface{} {
	return map[string]interface{}{
		"status":     r.Status,
		"rating":     r.RatingValue(),
		"adminNotes": r.AdminNotes,
	}
}

func difference(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := []string{}
	for _, id := range all {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
