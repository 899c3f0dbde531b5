package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/jobs"
	"github.com/noah-isme/careers-admin-api/pkg/logger"
)

// DraftSaveJobType tags queue jobs that write a wizard draft.
const DraftSaveJobType = "wizard_draft_save"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type applicationInserter interface {
	Insert(ctx context.Context, record *models.ApplicationRecord) error
}

type jobLookup interface {
	GetByID(ctx context.Context, id string) (*models.JobPosting, error)
}

type resumeFiles interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// WizardConfig configures the public application wizard.
type WizardConfig struct {
	Steps    []wizard.Step
	Debounce time.Duration
	Policy   wizard.AttachmentPolicy
	IdleTTL  time.Duration
	// InlineResumes keeps resumes base64 encoded in the applications table instead of the file store.
	InlineResumes bool
}

// SubmissionPayload is the validated shape of a completed wizard form.
type SubmissionPayload struct {
	FullName     string `validate:"required,max=200"`
	Email        string `validate:"required,email,max=254"`
	Phone        string `validate:"required,max=40"`
	Years        string `validate:"required,numeric"`
	LinkedInURL  string `validate:"omitempty,url,max=500"`
	PortfolioURL string `validate:"omitempty,url,max=500"`
	CoverLetter  string `validate:"required,max=10000"`
}

var submissionFieldNames = map[string]string{
	"FullName":     wizard.FieldFullName,
	"Email":        wizard.FieldEmail,
	"Phone":        wizard.FieldPhone,
	"Years":        wizard.FieldYears,
	"LinkedInURL":  wizard.FieldLinkedIn,
	"PortfolioURL": wizard.FieldPortfolio,
	"CoverLetter":  wizard.FieldCoverLetter,
}

// WizardService hosts live wizard sessions keyed by client and posting.
type WizardService struct {
	store     wizard.DraftStore
	apps      applicationInserter
	jobs      jobLookup
	files     resumeFiles
	queue     jobDispatcher
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       WizardConfig
	debouncer *wizard.Debouncer
	now       func() time.Time

	mu       sync.Mutex
	sessions map[wizard.Key]*wizard.Session
}

// NewWizardService builds a WizardService. queue and files may be nil: drafts are then
// written from the debounce timer and resumes are kept inline.
func NewWizardService(store wizard.DraftStore, apps applicationInserter, postings jobLookup, files resumeFiles, queue jobDispatcher, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg WizardConfig) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if len(cfg.Steps) == 0 {
		cfg.Steps = wizard.DefaultSteps()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	if files == nil {
		cfg.InlineResumes = true
	}
	return &WizardService{
		store:     store,
		apps:      apps,
		jobs:      postings,
		files:     files,
		queue:     queue,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		debouncer: wizard.NewDebouncer(cfg.Debounce),
		now:       time.Now,
		sessions:  make(map[wizard.Key]*wizard.Session),
	}
}

// Start opens (or resumes) the session for key after checking the posting accepts applications.
func (s *WizardService) Start(ctx context.Context, key wizard.Key) (wizard.State, error) {
	if err := s.checkJob(ctx, key.JobID); err != nil {
		return wizard.State{}, err
	}
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	return sess.Snapshot(), nil
}

// State returns the current session state, restoring it from the draft store if needed.
func (s *WizardService) State(ctx context.Context, key wizard.Key) (wizard.State, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	return sess.Snapshot(), nil
}

// SetFields stores field values and schedules a draft save.
func (s *WizardService) SetFields(ctx context.Context, key wizard.Key, values map[string]string) (wizard.State, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	if err := sess.SetFields(values); err != nil {
		return wizard.State{}, err
	}
	return sess.Snapshot(), nil
}

// Next advances to the next step when the current one validates.
func (s *WizardService) Next(ctx context.Context, key wizard.Key) (wizard.State, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	if _, err := sess.Next(); err != nil {
		return sess.Snapshot(), err
	}
	return sess.Snapshot(), nil
}

// Prev goes back one step.
func (s *WizardService) Prev(ctx context.Context, key wizard.Key) (wizard.State, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	if _, err := sess.Prev(); err != nil {
		return wizard.State{}, err
	}
	return sess.Snapshot(), nil
}

// AttachResume validates and attaches the resume file.
func (s *WizardService) AttachResume(ctx context.Context, key wizard.Key, file wizard.File) (wizard.State, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	if _, err := sess.AttachResume(file); err != nil {
		return sess.Snapshot(), err
	}
	return sess.Snapshot(), nil
}

// StartOver discards the draft and resets the session.
func (s *WizardService) StartOver(ctx context.Context, key wizard.Key) (wizard.State, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return wizard.State{}, err
	}
	if err := sess.StartOver(ctx); err != nil {
		return wizard.State{}, err
	}
	return sess.Snapshot(), nil
}

// Submit validates the whole form and stores it as a new application.
func (s *WizardService) Submit(ctx context.Context, key wizard.Key, actor Actor) (*models.ApplicationRecord, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.checkJob(ctx, key.JobID); err != nil {
		return nil, err
	}

	var stored *models.ApplicationRecord
	err = sess.Submit(ctx, func(ctx context.Context, sub wizard.Submission) error {
		record, err := s.persist(ctx, sub)
		if err != nil {
			return err
		}
		stored = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.drop(key)
	s.metrics.RecordSubmission()
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionApplicationSubmit, "application", stringPtr(stored.ID), nil,
		map[string]string{"jobId": key.JobID, "email": stored.Email})
	logger.WithRequest(ctx, s.logger).Info("application submitted", zap.String("application_id", stored.ID), zap.String("job_id", key.JobID))
	return stored, nil
}

func (s *WizardService) persist(ctx context.Context, sub wizard.Submission) (*models.ApplicationRecord, error) {
	payload := SubmissionPayload{
		FullName:     strings.TrimSpace(sub.Fields[wizard.FieldFullName]),
		Email:        strings.ToLower(strings.TrimSpace(sub.Fields[wizard.FieldEmail])),
		Phone:        strings.TrimSpace(sub.Fields[wizard.FieldPhone]),
		Years:        strings.TrimSpace(sub.Fields[wizard.FieldYears]),
		LinkedInURL:  strings.TrimSpace(sub.Fields[wizard.FieldLinkedIn]),
		PortfolioURL: strings.TrimSpace(sub.Fields[wizard.FieldPortfolio]),
		CoverLetter:  strings.TrimSpace(sub.Fields[wizard.FieldCoverLetter]),
	}
	if err := s.validatePayload(payload); err != nil {
		return nil, err
	}
	years, err := strconv.Atoi(payload.Years)
	if err != nil || years < 0 || years > 70 {
		return nil, appErrors.Validation("years of experience must be between 0 and 70", wizard.FieldYears)
	}

	jobID := sub.Key.JobID
	record := &models.ApplicationRecord{
		ID:                uuid.NewString(),
		JobID:             &jobID,
		FullName:          payload.FullName,
		Email:             payload.Email,
		Phone:             payload.Phone,
		YearsOfExperience: years,
		Status:            models.ApplicationStatusSubmitted,
		CoverLetter:       payload.CoverLetter,
		LinkedInURL:       payload.LinkedInURL,
		PortfolioURL:      payload.PortfolioURL,
		AppliedAt:         s.now().UTC(),
	}

	if sub.Resume != nil {
		record.ResumeFileName = sub.Resume.FileName
		record.ResumeMimeType = sub.Resume.MimeType
		record.ResumeSizeBytes = sub.Resume.SizeBytes
		if s.cfg.InlineResumes {
			record.ResumeData = sub.Resume.Data
		} else {
			raw, err := sub.Resume.Decode()
			if err != nil {
				return nil, appErrors.UnsupportedFile("resume could not be decoded")
			}
			name := filepath.ToSlash(filepath.Join(jobID, record.ID+resumeExtension(sub.Resume.MimeType)))
			path, err := s.files.Save(name, raw)
			if err != nil {
				return nil, appErrors.Storage(err, "failed to store resume")
			}
			record.ResumePath = path
		}
	}

	if err := s.apps.Insert(ctx, record); err != nil {
		if record.ResumePath != "" {
			if delErr := s.files.Delete(record.ResumePath); delErr != nil {
				s.logger.Warn("failed to remove orphaned resume", zap.String("path", record.ResumePath), zap.Error(delErr))
			}
		}
		return nil, appErrors.Storage(err, "failed to submit application")
	}
	return record, nil
}

func (s *WizardService) validatePayload(payload SubmissionPayload) error {
	err := s.validator.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if name, ok := submissionFieldNames[fe.StructField()]; ok {
			fields = append(fields, name)
		}
	}
	return appErrors.Validation(fmt.Sprintf("invalid application: %s", strings.Join(fields, ", ")), fields...)
}

// HandleDraftSave is the queue handler for debounced draft writes. It always writes the
// session's latest state, so a retried job never restores an older draft.
func (s *WizardService) HandleDraftSave(ctx context.Context, job jobs.Job) error {
	key, ok := job.Payload.(wizard.Key)
	if !ok {
		return fmt.Errorf("draft save job %s: unexpected payload %T", job.ID, job.Payload)
	}
	s.mu.Lock()
	sess := s.sessions[key]
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	return s.flush(ctx, sess)
}

func (s *WizardService) flush(ctx context.Context, sess *wizard.Session) error {
	err := sess.Flush(ctx)
	s.metrics.RecordDraftSave(err == nil)
	if err != nil {
		s.logger.Warn("draft save failed", zap.String("draft", sess.Key().String()), zap.Error(err))
	}
	return err
}

func (s *WizardService) onSaveDue(sess *wizard.Session) {
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: sess.Key().String(), Type: DraftSaveJobType, Payload: sess.Key()})
		if err == nil {
			return
		}
		s.logger.Warn("draft save not queued, writing inline", zap.String("draft", sess.Key().String()), zap.Error(err))
	}
	_ = s.flush(context.Background(), sess)
}

// FlushAll writes every dirty session. Used on shutdown.
func (s *WizardService) FlushAll(ctx context.Context) {
	for _, sess := range s.live() {
		_ = s.flush(ctx, sess)
	}
}

// Sweep evicts sessions idle for longer than idle and drops their pending save.
// It returns the number of evicted sessions.
func (s *WizardService) Sweep(idle time.Duration) int {
	if idle <= 0 {
		idle = s.cfg.IdleTTL
	}
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	evicted := 0
	for key, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			sess.Close()
			delete(s.sessions, key)
			evicted++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetWizardSessions(n)
	if evicted > 0 {
		s.logger.Debug("evicted idle wizard sessions", zap.Int("count", evicted))
	}
	return evicted
}

// Active returns the number of live sessions.
func (s *WizardService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Stop drops every pending debounced save.
func (s *WizardService) Stop() {
	s.debouncer.Stop()
}

func (s *WizardService) session(ctx context.Context, key wizard.Key) (*wizard.Session, error) {
	if strings.TrimSpace(key.ClientID) == "" {
		return nil, appErrors.Validation("client id is required", "clientId")
	}
	if _, err := uuid.Parse(key.JobID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}

	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok && !sess.Closed() {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	sess, err := wizard.NewSession(ctx, key, s.cfg.Steps, s.store, wizard.Options{
		Debouncer: s.debouncer,
		OnSaveDue: s.onSaveDue,
		Policy:    s.cfg.Policy,
		Logger:    s.logger,
		Now:       s.now,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.sessions[key]; ok && !existing.Closed() {
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[key] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetWizardSessions(n)
	return sess, nil
}

func (s *WizardService) drop(key wizard.Key) {
	s.mu.Lock()
	delete(s.sessions, key)
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetWizardSessions(n)
}

func (s *WizardService) live() []*wizard.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*wizard.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *WizardService) checkJob(ctx context.Context, jobID string) error {
	if _, err := uuid.Parse(jobID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	if s.jobs == nil {
		return nil
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return storeError(err, "job not found", "failed to load job")
	}
	if !job.Active {
		return appErrors.Clone(appErrors.ErrConflict, "this position is no longer accepting applications")
	}
	return nil
}

func resumeExtension(mime string) string {
	switch mime {
	case wizard.MIMEPDF:
		return ".pdf"
	case wizard.MIMEDOC:
		return ".doc"
	case wizard.MIMEDOCX:
		return ".docx"
	default:
		return ""
	}
}
