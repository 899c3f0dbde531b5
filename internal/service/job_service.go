package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/models"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

const jobCachePrefix = "jobs:"

type jobStore interface {
	List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error)
	GetByID(ctx context.Context, id string) (*models.JobPosting, error)
	Create(ctx context.Context, job *models.JobPosting) error
	Update(ctx context.Context, job *models.JobPosting) error
	Delete(ctx context.Context, id string) error
}

// JobService manages postings. The public listing is read through the cache.
type JobService struct {
	repo      jobStore
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewJobService builds a JobService. cache may be nil.
func NewJobService(repo jobStore, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JobService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// ListPublic returns active postings, optionally for one department, and whether they came from cache.
func (s *JobService) ListPublic(ctx context.Context, department string) ([]models.JobPosting, bool, error) {
	department = strings.ToLower(strings.TrimSpace(department))
	key := jobCachePrefix + "public:" + department

	var jobs []models.JobPosting
	hit, err := s.cache.Remember(ctx, key, &jobs, s.cacheTTL, func(ctx context.Context) error {
		list, err := s.repo.List(ctx, models.JobFilter{ActiveOnly: true, Department: department})
		if err != nil {
			return appErrors.Storage(err, "failed to list jobs")
		}
		if list == nil {
			list = []models.JobPosting{}
		}
		jobs = list
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return jobs, hit, nil
}

// ListAll returns every posting for the back office, bypassing the cache.
func (s *JobService) ListAll(ctx context.Context) ([]models.JobPosting, error) {
	jobs, err := s.repo.List(ctx, models.JobFilter{})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list jobs")
	}
	if jobs == nil {
		jobs = []models.JobPosting{}
	}
	return jobs, nil
}

// Get returns one posting. When publicOnly is set an inactive posting is reported as missing.
func (s *JobService) Get(ctx context.Context, id string, publicOnly bool) (*models.JobPosting, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "job not found", "failed to load job")
	}
	if publicOnly && !job.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return job, nil
}

// Create validates and stores a new posting.
func (s *JobService) Create(ctx context.Context, actor Actor, req models.JobRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	job := &models.JobPosting{Active: true}
	applyJobRequest(job, req)
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Storage(err, "failed to create job")
	}
	s.invalidate(ctx)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionJobCreate, "job", stringPtr(job.ID), nil, job)
	return job, nil
}

// Update replaces the mutable fields of a posting.
func (s *JobService) Update(ctx context.Context, actor Actor, id string, req models.JobRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "job not found", "failed to load job")
	}
	before := *existing
	applyJobRequest(existing, req)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, storeError(err, "job not found", "failed to update job")
	}
	s.invalidate(ctx)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionJobUpdate, "job", stringPtr(id), before, existing)
	return existing, nil
}

// Delete removes a posting. Its applications stay and lose their job title.
func (s *JobService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "job not found", "failed to delete job")
	}
	s.invalidate(ctx)
	emitAudit(ctx, s.audit, s.logger, actor, models.AuditActionJobDelete, "job", stringPtr(id), nil, nil)
	return nil
}

func (s *JobService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, jobCachePrefix+"*")
}

func applyJobRequest(job *models.JobPosting, req models.JobRequest) {
	job.Title = strings.TrimSpace(req.Title)
	job.Department = strings.TrimSpace(req.Department)
	job.Location = strings.TrimSpace(req.Location)
	job.EmploymentType = req.EmploymentType
	job.Description = req.Description
	if req.Active != nil {
		job.Active = *req.Active
	}
}
