package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/careers-admin-api/internal/middleware"
	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/service"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/response"
)

type jobService interface {
	ListPublic(ctx context.Context, department string) ([]models.JobPosting, bool, error)
	ListAll(ctx context.Context) ([]models.JobPosting, error)
	Get(ctx context.Context, id string, publicOnly bool) (*models.JobPosting, error)
	Create(ctx context.Context, actor service.Actor, req models.JobRequest) (*models.JobPosting, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.JobRequest) (*models.JobPosting, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// JobHandler serves the public job board and the back-office posting editor.
type JobHandler struct {
	service jobService
}

// NewJobHandler constructs a JobHandler.
func NewJobHandler(svc jobService) *JobHandler {
	return &JobHandler{service: svc}
}

// ListPublic godoc
// @Summary List open jobs
// @Tags Jobs
// @Produce json
// @Param department query string false "Department"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) ListPublic(c *gin.Context) {
	jobs, hit, err := h.service.ListPublic(c.Request.Context(), c.Query("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, jobs, nil, middleware.ExtractMeta(c))
}

// GetPublic godoc
// @Summary Get an open job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) GetPublic(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// ListAll godoc
// @Summary List every job posting
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/jobs [get]
func (h *JobHandler) ListAll(c *gin.Context) {
	jobs, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Create godoc
// @Summary Create job posting
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.JobRequest true "Job payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Update godoc
// @Summary Replace job posting
// @Tags Jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param payload body models.JobRequest true "Job payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/jobs/{id} [put]
func (h *JobHandler) Update(c *gin.Context) {
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Delete godoc
// @Summary Delete job posting
// @Tags Jobs
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
