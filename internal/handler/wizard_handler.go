package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/service"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/response"
)

const resumeFormField = "resume"

type wizardService interface {
	Start(ctx context.Context, key wizard.Key) (wizard.State, error)
	State(ctx context.Context, key wizard.Key) (wizard.State, error)
	SetFields(ctx context.Context, key wizard.Key, values map[string]string) (wizard.State, error)
	Next(ctx context.Context, key wizard.Key) (wizard.State, error)
	Prev(ctx context.Context, key wizard.Key) (wizard.State, error)
	AttachResume(ctx context.Context, key wizard.Key, file wizard.File) (wizard.State, error)
	StartOver(ctx context.Context, key wizard.Key) (wizard.State, error)
	Submit(ctx context.Context, key wizard.Key, actor service.Actor) (*models.ApplicationRecord, error)
}

// WizardHandler drives the public multi-step application form. Sessions are keyed by
// the X-Client-ID header and the job id in the path.
type WizardHandler struct {
	service        wizardService
	maxResumeBytes int64
}

// NewWizardHandler constructs a WizardHandler. Uploads larger than maxResumeBytes are truncated
// one byte past the limit so the attachment policy rejects them.
func NewWizardHandler(svc wizardService, maxResumeBytes int64) *WizardHandler {
	if maxResumeBytes <= 0 {
		maxResumeBytes = wizard.DefaultMaxResumeBytes
	}
	return &WizardHandler{service: svc, maxResumeBytes: maxResumeBytes}
}

// Start godoc
// @Summary Open the application form
// @Description Opens or resumes the applicant's form for a job, restoring any saved draft.
// @Tags Wizard
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /wizard/{jobId} [post]
func (h *WizardHandler) Start(c *gin.Context) {
	h.run(c, h.service.Start)
}

// State godoc
// @Summary Current form state
// @Tags Wizard
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/{jobId} [get]
func (h *WizardHandler) State(c *gin.Context) {
	h.run(c, h.service.State)
}

// SetFields godoc
// @Summary Update form fields
// @Description Merges the given values into the form and schedules a debounced draft save.
// @Tags Wizard
// @Accept json
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Param payload body map[string]string true "Field values"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/{jobId}/fields [patch]
func (h *WizardHandler) SetFields(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "fields must be an object of strings"))
		return
	}
	h.run(c, func(ctx context.Context, key wizard.Key) (wizard.State, error) {
		return h.service.SetFields(ctx, key, values)
	})
}

// Next godoc
// @Summary Advance to the next step
// @Description Validates the current step first; field errors come back as a validation error.
// @Tags Wizard
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wizard/{jobId}/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	h.run(c, h.service.Next)
}

// Prev godoc
// @Summary Go back one step
// @Tags Wizard
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/{jobId}/prev [post]
func (h *WizardHandler) Prev(c *gin.Context) {
	h.run(c, h.service.Prev)
}

// AttachResume godoc
// @Summary Attach a resume
// @Tags Wizard
// @Accept multipart/form-data
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Param resume formData file true "PDF, DOC or DOCX"
// @Success 200 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /wizard/{jobId}/resume [put]
func (h *WizardHandler) AttachResume(c *gin.Context) {
	header, err := c.FormFile(resumeFormField)
	if err != nil {
		response.Error(c, appErrors.Validation("resume file is required", resumeFormField))
		return
	}
	src, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload"))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.maxResumeBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload"))
		return
	}
	file := wizard.File{Name: header.Filename, DeclaredType: header.Header.Get("Content-Type"), Data: data}
	h.run(c, func(ctx context.Context, key wizard.Key) (wizard.State, error) {
		return h.service.AttachResume(ctx, key, file)
	})
}

// StartOver godoc
// @Summary Discard the draft
// @Description Clears every field, the resume and the stored draft.
// @Tags Wizard
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/{jobId} [delete]
func (h *WizardHandler) StartOver(c *gin.Context) {
	h.run(c, h.service.StartOver)
}

// Submit godoc
// @Summary Submit the application
// @Tags Wizard
// @Produce json
// @Param X-Client-ID header string true "Client id"
// @Param jobId path string true "Job ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /wizard/{jobId}/submit [post]
func (h *WizardHandler) Submit(c *gin.Context) {
	key, err := wizardKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.Submit(c.Request.Context(), key, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

func (h *WizardHandler) run(c *gin.Context, fn func(ctx context.Context, key wizard.Key) (wizard.State, error)) {
	key, err := wizardKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	state, err := fn(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
