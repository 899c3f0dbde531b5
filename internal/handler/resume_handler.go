package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/service"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/response"
)

type resumeService interface {
	Link(ctx context.Context, id string) (*service.ResumeLink, error)
	Open(ctx context.Context, token string) (*service.ResumeFile, error)
}

// ResumeHandler signs and serves resume downloads.
type ResumeHandler struct {
	service resumeService
	logger  *zap.Logger
}

// NewResumeHandler constructs a ResumeHandler.
func NewResumeHandler(svc resumeService, logger *zap.Logger) *ResumeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeHandler{service: svc, logger: logger}
}

// Link godoc
// @Summary Signed resume download link
// @Tags Resumes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/applications/{id}/resume-url [get]
func (h *ResumeHandler) Link(c *gin.Context) {
	link, err := h.service.Link(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download resume
// @Tags Resumes
// @Produce application/octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resumes/download [get]
func (h *ResumeHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Validation("token is required", "token"))
		return
	}
	file, err := h.service.Open(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Body.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	if file.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file.Body); err != nil {
		h.logger.Warn("resume download interrupted", zap.Error(err))
	}
}
