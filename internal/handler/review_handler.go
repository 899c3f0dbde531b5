package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/careers-admin-api/internal/middleware"
	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/review"
	"github.com/noah-isme/careers-admin-api/internal/service"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/response"
)

const defaultHistoryLimit = 50

type reviewService interface {
	Capabilities() review.Capabilities
	View(ctx context.Context, actor service.Actor, state review.ViewState) (review.Snapshot, error)
	Current(ctx context.Context, actor service.Actor) (review.Snapshot, error)
	ToggleSelection(ctx context.Context, actor service.Actor, id string) (review.Snapshot, error)
	ToggleAll(ctx context.Context, actor service.Actor, scope string) (review.Snapshot, error)
	ClearSelection(actor service.Actor) review.Snapshot
	BulkSetStatus(ctx context.Context, actor service.Actor, status models.ApplicationStatus) (*service.BulkResult, error)
	BulkDelete(ctx context.Context, actor service.Actor) (*service.BulkResult, error)
	Get(ctx context.Context, id string) (*models.ApplicationRecord, error)
	UpdateStatus(ctx context.Context, actor service.Actor, id string, status models.ApplicationStatus) (*models.ApplicationRecord, error)
	UpdateRating(ctx context.Context, actor service.Actor, id string, rating int) (*models.ApplicationRecord, error)
	UpdateNotes(ctx context.Context, actor service.Actor, id string, notes string) (*models.ApplicationRecord, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	History(ctx context.Context, id string, limit int) ([]models.AuditLog, error)
	Export(ctx context.Context, actor service.Actor, state review.ViewState, format, scope string) (*service.ExportFile, error)
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

type ratingRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// ReviewHandler exposes the reviewer's board: filtered listing, selection, bulk and per-record actions.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(svc reviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// View godoc
// @Summary Filter, sort and page applications
// @Description Refetches the collection and applies the view state. The selection is pruned to the filtered set.
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email substring"
// @Param status query string false "all or a status"
// @Param experience query string false "all, 0-2, 3-5 or 5+"
// @Param rating query string false "all or a minimum rating"
// @Param sort query string false "name, experience, date, status or rating"
// @Param order query string false "asc or desc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/applications [get]
func (h *ReviewHandler) View(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var state review.ViewState
	if err := c.ShouldBindQuery(&state); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view parameters"))
		return
	}
	snap, err := h.service.View(c.Request.Context(), actor, state)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSnapshot(c, snap)
}

// Current godoc
// @Summary Current board
// @Description Returns the last computed view and selection without refetching.
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/applications/board [get]
func (h *ReviewHandler) Current(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snap, err := h.service.Current(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSnapshot(c, snap)
}

// ToggleSelection godoc
// @Summary Toggle one application in the selection
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /admin/applications/selection/{id} [post]
func (h *ReviewHandler) ToggleSelection(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snap, err := h.service.ToggleSelection(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSnapshot(c, snap)
}

// ToggleAll godoc
// @Summary Select or deselect all
// @Description With scope=page the visible page is toggled, with scope=filtered every filtered record.
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param scope query string false "page or filtered"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/applications/selection [post]
func (h *ReviewHandler) ToggleAll(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snap, err := h.service.ToggleAll(c.Request.Context(), actor, c.Query("scope"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSnapshot(c, snap)
}

// ClearSelection godoc
// @Summary Clear the selection
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/applications/selection [delete]
func (h *ReviewHandler) ClearSelection(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.respondSnapshot(c, h.service.ClearSelection(actor))
}

// BulkStatus godoc
// @Summary Set the status of every selected application
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body statusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /admin/applications/bulk/status [post]
func (h *ReviewHandler) BulkStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	res, err := h.service.BulkSetStatus(c.Request.Context(), actor, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// BulkDelete godoc
// @Summary Delete every selected application
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/applications/bulk/delete [post]
func (h *ReviewHandler) BulkDelete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	res, err := h.service.BulkDelete(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Get godoc
// @Summary Get application
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/applications/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateStatus godoc
// @Summary Change application status
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body statusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /admin/applications/{id}/status [patch]
func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	record, err := h.service.UpdateStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateRating godoc
// @Summary Rate an application
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body ratingRequest true "Rating 0-5"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/applications/{id}/rating [patch]
func (h *ReviewHandler) UpdateRating(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rating is required"))
		return
	}
	record, err := h.service.UpdateRating(c.Request.Context(), actorFromContext(c), c.Param("id"), *req.Rating)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateNotes godoc
// @Summary Replace reviewer notes
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body notesRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Router /admin/applications/{id}/notes [patch]
func (h *ReviewHandler) UpdateNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notes payload"))
		return
	}
	record, err := h.service.UpdateNotes(c.Request.Context(), actorFromContext(c), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete application
// @Tags Review
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/applications/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// History godoc
// @Summary Audit trail of an application
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /admin/applications/{id}/history [get]
func (h *ReviewHandler) History(c *gin.Context) {
	logs, err := h.service.History(c.Request.Context(), c.Param("id"), queryInt(c, "limit", defaultHistoryLimit))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Export godoc
// @Summary Export applications
// @Description Applies the view parameters and downloads the filtered set (scope=filtered) or the visible page (scope=page).
// @Tags Review
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param scope query string false "filtered or page"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/applications/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var state review.ViewState
	if err := c.ShouldBindQuery(&state); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view parameters"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), actor, state, c.Query("format"), c.Query("scope"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	response.Attachment(c, file.FileName, file.ContentType, file.Data)
}

func (h *ReviewHandler) respondSnapshot(c *gin.Context, snap review.Snapshot) {
	caps := h.service.Capabilities()
	middleware.SetMeta(c, "capabilities", caps)
	pagination := &models.Pagination{
		Page:       snap.View.Page,
		PageSize:   snap.View.PageSize,
		TotalCount: snap.View.TotalFiltered,
		TotalPages: snap.View.TotalPages,
	}
	response.JSON(c, http.StatusOK, snap, pagination, middleware.ExtractMeta(c))
}
