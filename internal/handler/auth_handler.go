package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/review"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// SessionInfo tells the back-office client who is signed in and which screens to offer.
type SessionInfo struct {
	User          models.UserInfo     `json:"user"`
	Capabilities  review.Capabilities `json:"capabilities"`
	CanManageJobs bool                `json:"canManageJobs"`
}

// AuthHandler serves sign-in and the current back-office session.
type AuthHandler struct {
	service authService
	caps    review.Capabilities
}

// NewAuthHandler creates a new handler. caps are the reviewer features enabled for this deployment.
func NewAuthHandler(svc authService, caps review.Capabilities) *AuthHandler {
	return &AuthHandler{service: svc, caps: caps}
}

// Login godoc
// @Summary Authenticate back-office user
// @Description Exchange email and password for an access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation("invalid login payload", "email", "password"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current back-office session
// @Description Returns the signed-in user, the enabled reviewer features and whether postings can be managed
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, SessionInfo{
		User:          claims.Info(),
		Capabilities:  h.caps,
		CanManageJobs: claims.Role == models.RoleAdmin,
	}, nil)
}
