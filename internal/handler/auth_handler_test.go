package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/review"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

type authServiceMock struct {
	last models.LoginRequest
	resp *models.LoginResponse
	err  error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.last = req
	return m.resp, m.err
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &authServiceMock{resp: &models.LoginResponse{AccessToken: "token"}}
	h := NewAuthHandler(svc, review.FullCapabilities())

	c, w := newTestContext(http.MethodPost, "/auth/login", mustJSON(t, map[string]string{"email": "a@example.com", "password": "secret"}))
	c.Request.Header.Set("User-Agent", "test-agent")
	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", svc.last.Email)
	assert.Equal(t, "test-agent", svc.last.UserAgent)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
}

func TestAuthHandlerLoginErrors(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{err: appErrors.ErrInvalidCredentials}, review.FullCapabilities())

	c, w := newTestContext(http.MethodPost, "/auth/login", []byte("{"))
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPost, "/auth/login", mustJSON(t, map[string]string{"email": "a@example.com", "password": "bad"}))
	h.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, w).Error.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{}, review.Capabilities{Rating: true})

	c, w := newTestContext(http.MethodGet, "/auth/me", nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodGet, "/auth/me", nil)
	asReviewer(c)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"role":"REVIEWER"`)
	assert.Contains(t, body, `"capabilities":{"rating":true,"bulkActions":false}`)
	assert.Contains(t, body, `"canManageJobs":false`)
}
