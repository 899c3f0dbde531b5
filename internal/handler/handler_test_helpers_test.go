package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/middleware"
	"github.com/noah-isme/careers-admin-api/internal/models"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *errorBody             `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type errorBody struct {
	Code   string   `json:"code"`
	Fields []string `json:"fields"`
	IDs    []string `json:"ids"`
}

func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	return newTestContextWithBody(method, path, bytes.NewReader(body), "application/json")
}

func newTestContextWithBody(method, path string, body io.Reader, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	return c, w
}

func asReviewer(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "reviewer-1", Role: models.RoleReviewer, Email: "r@example.com"})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
