package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin":
		return &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, nil
	case "reviewer":
		return &models.JWTClaims{UserID: "u2", Role: models.RoleReviewer}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
}

type stubAudit struct {
	logs []*models.AuditLog
	err  error
}

func (s *stubAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return s.err
}

type stubObserver struct {
	paths []string
}

func (s *stubObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s.paths = append(s.paths, method+" "+path)
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRoles(t *testing.T) {
	r := newRouter()
	admin := r.Group("/admin", JWT(stubValidator{}), RequireRoles(models.RoleAdmin, models.RoleReviewer))
	admin.GET("/board", func(c *gin.Context) { c.String(http.StatusOK, Claims(c).UserID) })
	admin.DELETE("/jobs/:id", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin/board", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin/board", "bogus").Code)

	w := serve(r, http.MethodGet, "/admin/board", "reviewer")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", w.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/admin/jobs/1", "reviewer").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/admin/jobs/1", "admin").Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/board", nil)
	req.Header.Set("Authorization", "Token admin")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	audit := &stubAudit{}
	r := newRouter()
	r.Use(JWT(stubValidator{}))
	r.GET("/export/:id", Audit(audit, nil, models.AuditActionApplicationExport, "application"), func(c *gin.Context) {
		if c.Param("id") == "bad" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/export/42", "admin")
	serve(r, http.MethodGet, "/export/bad", "admin")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionApplicationExport, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "u1", *audit.logs[0].UserID)
	require.NotNil(t, audit.logs[0].ResourceID)
	assert.Equal(t, "42", *audit.logs[0].ResourceID)

	audit.err = errors.New("db down")
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/export/7", "admin").Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &stubObserver{}
	r := newRouter()
	r.Use(Metrics(obs))
	r.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/jobs/123", "")
	serve(r, http.MethodGet, "/missing", "")
	assert.Equal(t, []string{"GET /jobs/:id", "GET unmatched"}, obs.paths)
}

func TestResponseMeta(t *testing.T) {
	r := newRouter()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	serve(r, http.MethodGet, "/", "")
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.NotContains(t, meta, "started_at")
}
