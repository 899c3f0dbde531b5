package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/service"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

type resumeServiceMock struct {
	link  *service.ResumeLink
	file  *service.ResumeFile
	err   error
	token string
}

func (m *resumeServiceMock) Link(ctx context.Context, id string) (*service.ResumeLink, error) {
	return m.link, m.err
}

func (m *resumeServiceMock) Open(ctx context.Context, token string) (*service.ResumeFile, error) {
	m.token = token
	return m.file, m.err
}

func TestResumeHandlerLink(t *testing.T) {
	h := NewResumeHandler(&resumeServiceMock{link: &service.ResumeLink{Token: "t", URL: "/resumes/download?token=t", ExpiresAt: time.Now()}}, nil)
	c, w := newTestContext(http.MethodGet, "/admin/applications/a1/resume-url", nil)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	h.Link(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/resumes/download?token=t")
}

func TestResumeHandlerDownload(t *testing.T) {
	svc := &resumeServiceMock{file: &service.ResumeFile{
		FileName:    "cv.pdf",
		ContentType: "application/pdf",
		Size:        8,
		Body:        io.NopCloser(strings.NewReader("%PDF-1.4")),
	}}
	h := NewResumeHandler(svc, nil)

	c, w := newTestContext(http.MethodGet, "/resumes/download?token=abc", nil)
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.token)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cv.pdf")
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestResumeHandlerDownloadRejects(t *testing.T) {
	h := NewResumeHandler(&resumeServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")}, nil)

	c, w := newTestContext(http.MethodGet, "/resumes/download", nil)
	h.Download(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/resumes/download?token=forged", nil)
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
