package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/storage"
)

// inlineResumePath marks tokens for resumes stored in the applications table.
const inlineResumePath = "inline"

type applicationReader interface {
	GetByID(ctx context.Context, id string) (*models.ApplicationRecord, error)
}

type resumeOpener interface {
	Open(filename string) (*os.File, error)
}

type tokenSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Verify(token string) (storage.Grant, error)
}

// ResumeLink is a signed, expiring download link for one resume.
type ResumeLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResumeFile is an opened resume ready to stream. The caller closes Body.
type ResumeFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// ResumeService issues and redeems signed resume download links.
type ResumeService struct {
	apps    applicationReader
	files   resumeOpener
	signer  tokenSigner
	baseURL string
	logger  *zap.Logger
}

// NewResumeService builds a ResumeService. files may be nil when every resume is inline.
func NewResumeService(apps applicationReader, files resumeOpener, signer tokenSigner, baseURL string, logger *zap.Logger) *ResumeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeService{apps: apps, files: files, signer: signer, baseURL: baseURL, logger: logger}
}

// Link signs a download link for the resume of application id.
func (s *ResumeService) Link(ctx context.Context, id string) (*ResumeLink, error) {
	record, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "application not found", "failed to load application")
	}
	if !record.HasResume() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application has no resume")
	}
	path := record.ResumePath
	if path == "" {
		path = inlineResumePath
	}
	token, expiresAt, err := s.signer.Generate(record.ID, path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign resume link")
	}
	return &ResumeLink{Token: token, URL: s.baseURL + "?token=" + token, ExpiresAt: expiresAt}, nil
}

// Open redeems token and returns the resume it points to.
func (s *ResumeService) Open(ctx context.Context, token string) (*ResumeFile, error) {
	grant, err := s.signer.Verify(token)
	if errors.Is(err, storage.ErrTokenExpired) {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link expired")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download link")
	}
	id, path := grant.ApplicationID, grant.Path
	record, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "application not found", "failed to load application")
	}
	if !record.HasResume() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application has no resume")
	}

	file := &ResumeFile{FileName: record.ResumeFileName, ContentType: record.ResumeMimeType, Size: record.ResumeSizeBytes}
	if path == inlineResumePath {
		if record.ResumeData == "" {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resume not found")
		}
		raw, err := wizard.Attachment{Data: record.ResumeData}.Decode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored resume is corrupt")
		}
		file.Size = int64(len(raw))
		file.Body = io.NopCloser(bytes.NewReader(raw))
		return file, nil
	}

	if path != record.ResumePath || s.files == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "resume not found")
	}
	f, err := s.files.Open(path)
	if err != nil {
		s.logger.Warn("resume file unavailable", zap.String("application_id", id), zap.Error(err))
		return nil, appErrors.Storage(err, "resume file unavailable")
	}
	if info, err := f.Stat(); err == nil {
		file.Size = info.Size()
	}
	file.Body = f
	return file, nil
}
