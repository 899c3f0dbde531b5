package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/storage"
)

func TestResumeServiceInlineRoundTrip(t *testing.T) {
	store := newMemoryApplicationStore(models.ApplicationRecord{
		ID:             idAnn,
		ResumeFileName: "cv.pdf",
		ResumeMimeType: "application/pdf",
		ResumeData:     base64.StdEncoding.EncodeToString(resumePDF),
	})
	svc := NewResumeService(store, nil, storage.NewSignedURLSigner("secret", time.Minute), "/api/v1/resumes/download", nil)

	link, err := svc.Link(context.Background(), idAnn)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/resumes/download?token="+link.Token, link.URL)

	file, err := svc.Open(context.Background(), link.Token)
	require.NoError(t, err)
	defer file.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	assert.Equal(t, resumePDF, data)
	assert.Equal(t, "cv.pdf", file.FileName)
	assert.Equal(t, int64(len(resumePDF)), file.Size)
}

func TestResumeServiceFilesystem(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	_, err = files.Save("job/app.pdf", resumePDF)
	require.NoError(t, err)

	store := newMemoryApplicationStore(models.ApplicationRecord{
		ID:             idBob,
		ResumeFileName: "cv.pdf",
		ResumeMimeType: "application/pdf",
		ResumePath:     "job/app.pdf",
	})
	svc := NewResumeService(store, files, storage.NewSignedURLSigner("secret", time.Minute), "/dl", nil)

	link, err := svc.Link(context.Background(), idBob)
	require.NoError(t, err)
	file, err := svc.Open(context.Background(), link.Token)
	require.NoError(t, err)
	data, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	require.NoError(t, file.Body.Close())
	assert.Equal(t, resumePDF, data)

	require.NoError(t, os.Remove(filepath.Join(dir, "job", "app.pdf")))
	_, err = svc.Open(context.Background(), link.Token)
	assert.True(t, errors.Is(err, appErrors.ErrStorage))
}

func TestResumeServiceRejections(t *testing.T) {
	store := newMemoryApplicationStore(models.ApplicationRecord{ID: idCat})
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewResumeService(store, nil, signer, "/dl", nil)

	_, err := svc.Link(context.Background(), idCat)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Link(context.Background(), idAnn)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Open(context.Background(), "bogus")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	token, _, err := signer.Generate(idCat, "../../etc/passwd")
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), token)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
