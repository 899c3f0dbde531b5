package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/service"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

const wizardJobID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"

type wizardServiceMock struct {
	key    wizard.Key
	fields map[string]string
	file   wizard.File
	calls  []string
	err    error
}

func (m *wizardServiceMock) record(name string, key wizard.Key) (wizard.State, error) {
	m.calls = append(m.calls, name)
	m.key = key
	if m.err != nil {
		return wizard.State{}, m.err
	}
	return wizard.State{Key: key, CurrentStep: 1, TotalSteps: 3}, nil
}

func (m *wizardServiceMock) Start(ctx context.Context, key wizard.Key) (wizard.State, error) {
	return m.record("start", key)
}

func (m *wizardServiceMock) State(ctx context.Context, key wizard.Key) (wizard.State, error) {
	return m.record("state", key)
}

func (m *wizardServiceMock) SetFields(ctx context.Context, key wizard.Key, values map[string]string) (wizard.State, error) {
	m.fields = values
	return m.record("fields", key)
}

func (m *wizardServiceMock) Next(ctx context.Context, key wizard.Key) (wizard.State, error) {
	return m.record("next", key)
}

func (m *wizardServiceMock) Prev(ctx context.Context, key wizard.Key) (wizard.State, error) {
	return m.record("prev", key)
}

func (m *wizardServiceMock) AttachResume(ctx context.Context, key wizard.Key, file wizard.File) (wizard.State, error) {
	m.file = file
	return m.record("resume", key)
}

func (m *wizardServiceMock) StartOver(ctx context.Context, key wizard.Key) (wizard.State, error) {
	return m.record("start_over", key)
}

func (m *wizardServiceMock) Submit(ctx context.Context, key wizard.Key, actor service.Actor) (*models.ApplicationRecord, error) {
	m.calls = append(m.calls, "submit")
	m.key = key
	if m.err != nil {
		return nil, m.err
	}
	return &models.ApplicationRecord{ID: "app-1", Status: models.ApplicationStatusSubmitted}, nil
}

func withClient(c *gin.Context) {
	c.Request.Header.Set(ClientIDHeader, "browser-1")
	c.Params = gin.Params{{Key: "jobId", Value: wizardJobID}}
}

func TestWizardHandlerRequiresClientID(t *testing.T) {
	svc := &wizardServiceMock{}
	h := NewWizardHandler(svc, 0)

	c, w := newTestContext(http.MethodPost, "/wizard/"+wizardJobID, nil)
	c.Params = gin.Params{{Key: "jobId", Value: wizardJobID}}
	h.Start(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{ClientIDHeader}, decodeEnvelope(t, w).Error.Fields)
	assert.Empty(t, svc.calls)
}

func TestWizardHandlerRejectsClientIDWithSeparator(t *testing.T) {
	svc := &wizardServiceMock{}
	h := NewWizardHandler(svc, 0)

	c, w := newTestContext(http.MethodPost, "/wizard/"+wizardJobID, nil)
	withClient(c)
	c.Request.Header.Set(ClientIDHeader, "browser:1")
	h.Start(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{ClientIDHeader}, decodeEnvelope(t, w).Error.Fields)
	assert.Empty(t, svc.calls)
}

func TestWizardHandlerCanonicalizesJobID(t *testing.T) {
	svc := &wizardServiceMock{}
	h := NewWizardHandler(svc, 0)

	for _, raw := range []string{"urn:uuid:" + wizardJobID, "{AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA}"} {
		c, w := newTestContext(http.MethodPost, "/wizard/x", nil)
		withClient(c)
		c.Params = gin.Params{{Key: "jobId", Value: raw}}
		h.Start(c)

		require.Equal(t, http.StatusOK, w.Code, raw)
		assert.Equal(t, wizard.Key{ClientID: "browser-1", JobID: wizardJobID}, svc.key, raw)
		assert.Equal(t, "browser-1:"+wizardJobID, svc.key.String(), raw)
	}
}

func TestWizardHandlerStepFlow(t *testing.T) {
	svc := &wizardServiceMock{}
	h := NewWizardHandler(svc, 0)

	c, w := newTestContext(http.MethodPost, "/wizard/"+wizardJobID, nil)
	withClient(c)
	h.Start(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, wizard.Key{ClientID: "browser-1", JobID: wizardJobID}, svc.key)

	c, w = newTestContext(http.MethodPatch, "/wizard/"+wizardJobID+"/fields", mustJSON(t, map[string]string{wizard.FieldFullName: "Ann Lee"}))
	withClient(c)
	h.SetFields(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann Lee", svc.fields[wizard.FieldFullName])

	c, w = newTestContext(http.MethodPatch, "/wizard/"+wizardJobID+"/fields", []byte(`{"fullName": 3}`))
	withClient(c)
	h.SetFields(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, step := range []func(*gin.Context){h.Next, h.Prev, h.State, h.StartOver} {
		c, w = newTestContext(http.MethodPost, "/wizard/"+wizardJobID, nil)
		withClient(c)
		step(c)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, []string{"start", "fields", "next", "prev", "state", "start_over"}, svc.calls)
}

func TestWizardHandlerValidationFailure(t *testing.T) {
	h := NewWizardHandler(&wizardServiceMock{err: appErrors.Validation("step has errors", wizard.FieldEmail)}, 0)

	c, w := newTestContext(http.MethodPost, "/wizard/"+wizardJobID+"/next", nil)
	withClient(c)
	h.Next(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{wizard.FieldEmail}, decodeEnvelope(t, w).Error.Fields)
}

func TestWizardHandlerAttachResume(t *testing.T) {
	svc := &wizardServiceMock{}
	h := NewWizardHandler(svc, 4)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="resume"; filename="cv.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 body"))
	require.NoError(t, mw.Close())

	c, w := newTestContextWithBody(http.MethodPut, "/wizard/"+wizardJobID+"/resume", &body, mw.FormDataContentType())
	withClient(c)
	h.AttachResume(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cv.pdf", svc.file.Name)
	assert.Equal(t, "application/pdf", svc.file.DeclaredType)
	assert.Len(t, svc.file.Data, 5)

	c, w = newTestContext(http.MethodPut, "/wizard/"+wizardJobID+"/resume", nil)
	withClient(c)
	h.AttachResume(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWizardHandlerSubmit(t *testing.T) {
	svc := &wizardServiceMock{}
	h := NewWizardHandler(svc, 0)

	c, w := newTestContext(http.MethodPost, "/wizard/"+wizardJobID+"/submit", nil)
	withClient(c)
	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"app-1"`)

	svc.err = appErrors.Clone(appErrors.ErrConflict, "job is no longer accepting applications")
	c, w = newTestContext(http.MethodPost, "/wizard/"+wizardJobID+"/submit", nil)
	withClient(c)
	h.Submit(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
