package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
	"github.com/noah-isme/careers-admin-api/internal/wizard"
	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
	"github.com/noah-isme/careers-admin-api/pkg/jobs"
)

const (
	openJobID   = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	closedJobID = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

var resumePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

type memoryFiles struct {
	saved   map[string][]byte
	deleted []string
}

func (m *memoryFiles) Save(filename string, data []byte) (string, error) {
	m.saved[filename] = data
	return filename, nil
}

func (m *memoryFiles) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	delete(m.saved, filename)
	return nil
}

type wizardFixture struct {
	svc     *WizardService
	drafts  *wizard.MemoryDraftStore
	apps    *memoryApplicationStore
	files   *memoryFiles
	queue   *recordingQueue
	metrics *MetricsService
}

func newWizardFixture(t *testing.T, inline bool, debounce time.Duration) *wizardFixture {
	t.Helper()
	f := &wizardFixture{
		drafts:  wizard.NewMemoryDraftStore(),
		apps:    newMemoryApplicationStore(),
		files:   &memoryFiles{saved: map[string][]byte{}},
		queue:   &recordingQueue{},
		metrics: NewMetricsService(),
	}
	postings := newStubJobStore(
		models.JobPosting{ID: openJobID, Title: "Backend Engineer", Active: true},
		models.JobPosting{ID: closedJobID, Title: "Archivist", Active: false},
	)
	f.svc = NewWizardService(f.drafts, f.apps, postings, f.files, f.queue, nil, f.metrics, nil, nil, WizardConfig{
		Debounce:      debounce,
		Policy:        wizard.DefaultAttachmentPolicy(),
		InlineResumes: inline,
	})
	t.Cleanup(f.svc.Stop)
	return f
}

func completeForm(t *testing.T, svc *WizardService, key wizard.Key, email string) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.SetFields(ctx, key, map[string]string{
		wizard.FieldFullName: "Ann Lee",
		wizard.FieldEmail:    email,
		wizard.FieldPhone:    "+1 555 0100",
	})
	require.NoError(t, err)
	_, err = svc.Next(ctx, key)
	require.NoError(t, err)
	_, err = svc.SetFields(ctx, key, map[string]string{wizard.FieldYears: "4"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, key)
	require.NoError(t, err)
	_, err = svc.AttachResume(ctx, key, wizard.File{Name: "cv.pdf", DeclaredType: "application/pdf", Data: resumePDF})
	require.NoError(t, err)
	_, err = svc.Next(ctx, key)
	require.NoError(t, err)
	state, err := svc.SetFields(ctx, key, map[string]string{wizard.FieldCoverLetter: "I like distributed systems."})
	require.NoError(t, err)
	require.Equal(t, 4, state.CurrentStep)
}

func TestWizardServiceSubmitInline(t *testing.T) {
	f := newWizardFixture(t, true, time.Hour)
	ctx := context.Background()
	key := wizard.Key{ClientID: "client-1", JobID: openJobID}

	state, err := f.svc.Start(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStep)
	assert.False(t, state.Restored)

	completeForm(t, f.svc, key, "Ann@Example.com")
	f.svc.FlushAll(ctx)
	require.Equal(t, 1, f.drafts.Len())

	record, err := f.svc.Submit(ctx, key, Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusSubmitted, record.Status)
	assert.Equal(t, "ann@example.com", record.Email)
	assert.Equal(t, 4, record.YearsOfExperience)
	assert.Equal(t, wizard.MIMEPDF, record.ResumeMimeType)
	assert.NotEmpty(t, record.ResumeData)
	assert.Empty(t, record.ResumePath)
	require.NotNil(t, record.JobID)
	assert.Equal(t, openJobID, *record.JobID)

	assert.Equal(t, 0, f.drafts.Len())
	assert.Equal(t, 0, f.svc.Active())
	assert.Equal(t, uint64(1), f.metrics.Snapshot().ApplicationsSubmitted)

	stored, err := f.apps.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", stored.FullName)
}

func TestWizardServiceSubmitToFileStore(t *testing.T) {
	f := newWizardFixture(t, false, time.Hour)
	ctx := context.Background()
	key := wizard.Key{ClientID: "client-2", JobID: openJobID}

	completeForm(t, f.svc, key, "ann@example.com")
	record, err := f.svc.Submit(ctx, key, Actor{})
	require.NoError(t, err)
	assert.Empty(t, record.ResumeData)
	assert.Equal(t, openJobID+"/"+record.ID+".pdf", record.ResumePath)
	assert.Equal(t, resumePDF, f.files.saved[record.ResumePath])
}

func TestWizardServiceSubmitFailuresKeepSessionOpen(t *testing.T) {
	f := newWizardFixture(t, false, time.Hour)
	ctx := context.Background()
	key := wizard.Key{ClientID: "client-3", JobID: openJobID}

	completeForm(t, f.svc, key, "not-an-email")
	_, err := f.svc.Submit(ctx, key, Actor{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{wizard.FieldEmail}, appErr.Fields)

	_, err = f.svc.SetFields(ctx, key, map[string]string{wizard.FieldEmail: "ann@example.com"})
	require.NoError(t, err)
	f.apps.updateErr = errors.New("connection refused")
	_, err = f.svc.Submit(ctx, key, Actor{})
	assert.True(t, errors.Is(err, appErrors.ErrStorage))
	assert.Len(t, f.files.deleted, 1)
	assert.Empty(t, f.files.saved)

	state, err := f.svc.State(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, state.CurrentStep)
	assert.False(t, state.Submitted)

	f.apps.updateErr = nil
	_, err = f.svc.Submit(ctx, key, Actor{})
	require.NoError(t, err)
}

func TestWizardServiceStartChecksPosting(t *testing.T) {
	f := newWizardFixture(t, true, time.Hour)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, wizard.Key{ClientID: "c", JobID: closedJobID})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = f.svc.Start(ctx, wizard.Key{ClientID: "c", JobID: "cccccccc-cccc-cccc-cccc-cccccccccccc"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Start(ctx, wizard.Key{ClientID: "c", JobID: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Start(ctx, wizard.Key{JobID: openJobID})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestWizardServiceRestoresDraft(t *testing.T) {
	f := newWizardFixture(t, true, time.Hour)
	ctx := context.Background()
	key := wizard.Key{ClientID: "client-4", JobID: openJobID}
	require.NoError(t, f.drafts.Set(ctx, key, wizard.Draft{
		JobID:       openJobID,
		Fields:      map[string]string{wizard.FieldFullName: "Ann Lee"},
		CurrentStep: 9,
	}))

	state, err := f.svc.Start(ctx, key)
	require.NoError(t, err)
	assert.True(t, state.Restored)
	assert.Equal(t, 4, state.CurrentStep)
	assert.Equal(t, "Ann Lee", state.Fields[wizard.FieldFullName])

	state, err = f.svc.StartOver(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStep)
	assert.Empty(t, state.Fields)
	assert.Equal(t, 0, f.drafts.Len())
}

func TestWizardServiceNextReportsMissingFields(t *testing.T) {
	f := newWizardFixture(t, true, time.Hour)
	ctx := context.Background()
	key := wizard.Key{ClientID: "client-5", JobID: openJobID}

	_, err := f.svc.SetFields(ctx, key, map[string]string{wizard.FieldFullName: "Ann"})
	require.NoError(t, err)
	state, err := f.svc.Next(ctx, key)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{wizard.FieldEmail, wizard.FieldPhone}, appErrors.FromError(err).Fields)
	assert.Equal(t, 1, state.CurrentStep)

	state, err = f.svc.AttachResume(ctx, key, wizard.File{Name: "cv.txt", Data: []byte("plain text resume")})
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedFile))
	assert.Nil(t, state.Resume)

	state, err = f.svc.Prev(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStep)
}

func TestWizardServiceDebouncedSaveGoesThroughQueue(t *testing.T) {
	f := newWizardFixture(t, true, 10*time.Millisecond)
	ctx := context.Background()
	key := wizard.Key{ClientID: "client-6", JobID: openJobID}

	_, err := f.svc.SetFields(ctx, key, map[string]string{wizard.FieldFullName: "A"})
	require.NoError(t, err)
	_, err = f.svc.SetFields(ctx, key, map[string]string{wizard.FieldFullName: "Ann"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return f.queue.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.drafts.Len())

	f.queue.mu.Lock()
	job := f.queue.jobs[0]
	f.queue.mu.Unlock()
	assert.Equal(t, DraftSaveJobType, job.Type)
	require.NoError(t, f.svc.HandleDraftSave(ctx, job))

	draft, err := f.drafts.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Ann", draft.Fields[wizard.FieldFullName])
	assert.Equal(t, uint64(1), f.metrics.Snapshot().DraftSaves)

	require.Error(t, f.svc.HandleDraftSave(ctx, jobs.Job{ID: "x", Payload: "bogus"}))
	require.NoError(t, f.svc.HandleDraftSave(ctx, jobs.Job{ID: "gone", Payload: wizard.Key{ClientID: "other", JobID: openJobID}}))
}

func TestWizardServiceSweepEvictsIdleSessions(t *testing.T) {
	f := newWizardFixture(t, true, time.Hour)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }
	ctx := context.Background()

	_, err := f.svc.SetFields(ctx, wizard.Key{ClientID: "old", JobID: openJobID}, map[string]string{wizard.FieldFullName: "x"})
	require.NoError(t, err)
	clock = clock.Add(3 * time.Hour)
	_, err = f.svc.SetFields(ctx, wizard.Key{ClientID: "fresh", JobID: openJobID}, map[string]string{wizard.FieldFullName: "y"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.svc.Sweep(2*time.Hour))
	assert.Equal(t, 1, f.svc.Active())

	state, err := f.svc.State(ctx, wizard.Key{ClientID: "old", JobID: openJobID})
	require.NoError(t, err)
	assert.True(t, strings.TrimSpace(state.Fields[wizard.FieldFullName]) == "")
}
