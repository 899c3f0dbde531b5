package wizard

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoDraft is returned by DraftStore.Get when nothing is stored under the key.
var ErrNoDraft = errors.New("wizard: draft not found")

// Key scopes a draft to one client and one job posting.
type Key struct {
	ClientID string `json:"clientId"`
	JobID    string `json:"jobId"`
}

// String renders the key as "client:job".
func (k Key) String() string {
	return k.ClientID + ":" + k.JobID
}

// Draft is a partially completed application.
type Draft struct {
	JobID       string            `json:"jobId"`
	Fields      map[string]string `json:"fields"`
	Resume      *Attachment       `json:"resume,omitempty"`
	CurrentStep int               `json:"currentStep"`
	SavedAt     time.Time         `json:"savedAt"`
}

// Clone deep-copies the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	if d.Resume != nil {
		r := *d.Resume
		out.Resume = &r
	}
	return out
}

// DraftStore is the synchronous key-value store drafts live in.
// Set overwrites any previous draft for the key.
type DraftStore interface {
	Get(ctx context.Context, key Key) (*Draft, error)
	Set(ctx context.Context, key Key, draft Draft) error
	Remove(ctx context.Context, key Key) error
}

// MemoryDraftStore keeps drafts in process memory.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[Key]Draft
}

// NewMemoryDraftStore returns an empty store.
func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[Key]Draft)}
}

// Get returns a copy of the stored draft.
func (m *MemoryDraftStore) Get(_ context.Context, key Key) (*Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[key]
	if !ok {
		return nil, ErrNoDraft
	}
	c := d.Clone()
	return &c, nil
}

// Set stores a copy of draft.
func (m *MemoryDraftStore) Set(_ context.Context, key Key, draft Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[key] = draft.Clone()
	return nil
}

// Remove deletes the draft. Removing a missing key is not an error.
func (m *MemoryDraftStore) Remove(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, key)
	return nil
}

// Len returns the number of stored drafts.
func (m *MemoryDraftStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}
