package review

import (
	"sync"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

// Snapshot is a consistent read of a board.
type Snapshot struct {
	State    ViewState `json:"state"`
	View     View      `json:"view"`
	Selected []string  `json:"selected"`
}

// Board owns one reviewer's record collection, view state and selection.
// Every mutation recomputes the view and prunes the selection to the filtered set.
type Board struct {
	mu        sync.Mutex
	caps      Capabilities
	records   []models.ApplicationRecord
	state     ViewState
	view      View
	selection *Selection
	issued    uint64
	applied   uint64
}

// NewBoard returns an empty board with the given capabilities and starting state.
func NewBoard(caps Capabilities, state ViewState) *Board {
	b := &Board{
		caps:      caps,
		state:     state,
		selection: NewSelection(),
	}
	b.recompute()
	return b
}

// Capabilities returns the features enabled for this board.
func (b *Board) Capabilities() Capabilities {
	return b.caps
}

// BeginFetch reserves a sequence number for a collection refetch.
func (b *Board) BeginFetch() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	return b.issued
}

// ApplyFetch replaces the collection with the result of fetch seq.
// Results older than the last applied fetch are discarded and false is returned.
func (b *Board) ApplyFetch(seq uint64, records []models.ApplicationRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq <= b.applied {
		return false
	}
	b.applied = seq
	b.records = append([]models.ApplicationRecord(nil), records...)
	b.recompute()
	return true
}

// Loaded reports whether at least one fetch has been applied.
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applied > 0
}

// SetState switches to a new view state. The page is reset to 1 when the filters
// changed or the page lies beyond the last page.
func (b *Board) SetState(state ViewState) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !state.FiltersEqual(b.state) {
		state.Page = 1
	}
	b.state = state
	b.recompute()
	return b.snapshotLocked()
}

// Snapshot returns the current state, view and selection.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// View returns the current projection.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Records returns a copy of the loaded collection.
func (b *Board) Records() []models.ApplicationRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.ApplicationRecord(nil), b.records...)
}

// Record looks up a loaded record by id.
func (b *Board) Record(id string) (models.ApplicationRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.ApplicationRecord{}, false
}

// Filtered returns every record that passes the current filters, sorted.
func (b *Board) Filtered() []models.ApplicationRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.ApplicationRecord(nil), b.view.Filtered...)
}

// ToggleOne flips one id. Ids outside the filtered set are ignored and false is returned.
func (b *Board) ToggleOne(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !containsID(b.view.Filtered, id) {
		return false
	}
	b.selection.ToggleOne(id)
	return true
}

// TogglePage applies select-all semantics to the visible page.
func (b *Board) TogglePage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.ToggleAll(IDs(b.view.Visible))
}

// ToggleFiltered applies select-all semantics to every filtered record.
func (b *Board) ToggleFiltered() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.ToggleAll(IDs(b.view.Filtered))
}

// ClearSelection empties the selection.
func (b *Board) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selection.Clear()
}

// Selected returns the selected ids.
func (b *Board) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.IDs()
}

func (b *Board) recompute() {
	b.view = ComputeView(b.records, b.state)
	if b.state.Page > b.view.TotalPages {
		b.state.Page = 1
		b.view = ComputeView(b.records, b.state)
	}
	b.selection.Retain(IDs(b.view.Filtered))
}

func (b *Board) snapshotLocked() Snapshot {
	return Snapshot{
		State:    b.state,
		View:     b.view,
		Selected: b.selection.IDs(),
	}
}

func containsID(records []models.ApplicationRecord, id string) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}
