package review

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/careers-admin-api/internal/models"
)

func seedBoard(t *testing.T, records ...models.ApplicationRecord) *Board {
	t.Helper()
	b := NewBoard(FullCapabilities(), DefaultViewState())
	require.True(t, b.ApplyFetch(b.BeginFetch(), records))
	return b
}

func TestBoardDiscardsOutOfOrderFetch(t *testing.T) {
	b := NewBoard(FullCapabilities(), DefaultViewState())
	require.False(t, b.Loaded())

	first := b.BeginFetch()
	second := b.BeginFetch()

	fresh := []models.ApplicationRecord{record("new", "New", models.ApplicationStatusSubmitted, 1, 0)}
	stale := []models.ApplicationRecord{record("old", "Old", models.ApplicationStatusSubmitted, 1, 0)}

	require.True(t, b.ApplyFetch(second, fresh))
	require.False(t, b.ApplyFetch(first, stale))
	require.Equal(t, []string{"new"}, IDs(b.Records()))
	require.True(t, b.Loaded())
}

func TestBoardSelectionStaysWithinFiltered(t *testing.T) {
	b := seedBoard(t,
		record("1", "Ann", models.ApplicationStatusSubmitted, 1, 0),
		record("2", "Bob", models.ApplicationStatusInterview, 6, 4),
	)
	require.True(t, b.ToggleOne("1"))
	require.True(t, b.ToggleOne("2"))
	require.False(t, b.ToggleOne("missing"))

	snap := b.SetState(state(func(s *ViewState) { s.StatusFilter = "interview" }))
	require.Equal(t, []string{"2"}, snap.Selected)

	require.False(t, b.ToggleOne("1"))
	require.Equal(t, []string{"2"}, b.Selected())
}

func TestBoardRefetchDropsDeletedSelection(t *testing.T) {
	b := seedBoard(t,
		record("1", "Ann", models.ApplicationStatusSubmitted, 1, 0),
		record("2", "Bob", models.ApplicationStatusSubmitted, 1, 0),
	)
	b.ToggleOne("1")
	b.ToggleOne("2")

	b.ApplyFetch(b.BeginFetch(), []models.ApplicationRecord{record("2", "Bob", models.ApplicationStatusSubmitted, 1, 0)})
	require.Equal(t, []string{"2"}, b.Selected())
}

func TestBoardTogglePageVersusFiltered(t *testing.T) {
	b := seedBoard(t,
		record("1", "Ann", models.ApplicationStatusSubmitted, 1, 0),
		record("2", "Bob", models.ApplicationStatusSubmitted, 1, 0),
		record("3", "Cid", models.ApplicationStatusSubmitted, 1, 0),
	)
	b.SetState(state(func(s *ViewState) { s.SortField = SortByName; s.SortDirection = SortAsc; s.PageSize = 2 }))

	b.TogglePage()
	require.Equal(t, []string{"1", "2"}, b.Selected())

	b.ToggleFiltered()
	require.Equal(t, []string{"1", "2", "3"}, b.Selected())

	b.ToggleFiltered()
	require.Empty(t, b.Selected())

	b.ToggleOne("3")
	b.ClearSelection()
	require.Empty(t, b.Selected())
}

func TestBoardResetsPageBeyondLast(t *testing.T) {
	b := seedBoard(t,
		record("1", "Ann", models.ApplicationStatusSubmitted, 1, 0),
		record("2", "Bob", models.ApplicationStatusInterview, 1, 0),
	)
	snap := b.SetState(state(func(s *ViewState) { s.PageSize = 1; s.Page = 2 }))
	require.Equal(t, 2, snap.State.Page)
	require.Len(t, snap.View.Visible, 1)

	snap = b.SetState(state(func(s *ViewState) { s.PageSize = 1; s.Page = 2; s.StatusFilter = "interview" }))
	require.Equal(t, 1, snap.State.Page)
	require.Equal(t, []string{"2"}, IDs(snap.View.Visible))
}

func TestBoardResetsPageWhenFiltersChange(t *testing.T) {
	records := make([]models.ApplicationRecord, 0, 30)
	for i := 0; i < 30; i++ {
		status := models.ApplicationStatusSubmitted
		if i%6 == 5 {
			status = models.ApplicationStatusRejected
		}
		records = append(records, record(fmt.Sprintf("r%02d", i), "Candidate", status, 1, 0))
	}
	b := seedBoard(t, records...)

	snap := b.SetState(state(func(s *ViewState) { s.Page = 2 }))
	require.Equal(t, 2, snap.State.Page)
	require.Equal(t, 3, snap.View.TotalPages)

	snap = b.SetState(state(func(s *ViewState) { s.Page = 2; s.StatusFilter = "submitted" }))
	require.Equal(t, 25, snap.View.TotalFiltered)
	require.Equal(t, 3, snap.View.TotalPages)
	require.Equal(t, 1, snap.State.Page)

	snap = b.SetState(state(func(s *ViewState) { s.Page = 2; s.StatusFilter = "submitted" }))
	require.Equal(t, 2, snap.State.Page)
}

func TestBoardRecordLookup(t *testing.T) {
	b := seedBoard(t, record("1", "Ann", models.ApplicationStatusSubmitted, 1, 0))
	r, ok := b.Record("1")
	require.True(t, ok)
	require.Equal(t, "Ann", r.FullName)
	_, ok = b.Record("2")
	require.False(t, ok)
}
