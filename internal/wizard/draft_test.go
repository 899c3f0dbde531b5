package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDraftSerializationRoundTrip(t *testing.T) {
	original := Draft{
		JobID:       "job-1",
		Fields:      map[string]string{FieldFullName: "Ann", FieldYears: "3"},
		Resume:      &Attachment{FileName: "cv.pdf", MimeType: MIMEPDF, SizeBytes: 4, Data: "JVBERg=="},
		CurrentStep: 3,
		SavedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	store := NewMemoryDraftStore()
	key := Key{ClientID: "c", JobID: "job-1"}
	var decoded Draft
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, store.Set(context.Background(), key, decoded))

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, original, *got)
}

func TestMemoryDraftStoreIsolatesCopies(t *testing.T) {
	store := NewMemoryDraftStore()
	key := Key{ClientID: "c", JobID: "j"}
	d := Draft{Fields: map[string]string{"a": "1"}}
	require.NoError(t, store.Set(context.Background(), key, d))
	d.Fields["a"] = "changed"

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, "1", got.Fields["a"])

	require.NoError(t, store.Remove(context.Background(), key))
	require.NoError(t, store.Remove(context.Background(), key))
	_, err = store.Get(context.Background(), key)
	require.True(t, errors.Is(err, ErrNoDraft))
}
