package wizard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls int32
	var last int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger("k", func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, n)
		})
	}
	require.True(t, d.Pending("k"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, int32(5), atomic.LoadInt32(&last))
	require.False(t, d.Pending("k"))
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var a, b int32
	d.Trigger("a", func() { atomic.AddInt32(&a, 1) })
	d.Trigger("b", func() { atomic.AddInt32(&b, 1) })
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&a) == 1 && atomic.LoadInt32(&b) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerCancelAndStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32
	d.Trigger("k", func() { atomic.AddInt32(&calls, 1) })
	require.True(t, d.Cancel("k"))
	require.False(t, d.Cancel("k"))

	d.Trigger("k", func() { atomic.AddInt32(&calls, 1) })
	d.Stop()
	d.Trigger("k", func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(60 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestSessionDebouncedSaveWritesLatestSnapshot(t *testing.T) {
	store := NewMemoryDraftStore()
	s, err := NewSession(context.Background(), Key{ClientID: "c", JobID: "j"}, nil, store, Options{
		Debouncer: NewDebouncer(25 * time.Millisecond),
	})
	require.NoError(t, err)

	for _, v := range []string{"A", "An", "Ann"} {
		require.NoError(t, s.SetField(FieldFullName, v))
	}
	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)

	d, err := store.Get(context.Background(), s.Key())
	require.NoError(t, err)
	require.Equal(t, "Ann", d.Fields[FieldFullName])
}

func TestSessionCloseDropsPendingSave(t *testing.T) {
	store := NewMemoryDraftStore()
	s, err := NewSession(context.Background(), Key{ClientID: "c", JobID: "j"}, nil, store, Options{
		Debouncer: NewDebouncer(20 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NoError(t, s.SetField(FieldFullName, "Ann"))
	s.Close()
	time.Sleep(60 * time.Millisecond)
	require.Zero(t, store.Len())
}

func TestSessionOnSaveDueHook(t *testing.T) {
	store := NewMemoryDraftStore()
	due := make(chan *Session, 1)
	s, err := NewSession(context.Background(), Key{ClientID: "c", JobID: "j"}, nil, store, Options{
		Debouncer: NewDebouncer(10 * time.Millisecond),
		OnSaveDue: func(s *Session) { due <- s },
	})
	require.NoError(t, err)
	require.NoError(t, s.SetField(FieldEmail, "a@b.c"))

	select {
	case got := <-due:
		require.Zero(t, store.Len())
		require.NoError(t, got.Flush(context.Background()))
		require.Equal(t, 1, store.Len())
	case <-time.After(time.Second):
		t.Fatal("save was never due")
	}
}
