package store

import (
	"testing"

	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreKeepsLatestSnapshot(t *testing.T) {
	st := New()
	assert.Equal(t, rotation.StateIdle, st.Get().State)

	st.ApplyUpdate(Update{Type: UpdateStatus, Snapshot: &rotation.Snapshot{State: rotation.StateScheduled, Runs: 2}})

	assert.Equal(t, rotation.StateScheduled, st.Get().State)
	assert.Equal(t, 2, st.Get().Runs)
}

func TestStoreFanOut(t *testing.T) {
	st := New()
	a := st.Subscribe()
	b := st.Subscribe()

	st.BroadcastSettingsReload("settings.yml")

	for _, ch := range []chan Update{a, b} {
		select {
		case u := <-ch:
			assert.Equal(t, UpdateSettingsReload, u.Type)
			assert.Equal(t, "settings.yml", u.File)
		default:
			t.Fatal("subscriber did not receive the update")
		}
	}
	assert.Equal(t, 1, st.Reloads())

	st.Unsubscribe(a)
	st.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
}

func TestStoreDoesNotBlockOnSlowSubscriber(t *testing.T) {
	st := New()
	slow := st.Subscribe()

	for i := 0; i < 250; i++ {
		st.ApplyUpdate(Update{Type: UpdateStatus, Snapshot: &rotation.Snapshot{Runs: i}})
	}

	require.Len(t, slow, cap(slow))
	assert.Equal(t, 249, st.Get().Runs)
}
