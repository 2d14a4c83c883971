package daemon

import (
	"context"
	"strings"
	"testing"

	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/stretchr/testify/assert"
)

func TestReadEvents(t *testing.T) {
	stream := `: connected

data: {"update_type":"initial","snapshot":{"state":"scheduled","config":{"directory":"/w","delay_seconds":5,"interval_seconds":60,"paused":false},"status":{"last_changed":"Last changed 1","last_run_at":"0001-01-01T00:00:00Z"},"runs":1}}

data: not json

data: {"update_type":"settings_reload","settings_file":"settings.yml"}

`
	ch := make(chan StatusUpdate, 10)
	readEvents(context.Background(), strings.NewReader(stream), ch)
	close(ch)

	var got []StatusUpdate
	for u := range ch {
		got = append(got, u)
	}

	if assert.Len(t, got, 2) {
		assert.Equal(t, UpdateInitial, got[0].UpdateType)
		assert.Equal(t, rotation.StateScheduled, got[0].Snapshot.State)
		assert.Equal(t, "Last changed 1", got[0].Snapshot.Status.LastChangedLabel)
		assert.Equal(t, UpdateSettingsReload, got[1].UpdateType)
		assert.Equal(t, "settings.yml", got[1].SettingsFile)
	}
}
