package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/wallcycle/config"
	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/internal/daemon/engine"
	"github.com/grovetools/wallcycle/internal/daemon/store"
	"github.com/grovetools/wallcycle/internal/rotation"
	"github.com/grovetools/wallcycle/pkg/daemon"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRotation records which operation each request reached.
type fakeRotation struct {
	mu     sync.Mutex
	ops    []string
	paused bool
	err    error
}

func (f *fakeRotation) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	return f.err
}

func (f *fakeRotation) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeRotation) Snapshot() rotation.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rotation.Snapshot{
		State:  rotation.StateScheduled,
		Config: rotation.Configuration{Directory: "/walls", Paused: f.paused},
		Runs:   len(f.ops),
	}
}

func (f *fakeRotation) Restart() error { return f.record("restart") }

func (f *fakeRotation) TriggerOverride(dir rotation.Direction) error {
	return f.record("override:" + string(dir))
}

func (f *fakeRotation) SetPaused(p bool) error {
	f.mu.Lock()
	f.paused = p
	f.mu.Unlock()
	if p {
		return f.record("pause")
	}
	return f.record("resume")
}

func (f *fakeRotation) TogglePaused() (bool, error) {
	f.mu.Lock()
	f.paused = !f.paused
	p := f.paused
	f.mu.Unlock()
	return p, f.record("toggle")
}

type nopController struct{}

func (nopController) Start() error { return nil }
func (nopController) Shutdown()    {}

func quiet() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestServer(t *testing.T, ctl *fakeRotation) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.New()
	srv := New(quiet())
	srv.SetEngine(engine.New(st, nopController{}, quiet()))
	srv.SetController(ctl)
	srv.SetRunningConfig(&daemon.RunningConfig{
		Settings:     config.Settings{WallpaperPath: "/walls", WallpaperTimer: 60},
		SettingsPath: "/cfg/settings.yml",
		Picker:       "wallpaper-picker",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRotation{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestCommandEndpoints(t *testing.T) {
	tests := []struct {
		command string
		op      string
	}{
		{daemon.CommandNext, "override:next"},
		{daemon.CommandPrev, "override:prev"},
		{daemon.CommandTogglePaused, "toggle"},
		{daemon.CommandPause, "pause"},
		{daemon.CommandResume, "resume"},
		{daemon.CommandRestart, "restart"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			ctl := &fakeRotation{}
			ts, _ := newTestServer(t, ctl)

			resp, err := http.Post(ts.URL+"/api/"+tt.command, "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			var snap rotation.Snapshot
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
			assert.Equal(t, rotation.StateScheduled, snap.State)
			assert.Equal(t, []string{tt.op}, ctl.Ops())
		})
	}
}

func TestCommandRequiresPost(t *testing.T) {
	ctl := &fakeRotation{}
	ts, _ := newTestServer(t, ctl)

	resp, err := http.Get(ts.URL + "/api/next")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Empty(t, ctl.Ops())
}

func TestCommandErrorBody(t *testing.T) {
	ctl := &fakeRotation{err: errors.Shutdown()}
	ts, _ := newTestServer(t, ctl)

	resp, err := http.Post(ts.URL+"/api/restart", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body errors.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, errors.ErrCodeShutdown, body.Code)
}

func TestStatusAndConfig(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRotation{})

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	var snap rotation.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.Equal(t, "/walls", snap.Config.Directory)

	resp, err = http.Get(ts.URL + "/api/config")
	require.NoError(t, err)
	var cfg daemon.RunningConfig
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))
	resp.Body.Close()
	assert.Equal(t, 60, cfg.Settings.WallpaperTimer)
	assert.Equal(t, "wallpaper-picker", cfg.Picker)
}

func TestStreamStatus(t *testing.T) {
	ts, st := newTestServer(t, &fakeRotation{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := make(chan daemon.StatusUpdate, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var u daemon.StatusUpdate
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &u) == nil {
				events <- u
			}
		}
	}()

	initial := <-events
	assert.Equal(t, daemon.UpdateInitial, initial.UpdateType)
	require.NotNil(t, initial.Snapshot)

	// The subscription exists once the initial event was written.
	st.BroadcastSettingsReload("settings.yml")

	select {
	case u := <-events:
		assert.Equal(t, daemon.UpdateSettingsReload, u.UpdateType)
		assert.Equal(t, "settings.yml", u.SettingsFile)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload event")
	}
}

func TestWebSocketCommands(t *testing.T) {
	ctl := &fakeRotation{}
	ts, st := newTestServer(t, ctl)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial daemon.StatusUpdate
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, daemon.UpdateInitial, initial.UpdateType)

	require.NoError(t, conn.WriteJSON(daemon.WSCommand{Command: daemon.CommandPrev}))
	var reply daemon.WSReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, daemon.UpdateReply, reply.UpdateType)
	assert.Equal(t, daemon.CommandPrev, reply.Command)
	require.NotNil(t, reply.Snapshot)
	assert.Equal(t, []string{"override:prev"}, ctl.Ops())

	require.NoError(t, conn.WriteJSON(daemon.WSCommand{Command: "sideways"}))
	reply = daemon.WSReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, string(errors.ErrCodeInvalidInput), reply.Code)

	st.ApplyUpdate(store.Update{Type: store.UpdateStatus, Snapshot: &rotation.Snapshot{State: rotation.StateIdle, Reason: rotation.ReasonPaused}})
	var pushed daemon.StatusUpdate
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, daemon.UpdateStatus, pushed.UpdateType)
	assert.Equal(t, rotation.ReasonPaused, pushed.Snapshot.Reason)
}

func TestMetricsRoute(t *testing.T) {
	ts, _ := newTestServer(t, &fakeRotation{})
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	srv := New(quiet())
	srv.SetMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "wallcycle_state 1\n")
	}))
	ts2 := httptest.NewServer(srv.Handler())
	defer ts2.Close()

	resp, err = http.Get(ts2.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "wallcycle_state 1\n", string(body))
}
