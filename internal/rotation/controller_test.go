package rotation

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/wallcycle/errors"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	dir  string
	mode string
}

type fakeInvoker struct {
	mu     sync.Mutex
	calls  []call
	result string
}

func (f *fakeInvoker) Invoke(_ context.Context, dir, mode string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{dir, mode})
	return f.result
}

func (f *fakeInvoker) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeInvoker) SetResult(r string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = r
}

type fakeHandle struct {
	s       *fakeScheduler
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (h *fakeHandle) Stop() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.stopped || h.fired {
		return false
	}
	h.stopped = true
	h.s.cancels++
	return true
}

// fakeScheduler records every armed timer and lets tests fire them by hand.
type fakeScheduler struct {
	mu      sync.Mutex
	handles []*fakeHandle
	cancels int
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &fakeHandle{s: s, d: d, fn: fn}
	s.handles = append(s.handles, h)
	return h
}

func (s *fakeScheduler) Arms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *fakeScheduler) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

func (s *fakeScheduler) Live() []*fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live []*fakeHandle
	for _, h := range s.handles {
		if !h.stopped && !h.fired {
			live = append(live, h)
		}
	}
	return live
}

func (s *fakeScheduler) Last() *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return nil
	}
	return s.handles[len(s.handles)-1]
}

// Fire runs the callback of h as the timer goroutine would.
func (s *fakeScheduler) Fire(h *fakeHandle) {
	s.mu.Lock()
	h.fired = true
	s.mu.Unlock()
	h.fn()
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type harness struct {
	ctl   *Controller
	inv   *fakeInvoker
	sched *fakeScheduler
	dir   string
}

func newHarness(t *testing.T, cfg func(dir string) Configuration) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		inv:   &fakeInvoker{result: "Last changed 10:05"},
		sched: &fakeScheduler{},
		dir:   dir,
	}
	h.ctl = New(h.inv, cfg(dir), WithScheduler(h.sched), WithLogger(quietLogger()))
	t.Cleanup(h.ctl.Shutdown)
	return h
}

func validConfig(dir string) Configuration {
	return Configuration{Directory: dir, Delay: 5 * time.Second, Interval: 10 * time.Second}
}

func TestRestartValidConfiguration(t *testing.T) {
	h := newHarness(t, validConfig)

	require.NoError(t, h.ctl.Restart())

	assert.Equal(t, []call{{h.dir, "5"}}, h.inv.Calls())
	require.Len(t, h.sched.Live(), 1)
	assert.Equal(t, 10*time.Second, h.sched.Last().d)

	snap := h.ctl.Snapshot()
	assert.Equal(t, StateScheduled, snap.State)
	assert.Equal(t, "Last changed 10:05", snap.Status.LastChangedLabel)
	assert.False(t, snap.Status.LastRunAt.IsZero())
	assert.NotNil(t, snap.NextRunAt)
	assert.Equal(t, 1, snap.Runs)
}

func TestRestartMissingDirectory(t *testing.T) {
	h := newHarness(t, func(dir string) Configuration {
		return Configuration{Directory: filepath.Join(dir, "missing"), Delay: 5 * time.Second, Interval: 10 * time.Second}
	})

	require.NoError(t, h.ctl.Restart())

	assert.Empty(t, h.inv.Calls())
	assert.Zero(t, h.sched.Arms())
	snap := h.ctl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, ReasonInvalid, snap.Reason)
}

func TestRestartWhilePausedNeverInvokes(t *testing.T) {
	h := newHarness(t, func(dir string) Configuration {
		return validConfig(dir).WithPaused(true)
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, h.ctl.Restart())
	}

	assert.Empty(t, h.inv.Calls())
	assert.Empty(t, h.sched.Live())
	assert.Equal(t, ReasonPaused, h.ctl.Snapshot().Reason)
}

func TestRestartInvalidConfigurationRegardlessOfPause(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Configuration) Configuration
	}{
		{"zero delay", func(c Configuration) Configuration { return c.WithDelay(0) }},
		{"zero interval", func(c Configuration) Configuration { return c.WithInterval(0) }},
		{"sub-second delay", func(c Configuration) Configuration { return c.WithDelay(500 * time.Millisecond) }},
		{"empty directory", func(c Configuration) Configuration { return c.WithDirectory("") }},
		{"missing directory", func(c Configuration) Configuration { return c.WithDirectory(filepath.Join(c.Directory, "nope")) }},
	}

	for _, tt := range tests {
		for _, paused := range []bool{false, true} {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t, func(dir string) Configuration {
					return tt.mutate(validConfig(dir)).WithPaused(paused)
				})

				require.NoError(t, h.ctl.Restart())

				assert.Empty(t, h.inv.Calls())
				assert.Empty(t, h.sched.Live())
				assert.Equal(t, StateIdle, h.ctl.Snapshot().State)
			})
		}
	}
}

func TestAtMostOneLiveTimer(t *testing.T) {
	h := newHarness(t, validConfig)

	ops := []func() error{
		h.ctl.Start,
		h.ctl.Restart,
		h.ctl.Restart,
		func() error { return h.ctl.TriggerOverride(Next) },
		func() error { return h.ctl.SetPaused(true) },
		func() error { return h.ctl.TriggerOverride(Prev) },
		func() error { return h.ctl.SetPaused(false) },
		h.ctl.Restart,
		h.ctl.Stop,
		h.ctl.Restart,
	}

	for i, op := range ops {
		require.NoError(t, op())
		assert.LessOrEqual(t, len(h.sched.Live()), 1, "after op %d", i)
		assert.GreaterOrEqual(t, h.sched.Cancels(), h.sched.Arms()-1, "after op %d", i)
	}
}

func TestSetPausedCancelsTimer(t *testing.T) {
	h := newHarness(t, validConfig)
	require.NoError(t, h.ctl.Restart())
	require.Len(t, h.sched.Live(), 1)
	armed := h.sched.Last()

	require.NoError(t, h.ctl.SetPaused(true))

	assert.True(t, armed.stopped)
	assert.Empty(t, h.sched.Live())
	assert.Equal(t, 1, h.sched.Arms())
	assert.Len(t, h.inv.Calls(), 1)
	assert.True(t, h.ctl.Configuration().Paused)
	assert.Nil(t, h.ctl.Snapshot().NextRunAt)
}

func TestTriggerOverrideFromPaused(t *testing.T) {
	for _, dir := range []Direction{Next, Prev} {
		t.Run(string(dir), func(t *testing.T) {
			h := newHarness(t, func(d string) Configuration {
				return validConfig(d).WithPaused(true)
			})
			require.NoError(t, h.ctl.Start())
			require.Empty(t, h.inv.Calls())

			require.NoError(t, h.ctl.TriggerOverride(dir))

			assert.Equal(t, []call{{h.dir, string(dir)}}, h.inv.Calls())
			assert.False(t, h.ctl.Configuration().Paused)
			require.Len(t, h.sched.Live(), 1)
			assert.Equal(t, 10*time.Second, h.sched.Last().d)
			assert.Equal(t, StateScheduled, h.ctl.Snapshot().State)
		})
	}
}

func TestTriggerOverrideInvalidConfigurationStillArms(t *testing.T) {
	h := newHarness(t, func(dir string) Configuration {
		return Configuration{Directory: filepath.Join(dir, "missing"), Delay: 5 * time.Second, Paused: true}
	})

	require.NoError(t, h.ctl.TriggerOverride(Next))

	assert.Empty(t, h.inv.Calls())
	assert.False(t, h.ctl.Configuration().Paused)
	require.Len(t, h.sched.Live(), 1)
	assert.Equal(t, DefaultInterval, h.sched.Last().d)

	// The fallback timer's firing finds nothing to do and disarms.
	h.sched.Fire(h.sched.Last())
	require.Eventually(t, func() bool {
		return h.ctl.Snapshot().State == StateIdle
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.inv.Calls())
	assert.Empty(t, h.sched.Live())
}

func TestTriggerOverrideRejectsUnknownDirection(t *testing.T) {
	h := newHarness(t, func(dir string) Configuration {
		return validConfig(dir).WithPaused(true)
	})

	err := h.ctl.TriggerOverride(Direction("sideways"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.True(t, h.ctl.Configuration().Paused)
	assert.Empty(t, h.inv.Calls())
	assert.Zero(t, h.sched.Arms())
}

func TestInvocationFailureKeepsSchedule(t *testing.T) {
	h := newHarness(t, validConfig)
	require.NoError(t, h.ctl.Restart())
	assert.Equal(t, "Last changed 10:05", h.ctl.Status().LastChangedLabel)

	h.inv.SetResult("")
	require.NoError(t, h.ctl.Restart())

	assert.Equal(t, "", h.ctl.Status().LastChangedLabel)
	assert.Len(t, h.sched.Live(), 1)

	h.inv.SetResult("Last changed 11:00")
	require.NoError(t, h.ctl.Restart())
	assert.Equal(t, "Last changed 11:00", h.ctl.Status().LastChangedLabel)
	assert.Len(t, h.inv.Calls(), 3)
}

func TestTimerFiringRunsNextCycle(t *testing.T) {
	h := newHarness(t, validConfig)
	require.NoError(t, h.ctl.Start())
	first := h.sched.Last()

	h.sched.Fire(first)

	require.Eventually(t, func() bool { return len(h.inv.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.sched.Arms() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, call{h.dir, "5"}, h.inv.Calls()[1])
	assert.Len(t, h.sched.Live(), 1)
}

func TestStaleFiringIsDiscarded(t *testing.T) {
	h := newHarness(t, validConfig)
	require.NoError(t, h.ctl.Restart())
	stale := h.sched.Last()

	require.NoError(t, h.ctl.Restart())
	require.Len(t, h.inv.Calls(), 2)

	// A firing that lost the race with the cancel still reaches the loop.
	stale.fn()

	assert.Never(t, func() bool { return len(h.inv.Calls()) > 2 }, 100*time.Millisecond, 5*time.Millisecond)
	assert.Len(t, h.sched.Live(), 1)
}

func TestShutdown(t *testing.T) {
	h := newHarness(t, validConfig)
	require.NoError(t, h.ctl.Start())
	armed := h.sched.Last()

	h.ctl.Shutdown()
	h.ctl.Shutdown()

	assert.True(t, armed.stopped)
	assert.Empty(t, h.sched.Live())
	assert.Equal(t, StateStopped, h.ctl.Snapshot().State)

	assert.True(t, errors.Is(h.ctl.Restart(), errors.ErrCodeShutdown))
	assert.True(t, errors.Is(h.ctl.TriggerOverride(Next), errors.ErrCodeShutdown))
	assert.True(t, errors.Is(h.ctl.SetPaused(false), errors.ErrCodeShutdown))
	assert.True(t, errors.Is(h.ctl.Stop(), errors.ErrCodeShutdown))

	// A firing after shutdown must not block or invoke.
	armed.fn()
	assert.Len(t, h.inv.Calls(), 1)
	assert.Equal(t, 1, h.sched.Arms())
}

func TestShutdownCancelsInFlightInvocation(t *testing.T) {
	entered := make(chan struct{})
	inv := InvokerFunc(func(ctx context.Context, _, _ string) string {
		close(entered)
		<-ctx.Done()
		return ""
	})
	ctl := New(inv, validConfig(t.TempDir()), WithScheduler(&fakeScheduler{}), WithLogger(quietLogger()))

	go func() { _ = ctl.Restart() }()
	<-entered

	done := make(chan struct{})
	go func() {
		ctl.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown blocked behind a running invocation")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	h := newHarness(t, validConfig)

	require.NoError(t, h.ctl.Start())
	require.NoError(t, h.ctl.Start())

	assert.Len(t, h.inv.Calls(), 1)
	assert.Equal(t, 1, h.sched.Arms())
}

func TestUpdateHasNoSideEffects(t *testing.T) {
	h := newHarness(t, validConfig)

	require.NoError(t, h.ctl.Update(func(c Configuration) Configuration {
		return c.WithInterval(time.Minute)
	}))

	assert.Equal(t, time.Minute, h.ctl.Configuration().Interval)
	assert.Empty(t, h.inv.Calls())
	assert.Zero(t, h.sched.Arms())
}

func TestStopCancelsWithoutInvoking(t *testing.T) {
	h := newHarness(t, validConfig)
	require.NoError(t, h.ctl.Restart())

	require.NoError(t, h.ctl.Stop())

	assert.Empty(t, h.sched.Live())
	assert.Len(t, h.inv.Calls(), 1)
	snap := h.ctl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, ReasonStopped, snap.Reason)
}

func TestTogglePaused(t *testing.T) {
	h := newHarness(t, validConfig)

	paused, err := h.ctl.TogglePaused()
	require.NoError(t, err)
	assert.True(t, paused)
	assert.Empty(t, h.inv.Calls())

	paused, err = h.ctl.TogglePaused()
	require.NoError(t, err)
	assert.False(t, paused)
	assert.Len(t, h.inv.Calls(), 1)
	assert.Len(t, h.sched.Live(), 1)
}

func TestOnChangeSeesRunningState(t *testing.T) {
	h := newHarness(t, validConfig)

	var mu sync.Mutex
	var states []State
	h.ctl.OnChange(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	require.NoError(t, h.ctl.Restart())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateRunning, StateScheduled}, states)
}

func TestFakeClockDrivesRotation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inv := &fakeInvoker{result: "Last changed now"}
	dir := t.TempDir()
	ctl := New(inv, validConfig(dir), WithClock(clock), WithLogger(quietLogger()))
	defer ctl.Shutdown()

	require.NoError(t, ctl.Start())
	require.Len(t, inv.Calls(), 1)
	assert.Equal(t, clock.Now(), ctl.Status().LastRunAt)

	clock.Advance(9 * time.Second)
	assert.Never(t, func() bool { return len(inv.Calls()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return len(inv.Calls()) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ctl.SetPaused(true))
	clock.Advance(time.Hour)
	assert.Never(t, func() bool { return len(inv.Calls()) > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}
