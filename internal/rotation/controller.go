// Package rotation owns the wallpaper rotation timer.
//
// A Controller runs every operation and every timer firing on a single loop
// goroutine, so at most one timer is armed and at most one picker invocation
// is in flight at any time. Public methods post work into the loop and wait
// for it to finish.
package rotation

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/wallcycle/errors"
	"github.com/grovetools/wallcycle/logging"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Invoker runs the external picker and returns its status line. It never
// fails: errors are logged by the implementation and yield "".
type Invoker interface {
	Invoke(ctx context.Context, directory, modeOrDelay string) string
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, directory, modeOrDelay string) string

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, directory, modeOrDelay string) string {
	return f(ctx, directory, modeOrDelay)
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock drives both timers and timestamps from clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.scheduler = NewClockScheduler(clock)
		c.now = clock.Now
	}
}

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithStat replaces the function used to check the wallpaper directory.
func WithStat(stat StatFunc) Option {
	return func(c *Controller) { c.stat = stat }
}

// WithLogger replaces the controller logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Controller) { c.logger = logger }
}

type request struct {
	fn    func() error
	reply chan error
}

// Controller schedules picker invocations.
type Controller struct {
	invoker   Invoker
	scheduler Scheduler
	stat      StatFunc
	now       func() time.Time
	logger    *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	requests chan request
	fires    chan uint64
	done     chan struct{}
	exited   chan struct{}

	shutdownOnce sync.Once

	// Owned by the loop goroutine.
	config    Configuration
	timer     Handle
	gen       uint64
	status    RotationStatus
	state     State
	reason    string
	nextRunAt time.Time
	runs      int
	started   bool
	stopped   bool

	mu        sync.RWMutex
	snapshot  Snapshot
	observers []func(Snapshot)
}

// New creates a controller for the initial configuration and starts its
// loop. No timer is armed until Start or Restart is called.
func New(invoker Invoker, initial Configuration, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		invoker:  invoker,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		requests: make(chan request),
		fires:    make(chan uint64, 1),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
		config:   initial,
		state:    StateIdle,
		reason:   ReasonNew,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = NewClockScheduler(nil)
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("rotation")
	}
	c.snapshot = c.buildSnapshot()

	go c.loop()
	return c
}

func (c *Controller) loop() {
	defer close(c.exited)
	for {
		select {
		case <-c.done:
			return
		case req := <-c.requests:
			if c.stopped {
				req.reply <- errors.Shutdown()
				continue
			}
			req.reply <- req.fn()
		case gen := <-c.fires:
			c.fire(gen)
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (c *Controller) do(fn func() error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-c.done:
		return errors.Shutdown()
	}
	return <-req.reply
}

// Start arms the rotation for the first time. Later calls are no-ops.
func (c *Controller) Start() error {
	return c.do(func() error {
		if c.started {
			return nil
		}
		c.started = true
		c.restart()
		return nil
	})
}

// Restart cancels the pending timer and, unless paused or misconfigured,
// invokes the picker with the configured delay and arms the next timer.
func (c *Controller) Restart() error {
	return c.do(func() error {
		c.restart()
		return nil
	})
}

// TriggerOverride rotates immediately in the given direction. It always
// clears pause and re-arms the timer; the picker only runs when the
// configuration is valid.
func (c *Controller) TriggerOverride(dir Direction) error {
	if dir != Next && dir != Prev {
		return errors.InvalidInput("direction", string(dir), "must be next or prev")
	}
	return c.do(func() error {
		c.cancelTimer()
		c.config = c.config.WithPaused(false)
		if c.config.Valid(c.stat) {
			c.invoke(string(dir))
		} else {
			c.logger.WithField("direction", dir).Debug("Skipping override: invalid configuration")
		}
		c.arm(c.config.Interval)
		return nil
	})
}

// SetPaused stores the pause flag and restarts so the timer is armed or
// disarmed immediately.
func (c *Controller) SetPaused(paused bool) error {
	return c.do(func() error {
		c.config = c.config.WithPaused(paused)
		c.restart()
		return nil
	})
}

// TogglePaused flips the pause flag and returns the new value.
func (c *Controller) TogglePaused() (bool, error) {
	var paused bool
	err := c.do(func() error {
		paused = !c.config.Paused
		c.config = c.config.WithPaused(paused)
		c.restart()
		return nil
	})
	return paused, err
}

// Update replaces the configuration with fn(current). It has no other
// effect; callers decide whether to restart.
func (c *Controller) Update(fn func(Configuration) Configuration) error {
	return c.do(func() error {
		c.config = fn(c.config)
		c.publish()
		return nil
	})
}

// Stop cancels the pending timer without invoking the picker.
func (c *Controller) Stop() error {
	return c.do(func() error {
		c.cancelTimer()
		c.setIdle(ReasonStopped)
		return nil
	})
}

// Shutdown cancels the pending timer and stops the loop. An in-flight
// invocation is cancelled. Shutdown is idempotent; every later operation
// returns a SHUTDOWN error.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.cancel()
		_ = c.do(func() error {
			c.cancelTimer()
			c.stopped = true
			c.state = StateStopped
			c.reason = ""
			c.publish()
			return nil
		})
		close(c.done)
		<-c.exited
	})
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Configuration returns the current configuration snapshot.
func (c *Controller) Configuration() Configuration {
	return c.Snapshot().Config
}

// Status returns the outcome of the last invocation.
func (c *Controller) Status() RotationStatus {
	return c.Snapshot().Status
}

// OnChange registers fn to be called on the loop goroutine after every
// state change. fn must not call back into the controller.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) restart() {
	c.cancelTimer()
	if c.config.Paused {
		c.setIdle(ReasonPaused)
		return
	}
	if !c.config.Valid(c.stat) {
		c.logger.WithField("directory", c.config.Directory).Debug("Rotation disabled: invalid configuration")
		c.setIdle(ReasonInvalid)
		return
	}
	c.invoke(c.config.DelayArg())
	c.arm(c.config.Interval)
}

func (c *Controller) fire(gen uint64) {
	if c.stopped || gen != c.gen {
		c.logger.WithField("generation", gen).Debug("Discarding stale timer")
		return
	}
	c.restart()
}

func (c *Controller) invoke(mode string) {
	c.state = StateRunning
	c.reason = ""
	c.publish()

	label := c.invoker.Invoke(c.ctx, c.config.Directory, mode)
	c.status = RotationStatus{LastChangedLabel: label, LastRunAt: c.now()}
	c.runs++
}

// arm cancels any pending timer and schedules the next firing.
func (c *Controller) arm(interval time.Duration) {
	c.cancelTimer()
	if interval <= 0 {
		interval = DefaultInterval
	}

	c.gen++
	gen := c.gen
	c.logger.Infof("Setting timeout (%ds)", int64(interval/time.Second))
	c.timer = c.scheduler.AfterFunc(interval, func() { c.post(gen) })
	c.nextRunAt = c.now().Add(interval)
	c.state = StateScheduled
	c.reason = ""
	c.publish()
}

// post hands a timer firing to the loop. It runs on the timer goroutine.
func (c *Controller) post(gen uint64) {
	select {
	case c.fires <- gen:
	case <-c.done:
	}
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.logger.Info("Timeout removed")
	}
	// Firings already queued for the old generation are now stale.
	c.gen++
	c.nextRunAt = time.Time{}
}

func (c *Controller) setIdle(reason string) {
	c.state = StateIdle
	c.reason = reason
	c.publish()
}

func (c *Controller) buildSnapshot() Snapshot {
	s := Snapshot{
		State:  c.state,
		Reason: c.reason,
		Config: c.config,
		Status: c.status,
		Runs:   c.runs,
	}
	if !c.nextRunAt.IsZero() {
		next := c.nextRunAt
		s.NextRunAt = &next
	}
	return s
}

func (c *Controller) publish() {
	snap := c.buildSnapshot()

	c.mu.Lock()
	c.snapshot = snap
	observers := append([]func(Snapshot){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
