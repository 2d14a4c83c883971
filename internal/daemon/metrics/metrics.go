// Package metrics exports rotation activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/grovetools/wallcycle/internal/rotation"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trigger labels of wallcycle_invocations_total.
const (
	TriggerNext  = "next"
	TriggerPrev  = "prev"
	TriggerTimed = "timed"
)

// Result labels of wallcycle_invocations_total.
const (
	ResultStatus   = "status"
	ResultNoStatus = "no_status"
)

var states = []rotation.State{
	rotation.StateIdle, rotation.StateScheduled, rotation.StateRunning, rotation.StateStopped,
}

// Recorder owns the wallcycle metrics and their registry.
type Recorder struct {
	registry    *prom.Registry
	invocations *prom.CounterVec
	duration    *prom.HistogramVec
	state       *prom.GaugeVec
	nextRun     prom.Gauge
}

// New registers the rotation metrics on reg, or on a fresh registry when
// reg is nil. Go runtime and process collectors are added as well.
func New(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		invocations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wallcycle",
			Name:      "invocations_total",
			Help:      "Picker invocations by trigger and whether a status line was printed",
		}, []string{"trigger", "result"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "wallcycle",
			Name:      "invocation_duration_seconds",
			Help:      "Duration of picker invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"trigger"}),
		state: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "wallcycle",
			Name:      "state",
			Help:      "1 for the current controller state, 0 otherwise",
		}, []string{"state"}),
		nextRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: "wallcycle",
			Name:      "next_run_timestamp_seconds",
			Help:      "Unix time of the next scheduled rotation, 0 when none is armed",
		}),
	}
	reg.MustRegister(r.invocations, r.duration, r.state, r.nextRun)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return r
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Trigger maps the picker's mode argument to a trigger label.
func Trigger(modeOrDelay string) string {
	switch modeOrDelay {
	case string(rotation.Next):
		return TriggerNext
	case string(rotation.Prev):
		return TriggerPrev
	}
	return TriggerTimed
}

type instrumented struct {
	rec  *Recorder
	next rotation.Invoker
}

func (i instrumented) Invoke(ctx context.Context, directory, modeOrDelay string) string {
	trigger := Trigger(modeOrDelay)
	start := time.Now()
	label := i.next.Invoke(ctx, directory, modeOrDelay)
	i.rec.duration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())

	result := ResultStatus
	if label == "" {
		result = ResultNoStatus
	}
	i.rec.invocations.WithLabelValues(trigger, result).Inc()
	return label
}

// Instrument wraps inv so that every invocation is counted and timed.
func (r *Recorder) Instrument(inv rotation.Invoker) rotation.Invoker {
	return instrumented{rec: r, next: inv}
}

// Observe records a controller snapshot. Register it with
// rotation.Controller.OnChange.
func (r *Recorder) Observe(s rotation.Snapshot) {
	for _, st := range states {
		v := 0.0
		if st == s.State {
			v = 1
		}
		r.state.WithLabelValues(string(st)).Set(v)
	}
	if s.NextRunAt != nil {
		r.nextRun.Set(float64(s.NextRunAt.Unix()))
	} else {
		r.nextRun.Set(0)
	}
}

// ObserveReloads exports a settings reload count read at scrape time.
func (r *Recorder) ObserveReloads(count func() int) {
	r.registry.MustRegister(prom.NewCounterFunc(prom.CounterOpts{
		Namespace: "wallcycle",
		Name:      "settings_reloads_total",
		Help:      "Settings file reloads seen by the daemon",
	}, func() float64 { return float64(count()) }))
}
