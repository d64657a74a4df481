// Package monitoring holds the Prometheus collectors that describe the
// controller lifecycle and notification dispatch. A Context is built and
// destroyed explicitly by the host.
package monitoring

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cpmanager/internal/manager"
	"cpmanager/pkg/types"
)

const namespace = "cpmanager"

// Config configures a Context.
type Config struct {
	// Registerer receives the collectors; prometheus.DefaultRegisterer when nil.
	Registerer  prometheus.Registerer
	ServiceName string
	AdapterName string
}

// Context owns the lifecycle and dispatch collectors.
type Context struct {
	reg prometheus.Registerer

	state         *prometheus.GaugeVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	dispatch      *prometheus.HistogramVec

	mu        sync.Mutex
	destroyed bool
}

var _ manager.EventPublisher = (*Context)(nil)

// New registers the collectors. It fails if they are already registered on
// cfg.Registerer.
func New(cfg Config) (*Context, error) {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"service": cfg.ServiceName, "adapter": cfg.AdapterName}
	c := &Context{
		reg: reg,
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "lifecycle",
			Name:        "state",
			Help:        "1 for the current component state, 0 otherwise",
			ConstLabels: labels,
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "lifecycle",
			Name:        "events_total",
			Help:        "Lifecycle events by name",
			ConstLabels: labels,
		}, []string{"event"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "notify",
			Name:        "dispatch_total",
			Help:        "Dispatched scheduling block notifications by backend and outcome",
			ConstLabels: labels,
		}, []string{"backend", "outcome"}),
		dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "notify",
			Name:        "dispatch_duration_seconds",
			Help:        "Duration of notification delivery in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"backend"}),
	}
	registered := make([]prometheus.Collector, 0, 4)
	for _, col := range c.collectors() {
		if err := reg.Register(col); err != nil {
			for _, r := range registered {
				reg.Unregister(r)
			}
			return nil, err
		}
		registered = append(registered, col)
	}
	c.setState(types.StateLoaded)
	return c, nil
}

func (c *Context) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.state, c.transitions, c.notifications, c.dispatch}
}

// Publish records a lifecycle event.
func (c *Context) Publish(e manager.Event) {
	if c.isDestroyed() {
		return
	}
	c.transitions.WithLabelValues(e.Name).Inc()
	c.setState(e.State)
}

// ObserveDispatch records one notification dispatch.
func (c *Context) ObserveDispatch(backend, outcome string, d time.Duration) {
	if c.isDestroyed() {
		return
	}
	c.notifications.WithLabelValues(backend, outcome).Inc()
	if d > 0 {
		c.dispatch.WithLabelValues(backend).Observe(d.Seconds())
	}
}

// Destroy unregisters the collectors. Later calls are no-ops.
func (c *Context) Destroy() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.destroyed = true
	c.mu.Unlock()
	var errs []error
	for _, col := range c.collectors() {
		if !c.reg.Unregister(col) {
			errs = append(errs, errors.New("monitoring: collector was not registered"))
		}
	}
	return errors.Join(errs...)
}

func (c *Context) setState(s types.ComponentState) {
	for _, st := range []types.ComponentState{types.StateLoaded, types.StateStandby, types.StateOnline} {
		v := 0.0
		if st == s {
			v = 1
		}
		c.state.WithLabelValues(st.String()).Set(v)
	}
}

func (c *Context) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
