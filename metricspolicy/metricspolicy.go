// Package metricspolicy decorates a policy.Policy[T] with StatsD metric
// emission, using a statsd.Client and string tags.
package metricspolicy

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/go-respool/respool/policy"
)

const (
	metricGetCount         = "pool.get.count"
	metricGetTimeoutCount  = "pool.get.timeout_count"
	metricUnavailableCount = "pool.unavailable.count"
	metricAvailableCount   = "pool.available.count"
	metricCreateLatency    = "pool.create.latency"
)

// Decorator wraps a policy.Policy[T]. OnCreate, OnGet, OnGetAsync,
// OnGetTimeout, OnUnavailable and OnAvailable delegate to the wrapped
// Policy and then emit a StatsD metric; every other method passes straight
// through to the wrapped Policy without a metric. A nil client
// makes every emission a no-op, so metrics stay optional without extra
// branching at call sites.
type Decorator[T any] struct {
	policy.Policy[T]
	client *statsd.Client
	tags   []string
}

// New wraps inner with metric emission tagged with the given StatsD tags
// (e.g. "pool:redis-conns", "env:prod").
func New[T any](inner policy.Policy[T], client *statsd.Client, tags ...string) *Decorator[T] {
	return &Decorator[T]{Policy: inner, client: client, tags: tags}
}

func (d *Decorator[T]) OnCreate() (T, error) {
	start := time.Now()
	v, err := d.Policy.OnCreate()
	if d.client != nil {
		d.client.Timing(metricCreateLatency, time.Since(start), d.tags, 1)
	}
	return v, err
}

func (d *Decorator[T]) OnGet(value T) error {
	err := d.Policy.OnGet(value)
	if d.client != nil {
		d.client.Incr(metricGetCount, d.tags, 1)
	}
	return err
}

func (d *Decorator[T]) OnGetAsync(value T) error {
	err := d.Policy.OnGetAsync(value)
	if d.client != nil {
		d.client.Incr(metricGetCount, d.tags, 1)
	}
	return err
}

func (d *Decorator[T]) OnGetTimeout() {
	d.Policy.OnGetTimeout()
	if d.client != nil {
		d.client.Incr(metricGetTimeoutCount, d.tags, 1)
	}
}

func (d *Decorator[T]) OnUnavailable() {
	d.Policy.OnUnavailable()
	if d.client != nil {
		d.client.Incr(metricUnavailableCount, d.tags, 1)
	}
}

func (d *Decorator[T]) OnAvailable() {
	d.Policy.OnAvailable()
	if d.client != nil {
		d.client.Incr(metricAvailableCount, d.tags, 1)
	}
}
