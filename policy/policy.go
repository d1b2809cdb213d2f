// Package policy defines the boundary between the pool's concurrency
// engine and application code: creation of resource values, capacity and
// timeout configuration, and the pre/post lifecycle hooks the pool calls
// out to. Nothing in this package is thread-unsafe to call concurrently;
// the pool never holds a lock across a call into it except, briefly, the
// capacity-growth gate around OnCreate.
package policy

import "time"

// Policy is the sole collaborator interface the pool depends on. An
// application supplies one Policy[T] per pool; Base[T] (below) supplies
// sane defaults for everything so a caller usually only needs to set
// Options and OnCreate.
type Policy[T any] interface {
	// Name labels the pool in log messages.
	Name() string

	// PoolSize is the hard upper bound on total slots the pool will grow to.
	PoolSize() int

	// SyncGetTimeout is the default timeout for a blocking Acquire that
	// does not specify its own.
	SyncGetTimeout() time.Duration

	// AsyncGetCapacity limits the deferred waiter queue: AcquireDeferred
	// refuses to enrol once capacity-1 waiters are queued, so at most
	// capacity-1 are enrolled at a time. Zero disables the limit.
	AsyncGetCapacity() int

	// CheckInterval is the recovery probe period.
	CheckInterval() time.Duration

	// ThrowOnGetTimeout selects whether a blocking Acquire that abandons
	// reports ErrTimeout (true) or returns a nil slot with no error (false).
	ThrowOnGetTimeout() bool

	// OnCreate produces a fresh resource value. Called while the
	// capacity-growth gate has already reserved the slot.
	OnCreate() (T, error)

	// OnDestroy optionally releases resources held by value when a slot is
	// recreated via Release(slot, true).
	OnDestroy(value T)

	// OnGet runs before a synchronously-acquired slot is handed to the
	// caller. A non-nil error forces the slot back through Release and is
	// propagated to the caller of Acquire.
	OnGet(value T) error

	// OnGetAsync is the deferred-acquire analogue of OnGet.
	OnGetAsync(value T) error

	// OnReturn runs only on the no-waiter path of Release, just before the
	// slot is pushed to the free list.
	OnReturn(value T) error

	// OnGetTimeout notifies the Policy that a blocking Acquire abandoned.
	OnGetTimeout()

	// OnUnavailable notifies the Policy of an Available -> Unavailable
	// transition.
	OnUnavailable()

	// OnAvailable notifies the Policy of an Unavailable -> Available
	// transition.
	OnAvailable()

	// OnCheckAvailable is the recovery probe predicate. False or a panic
	// recovered by the probe means the provider is still down.
	OnCheckAvailable(value T) bool
}

// Options carries the scalar configuration a Policy exposes. Embed it in a
// custom Policy implementation, or pass it to NewBase to get one with
// working defaults.
type Options struct {
	// Name labels the pool in log messages. Defaults to "pool".
	Name string

	// PoolSize is the hard upper bound on total slots. Must be >= 1.
	PoolSize int

	// SyncGetTimeout is the default blocking-acquire timeout. Defaults to
	// 30s if zero.
	SyncGetTimeout time.Duration

	// AsyncGetCapacity bounds the deferred waiter queue. Zero means
	// unbounded.
	AsyncGetCapacity int

	// CheckInterval is the recovery probe period. Defaults to 5s if zero.
	CheckInterval time.Duration

	// ThrowOnGetTimeout selects ErrTimeout vs. a nil-slot sentinel on
	// blocking-acquire abandonment.
	ThrowOnGetTimeout bool
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "pool"
	}
	if o.SyncGetTimeout <= 0 {
		o.SyncGetTimeout = 30 * time.Second
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = 5 * time.Second
	}
	return o
}

// Hooks are the lifecycle callbacks a Base[T] forwards to when non-nil. A
// nil hook becomes a no-op (or, for OnCheckAvailable, a predicate that
// always reports available).
type Hooks[T any] struct {
	OnCreate         func() (T, error)
	OnDestroy        func(T)
	OnGet            func(T) error
	OnGetAsync       func(T) error
	OnReturn         func(T) error
	OnGetTimeout     func()
	OnUnavailable    func()
	OnAvailable      func()
	OnCheckAvailable func(T) bool
}

// Base is a ready-to-embed Policy[T] implementation: it satisfies the full
// interface using Options for configuration and Hooks for the optional
// callbacks, so a caller typically only sets Options.PoolSize and
// Hooks.OnCreate and leaves the rest at their defaults.
type Base[T any] struct {
	Options
	Hooks[T]
}

// NewBase builds a Base[T] with defaulted Options and the given OnCreate
// hook, the one callback every pool needs.
func NewBase[T any](opts Options, onCreate func() (T, error)) *Base[T] {
	return &Base[T]{
		Options: opts.withDefaults(),
		Hooks:   Hooks[T]{OnCreate: onCreate},
	}
}

func (b *Base[T]) Name() string                     { return b.Options.Name }
func (b *Base[T]) PoolSize() int                     { return b.Options.PoolSize }
func (b *Base[T]) SyncGetTimeout() time.Duration     { return b.Options.SyncGetTimeout }
func (b *Base[T]) AsyncGetCapacity() int             { return b.Options.AsyncGetCapacity }
func (b *Base[T]) CheckInterval() time.Duration      { return b.Options.CheckInterval }
func (b *Base[T]) ThrowOnGetTimeout() bool           { return b.Options.ThrowOnGetTimeout }

func (b *Base[T]) OnCreate() (T, error) {
	if b.Hooks.OnCreate != nil {
		return b.Hooks.OnCreate()
	}
	var zero T
	return zero, nil
}

func (b *Base[T]) OnDestroy(value T) {
	if b.Hooks.OnDestroy != nil {
		b.Hooks.OnDestroy(value)
	}
}

func (b *Base[T]) OnGet(value T) error {
	if b.Hooks.OnGet != nil {
		return b.Hooks.OnGet(value)
	}
	return nil
}

func (b *Base[T]) OnGetAsync(value T) error {
	if b.Hooks.OnGetAsync != nil {
		return b.Hooks.OnGetAsync(value)
	}
	return nil
}

func (b *Base[T]) OnReturn(value T) error {
	if b.Hooks.OnReturn != nil {
		return b.Hooks.OnReturn(value)
	}
	return nil
}

func (b *Base[T]) OnGetTimeout() {
	if b.Hooks.OnGetTimeout != nil {
		b.Hooks.OnGetTimeout()
	}
}

func (b *Base[T]) OnUnavailable() {
	if b.Hooks.OnUnavailable != nil {
		b.Hooks.OnUnavailable()
	}
}

func (b *Base[T]) OnAvailable() {
	if b.Hooks.OnAvailable != nil {
		b.Hooks.OnAvailable()
	}
}

func (b *Base[T]) OnCheckAvailable(value T) bool {
	if b.Hooks.OnCheckAvailable != nil {
		return b.Hooks.OnCheckAvailable(value)
	}
	return true
}
