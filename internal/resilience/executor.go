package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ExecutorConfig holds configuration for an Executor.
type ExecutorConfig struct {
	// Name identifies the dependency.
	Name string

	// Timeout bounds each attempt. Zero leaves attempts unbounded.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	InitialInterval time.Duration
	MaxInterval     time.Duration

	// CircuitBreaker defaults to DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, receives the executor and its outcomes.
	Registry *Registry
}

// DefaultExecutorConfig returns the standard retry settings.
func DefaultExecutorConfig(name string) ExecutorConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ExecutorConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cb,
	}
}

// Executor runs operations with retries behind a circuit breaker.
type Executor struct {
	cfg      ExecutorConfig
	breaker  *gobreaker.CircuitBreaker[struct{}]
	registry *Registry
}

// NewExecutor creates an executor and registers it when a registry is set.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	cbCfg := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbCfg = *cfg.CircuitBreaker
	}

	e := &Executor{
		cfg:      cfg,
		breaker:  NewCircuitBreaker[struct{}](cbCfg),
		registry: cfg.Registry,
	}
	if e.registry != nil {
		e.registry.Register(cfg.Name, e)
	}
	return e
}

// Name returns the dependency name.
func (e *Executor) Name() string {
	return e.cfg.Name
}

// State returns the breaker state.
func (e *Executor) State() gobreaker.State {
	return e.breaker.State()
}

// Counts returns the breaker counts.
func (e *Executor) Counts() gobreaker.Counts {
	return e.breaker.Counts()
}

// Do runs op until it succeeds, returns a Permanent error, retries run out
// or ctx is done. It fails fast with ErrCircuitOpen while the breaker is
// open.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.InitialInterval
	bo.MaxInterval = e.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	attempt := func() error {
		_, err := e.breaker.Execute(func() (struct{}, error) {
			attemptCtx := ctx
			if e.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
				defer cancel()
			}
			return struct{}{}, op(attemptCtx)
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		return err
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, e.cfg.MaxRetries), ctx))
	if e.registry != nil {
		if err != nil {
			e.registry.RecordFailure(e.cfg.Name, err)
		} else {
			e.registry.RecordSuccess(e.cfg.Name)
		}
	}
	return err
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
