package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker exposes circuit breaker state. *Executor satisfies it.
type Breaker interface {
	State() gobreaker.State
	Counts() gobreaker.Counts
}

// Health is a dependency's health status.
type Health struct {
	Name          string           `json:"name"`
	CircuitState  gobreaker.State  `json:"-"`
	State         string           `json:"state"`
	Counts        gobreaker.Counts `json:"-"`
	LastSuccessAt *time.Time       `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time       `json:"lastFailureAt,omitempty"`
	LastError     string           `json:"lastError,omitempty"`
}

// IsHealthy returns true when the circuit is closed.
func (h *Health) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded returns true when the circuit is half-open.
func (h *Health) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy returns true when the circuit is open.
func (h *Health) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry tracks dependencies and their recent outcomes.
type Registry struct {
	mu   sync.RWMutex
	deps map[string]*registered
}

type registered struct {
	breaker       Breaker
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{deps: make(map[string]*registered)}
}

// Register adds or replaces a dependency.
func (r *Registry) Register(name string, b Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[name] = &registered{breaker: b}
}

// Unregister removes a dependency.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deps, name)
}

// RecordSuccess records a successful call.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.deps[name]; ok {
		now := time.Now()
		d.lastSuccessAt = &now
	}
}

// RecordFailure records a failed call.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.deps[name]; ok {
		now := time.Now()
		d.lastFailureAt = &now
		if err != nil {
			d.lastError = err.Error()
		}
	}
}

// Health returns one dependency's health, or nil when it is unknown.
func (r *Registry) Health(name string) *Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.deps[name]
	if !ok {
		return nil
	}
	return d.health(name)
}

// AllHealth returns every dependency's health ordered by name.
func (r *Registry) AllHealth() []*Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Health, 0, len(r.deps))
	for name, d := range r.deps {
		out = append(out, d.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered dependencies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.deps)
}

func (d *registered) health(name string) *Health {
	state := d.breaker.State()
	return &Health{
		Name:          name,
		CircuitState:  state,
		State:         state.String(),
		Counts:        d.breaker.Counts(),
		LastSuccessAt: d.lastSuccessAt,
		LastFailureAt: d.lastFailureAt,
		LastError:     d.lastError,
	}
}
