package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alorle/catalog-ingest/metrics"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means syncs run normally
	StateClosed State = iota
	// StateOpen means syncs are rejected without contacting the provider
	StateOpen
	// StateHalfOpen means a trial sync decides whether to close again
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	FailureThreshold int              // Consecutive failed syncs before opening
	Timeout          time.Duration    // How long to stay OPEN before allowing a trial sync
	HalfOpenRequests int              // Trial syncs allowed in HALF-OPEN state
	Logger           *slog.Logger     // Logger for state changes (optional)
	Name             string           // Provider name for logs and metrics
	Now              func() time.Time // Clock, defaults to time.Now
}

// CircuitBreaker guards calls to one provider.
type CircuitBreaker interface {
	// Execute runs fn if the circuit allows it
	Execute(ctx context.Context, fn func(context.Context) error) error
	// State returns the current state of the circuit breaker
	State() State
	// Reset resets the circuit breaker to CLOSED state
	Reset()
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in OPEN state
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when a trial sync is already running
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

type breaker struct {
	config Config
	mu     sync.Mutex

	state             State
	failureCount      int
	halfOpenRequests  int
	halfOpenSuccesses int
	openedAt          time.Time
}

// New creates a new circuit breaker with the given configuration
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	metrics.SetCircuitBreakerState(cfg.Name, StateClosed.String())
	return &breaker{config: cfg, state: StateClosed}
}

// Execute runs fn if the circuit allows it. A cancelled or expired ctx is
// returned as is and never counts as a provider failure.
func (b *breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.acquire(); err != nil {
		return err
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(err, ctx.Err() != nil)
	return err
}

// acquire decides whether a call may proceed.
func (b *breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.config.Now().Sub(b.openedAt) >= b.config.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		retryIn := b.config.Timeout - b.config.Now().Sub(b.openedAt)
		return fmt.Errorf("%w: retry in %s", ErrCircuitOpen, retryIn.Round(time.Second))
	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.HalfOpenRequests {
			return ErrHalfOpenLimitReached
		}
		b.halfOpenRequests++
	}
	return nil
}

// record applies the result of a call. Must be called with lock held.
func (b *breaker) record(err error, cancelled bool) {
	if err != nil && cancelled {
		if b.state == StateHalfOpen && b.halfOpenRequests > 0 {
			b.halfOpenRequests--
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		if err != nil {
			b.transitionTo(StateOpen)
			return
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenRequests {
			b.transitionTo(StateClosed)
		}

	case StateClosed:
		if err != nil {
			b.failureCount++
			if b.failureCount >= b.config.FailureThreshold {
				b.transitionTo(StateOpen)
			}
			return
		}
		b.failureCount = 0
	}
}

// State returns the current state of the circuit breaker
func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset resets the circuit breaker to CLOSED state
func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo changes the circuit breaker state
// Must be called with lock held
func (b *breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState

	b.config.Logger.Info("circuit breaker state changed",
		"provider", b.config.Name,
		"from", oldState.String(),
		"to", newState.String())
	metrics.SetCircuitBreakerState(b.config.Name, newState.String())

	switch newState {
	case StateClosed:
		b.failureCount = 0
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
		b.openedAt = time.Time{}

	case StateOpen:
		b.openedAt = b.config.Now()
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
		metrics.RecordCircuitBreakerTrip(b.config.Name)

	case StateHalfOpen:
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
	}
}
