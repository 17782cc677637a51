package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name string

	// Consecutive failures before opening. Default: 5
	MaxFailures int

	// How long to stay open before probing. Default: 10s
	CoolDown time.Duration

	// Successes needed in half-open to close. Default: 1
	HalfOpenSuccesses int

	// IsFailure decides which errors count against the breaker.
	// Default: any non-nil error except context cancellation.
	IsFailure func(error) bool

	OnStateChange func(name string, from, to State)

	Now func() time.Time
}

// Breaker guards calls to a shared dependency so a dead store is not
// waited on by every request.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time

	name              string
	maxFailures       int
	coolDown          time.Duration
	halfOpenSuccesses int
	isFailure         func(error) bool
	onStateChange     func(string, State, State)
	now               func() time.Time
}

func New(s Settings) *Breaker {
	if s.MaxFailures <= 0 {
		s.MaxFailures = 5
	}
	if s.CoolDown <= 0 {
		s.CoolDown = 10 * time.Second
	}
	if s.HalfOpenSuccesses <= 0 {
		s.HalfOpenSuccesses = 1
	}
	if s.IsFailure == nil {
		s.IsFailure = defaultIsFailure
	}
	if s.Now == nil {
		s.Now = time.Now
	}

	return &Breaker{
		state:             StateClosed,
		name:              s.Name,
		maxFailures:       s.MaxFailures,
		coolDown:          s.CoolDown,
		halfOpenSuccesses: s.HalfOpenSuccesses,
		isFailure:         s.IsFailure,
		onStateChange:     s.OnStateChange,
		now:               s.Now,
	}
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := fn()
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.coolDown {
			return ErrOpen
		}
		b.setState(StateHalfOpen)
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isFailure(err) {
		b.onFailure()
		return
	}
	b.onSuccess()
}

func (b *Breaker) onFailure() {
	b.failures++

	switch b.state {
	case StateHalfOpen:
		b.open()
	case StateClosed:
		if b.failures >= b.maxFailures {
			b.open()
		}
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.halfOpenSuccesses {
			b.setState(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) open() {
	b.openedAt = b.now()
	b.setState(StateOpen)
}

func (b *Breaker) setState(to State) {
	if b.state == to {
		return
	}

	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0

	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Name() string {
	return b.name
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(StateClosed)
}
