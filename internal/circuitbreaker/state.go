package circuitbreaker

import "strconv"

// State is where a breaker sits in its closed, open, half-open cycle.
type State int

const (
	StateClosed State = iota
	// Calls fail fast with ErrOpen until the cool-down elapses.
	StateOpen
	// Trial calls run; enough successes close the breaker, one failure reopens it.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// Severity is the value exported on the circuit_breaker_state gauge:
// 0 closed, 1 half-open, 2 open, so any value above zero means the store
// is not fully trusted.
func (s State) Severity() float64 {
	switch s {
	case StateClosed:
		return 0
	case StateHalfOpen:
		return 1
	default:
		return 2
	}
}
