// Package router dispatches platform events and drives each interaction
// through Received, Acknowledged and Resolved.
//
// Platform adapters translate SDK events into DiscordEvent and SlackEvent
// values and provide the responders used to acknowledge and answer them; the
// router owns the decisions: which handler runs, what text is explained, and
// which reply is delivered.
package router

import (
	"errors"
	"fmt"
)

// State is the position of one interaction in its lifecycle.
type State int

const (
	StateReceived State = iota
	StateAcknowledged
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateAcknowledged:
		return "acknowledged"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIllegalTransition is returned when a lifecycle step is taken out of order.
var ErrIllegalTransition = errors.New("router: illegal lifecycle transition")

// Lifecycle tracks one interaction. Acknowledge must succeed before Resolve;
// ResolveNow skips acknowledgment for replies that need no slow work. A
// Lifecycle belongs to a single handler invocation and is not shared.
type Lifecycle struct {
	state State
}

// NewLifecycle returns a lifecycle in StateReceived.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateReceived}
}

func (l *Lifecycle) State() State {
	return l.state
}

// Acknowledge runs ack and moves to StateAcknowledged if it succeeds.
func (l *Lifecycle) Acknowledge(ack func() error) error {
	if l.state != StateReceived {
		return fmt.Errorf("%w: acknowledge from %s", ErrIllegalTransition, l.state)
	}
	if err := ack(); err != nil {
		return err
	}
	l.state = StateAcknowledged
	return nil
}

// Resolve runs deliver on an acknowledged interaction. The interaction is
// resolved even if delivery fails; there is no second attempt.
func (l *Lifecycle) Resolve(deliver func() error) error {
	if l.state != StateAcknowledged {
		return fmt.Errorf("%w: resolve from %s", ErrIllegalTransition, l.state)
	}
	l.state = StateResolved
	return deliver()
}

// ResolveNow answers a received interaction directly, as the acknowledgment.
func (l *Lifecycle) ResolveNow(deliver func() error) error {
	if l.state != StateReceived {
		return fmt.Errorf("%w: resolve now from %s", ErrIllegalTransition, l.state)
	}
	l.state = StateResolved
	return deliver()
}
