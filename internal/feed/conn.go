package feed

import (
	"math/rand"
	"time"

	"github.com/aerlinn13/marex/pkg/backoff"
)

// ConnState models the simulated link to the market-data source.
type ConnState uint8

const (
	StateConnected ConnState = iota
	StateDisconnected
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ConnEvent is emitted on every connection transition. Latency is meaningful
// only when State is StateConnected, Attempt only when StateReconnecting.
type ConnEvent struct {
	State   ConnState
	Latency time.Duration
	Attempt int
}

// connMachine tracks link state. The engine's mutex serializes access.
type connMachine struct {
	state         ConnState
	attempt       int
	dropProb      float64
	reconnectProb float64
	maxAttempts   int
	policy        backoff.Policy
	rng           *rand.Rand
}

func newConnMachine(cfg Config, rng *rand.Rand) *connMachine {
	return &connMachine{
		state:         StateConnected,
		dropProb:      cfg.DisconnectProb,
		reconnectProb: cfg.ReconnectProb,
		maxAttempts:   cfg.MaxReconnectAttempts,
		policy:        cfg.Backoff,
		rng:           rng,
	}
}

// shouldDrop rolls the periodic disconnect check.
func (m *connMachine) shouldDrop() bool {
	return m.state == StateConnected && m.rng.Float64() < m.dropProb
}

// drop moves Connected -> Disconnected -> Reconnecting(1) in one step and
// returns the events to emit plus the delay before the first retry.
func (m *connMachine) drop() ([]ConnEvent, time.Duration) {
	m.state = StateReconnecting
	m.attempt = 1
	events := []ConnEvent{
		{State: StateDisconnected},
		{State: StateReconnecting, Attempt: 1},
	}
	return events, m.policy.Delay(1)
}

// retry performs the pending reconnect attempt. On success it returns the
// Connected event carrying the new latency; on failure it returns the next
// Reconnecting event and the delay before the following attempt.
func (m *connMachine) retry(latency time.Duration) (ConnEvent, time.Duration, bool) {
	succeeded := m.attempt >= m.maxAttempts || m.rng.Float64() < m.reconnectProb
	if succeeded {
		m.state = StateConnected
		m.attempt = 0
		return ConnEvent{State: StateConnected, Latency: latency}, 0, true
	}
	m.attempt++
	return ConnEvent{State: StateReconnecting, Attempt: m.attempt}, m.policy.Delay(m.attempt), false
}
