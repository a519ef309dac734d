// Package dispatcher implements PacketDispatcher (spec.md component
// table, §4.1): demultiplexing one decoded client packet to the
// handler registered for the session's current LoginState. Generalized
// from internal/gameserver/handler.go's HandlePacket — a state switch
// nested around an opcode switch, since that protocol frames packets
// as a raw opcode byte — into a state-then-Go-type dispatch table,
// since packets here already arrive as the typed structs in
// internal/protocol rather than an opcode-prefixed byte slice.
package dispatcher

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/bedrockcore/server/internal/session"
)

// Handler processes one decoded packet for an in-flight session and
// returns zero or more outbound packets to send, in order.
type Handler func(s *session.Session, packet any) ([]any, error)

// Dispatcher holds the state -> packet-type -> Handler table. It is
// built once at startup and read-only thereafter, so Dispatch is safe
// to call from the tick thread without its own locking.
type Dispatcher struct {
	handlers map[session.LoginState]map[reflect.Type]Handler
}

// New returns an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[session.LoginState]map[reflect.Type]Handler)}
}

// Register binds h to handle values of packet's concrete type whenever
// a session is in state. Calling Register again for the same
// (state, type) pair replaces the prior handler.
func (d *Dispatcher) Register(state session.LoginState, packet any, h Handler) {
	t := reflect.TypeOf(packet)
	m, ok := d.handlers[state]
	if !ok {
		m = make(map[reflect.Type]Handler)
		d.handlers[state] = m
	}
	m[t] = h
}

// RegisterStates is Register for more than one state at once, for
// packets valid across several login states — spec.md §4.1's resource
// pack and chunk-radius packets are each accepted over a short run of
// adjacent states, the way the teacher's
// Authenticated/Entering/InGame opcode block shares one switch case.
func (d *Dispatcher) RegisterStates(states []session.LoginState, packet any, h Handler) {
	for _, state := range states {
		d.Register(state, packet, h)
	}
}

// Dispatch routes packet to the handler registered for s.State and
// packet's concrete type. An unregistered (state, type) pair is
// dropped with a warning (spec.md §4.1: "any mismatch drops the
// packet") rather than erroring or transitioning state.
func (d *Dispatcher) Dispatch(s *session.Session, packet any) ([]any, error) {
	t := reflect.TypeOf(packet)

	m, ok := d.handlers[s.State]
	if !ok {
		slog.Warn("no handlers registered for login state",
			"state", s.State.String(), "packetType", t.String())
		return nil, nil
	}

	h, ok := m[t]
	if !ok {
		slog.Warn("packet type not valid for current state",
			"state", s.State.String(), "packetType", t.String())
		return nil, nil
	}

	out, err := h(s, packet)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s in state %s: %w", t.String(), s.State.String(), err)
	}
	return out, nil
}
