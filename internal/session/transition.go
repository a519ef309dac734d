package session

import "log/slog"

// allowedNext lists the single successor state each LoginState may
// advance to (spec.md §3: "Transitions are one-way; an unexpected
// packet in the wrong state is dropped with a warning, never a state
// transition"). AwaitingLogin has two legal successors depending on
// whether the encryption handshake is enabled for this connection.
var allowedNext = map[LoginState][]LoginState{
	AwaitingNetworkSettings:      {AwaitingLogin},
	AwaitingLogin:                {AwaitingHandshake, LoggedIn},
	AwaitingHandshake:            {LoggedIn},
	LoggedIn:                     {AwaitingResourcePackResponse},
	AwaitingResourcePackResponse: {AwaitingResourcePackResponse, AwaitingResourcePackComplete},
	AwaitingResourcePackComplete: {Spawning},
	Spawning:                     {InGame},
	InGame:                       {},
}

// TryTransition advances s to next if the transition is legal, returning
// true on success. An illegal transition is dropped with a warning log
// and s.State is left unchanged, matching spec.md §3's never-silently-
// skip-states rule.
func (s *Session) TryTransition(next LoginState) bool {
	for _, allowed := range allowedNext[s.State] {
		if allowed == next {
			s.State = next
			return true
		}
	}
	slog.Warn("rejected illegal login-state transition",
		"addr", s.Addr.String(),
		"from", s.State.String(),
		"to", next.String())
	return false
}
