// Package plugin implements PluginBridge (spec.md §4.10): dispatch of
// PluginEvent values to registered plugin callbacks, collection of the
// action queue each callback fills, and the apply/short-circuit rule
// for cancellable events. Lua/WASM script hosting itself is an external
// collaborator (spec.md §1); this package only implements the contract
// those runtimes are driven through — callbacks registered here may be
// backed by either, or by a native Go test double.
//
// Grounded on internal/gameserver/handler.go's HandlePacket opcode-keyed
// dispatch table, generalized from a fixed protocol-opcode switch to a
// dynamic per-event-name registry, since plugins register for event
// names at load time rather than the server knowing every opcode ahead
// of it.
package plugin

import "log/slog"

// EventName identifies a PluginEvent kind (spec.md §4.10 examples:
// "PlayerChat", "BlockBreak", "TimeChange").
type EventName string

// Verdict is a plugin callback's return value.
type Verdict int

const (
	Continue Verdict = iota
	Cancelled
)

// Event is the payload handed to a plugin callback. Fields is a loose
// bag since the concrete shape varies per EventName and the schema
// lives with each plugin API, not the bridge.
type Event struct {
	Name   EventName
	Fields map[string]any
}

// ActionKind enumerates the action-queue entries a plugin callback may
// emit (spec.md §4.10: "send-message, kick, teleport, set-health,
// schedule-delayed/repeating, cancel-task, register-command,
// show-form, etc.").
type ActionKind string

const (
	ActionSendMessage      ActionKind = "send_message"
	ActionKick             ActionKind = "kick"
	ActionTeleport         ActionKind = "teleport"
	ActionSetHealth        ActionKind = "set_health"
	ActionScheduleDelayed  ActionKind = "schedule_delayed"
	ActionScheduleRepeating ActionKind = "schedule_repeating"
	ActionCancelTask       ActionKind = "cancel_task"
	ActionRegisterCommand  ActionKind = "register_command"
	ActionShowForm         ActionKind = "show_form"
)

// Action is one queued side effect a plugin callback requested.
type Action struct {
	Kind   ActionKind
	Fields map[string]any
}

// Callback is a registered plugin's handler for one event name. It
// must be treated as an opaque side-effecting function (spec.md
// §4.10): the bridge does not call back into the server from inside
// it; the callback queues actions via the ActionQueue it is handed and
// returns a Verdict.
type Callback func(evt Event, queue *ActionQueue) Verdict

// ActionQueue accumulates the actions one plugin callback invocation
// requests, in order.
type ActionQueue struct {
	actions []Action
}

// Queue appends an action.
func (q *ActionQueue) Queue(kind ActionKind, fields map[string]any) {
	q.actions = append(q.actions, Action{Kind: kind, Fields: fields})
}

// cancellableEvents lists the events whose corresponding server-side
// action must be suppressed when a callback returns Cancelled (spec.md
// §4.10 examples: "PlayerChat suppresses broadcast; BlockBreak leaves
// the block in place; TimeChange aborts the write").
var cancellableEvents = map[EventName]bool{
	"PlayerChat":  true,
	"BlockBreak":  true,
	"BlockPlace":  true,
	"TimeChange":  true,
	"PlayerMove":  true,
	"PlayerDamage": true,
}

// IsCancellable reports whether name participates in the
// short-circuit rule.
func IsCancellable(name EventName) bool {
	return cancellableEvents[name]
}

// Bridge holds the per-event-name callback registry. Dispatch is
// always called from the tick thread (spec.md §4.10: "They are called
// on the tick thread").
type Bridge struct {
	handlers map[EventName][]Callback
}

// NewBridge returns an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{handlers: make(map[EventName][]Callback)}
}

// Register adds cb as a handler for name. Multiple plugins may
// register for the same event; they are called in registration order.
func (b *Bridge) Register(name EventName, cb Callback) {
	b.handlers[name] = append(b.handlers[name], cb)
}

// DispatchResult is the outcome of dispatching one event to every
// registered handler.
type DispatchResult struct {
	Cancelled bool
	Actions   []Action
}

// Dispatch calls every handler registered for evt.Name in order,
// collecting their queued actions and the cancellation verdict. A
// panic inside a callback is treated as a plugin trap (spec.md §7:
// "Plugin trap / script error — logged at warn, actions from that call
// discarded, continue") — that call's actions are discarded but
// dispatch continues with the next handler.
func (b *Bridge) Dispatch(evt Event) DispatchResult {
	result := DispatchResult{}

	for _, cb := range b.handlers[evt.Name] {
		verdict := runCallback(cb, evt, &result)
		if verdict == Cancelled && IsCancellable(evt.Name) {
			result.Cancelled = true
		}
	}

	return result
}

func runCallback(cb Callback, evt Event, result *DispatchResult) (verdict Verdict) {
	queue := &ActionQueue{}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("plugin callback panicked", "event", evt.Name, "recover", r)
			verdict = Continue
			return
		}
		result.Actions = append(result.Actions, queue.actions...)
	}()

	return cb(evt, queue)
}
