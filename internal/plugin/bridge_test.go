package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_NoHandlersReturnsEmptyResult(t *testing.T) {
	b := NewBridge()
	result := b.Dispatch(Event{Name: "PlayerChat"})

	assert.False(t, result.Cancelled)
	assert.Empty(t, result.Actions)
}

func TestDispatch_CollectsQueuedActionsInOrder(t *testing.T) {
	b := NewBridge()
	b.Register("PlayerChat", func(evt Event, q *ActionQueue) Verdict {
		q.Queue(ActionSendMessage, map[string]any{"text": "hi"})
		return Continue
	})

	result := b.Dispatch(Event{Name: "PlayerChat"})

	require.Len(t, result.Actions, 1)
	assert.Equal(t, ActionSendMessage, result.Actions[0].Kind)
	assert.False(t, result.Cancelled)
}

func TestDispatch_CancelledVerdictSetsCancelledForCancellableEvent(t *testing.T) {
	b := NewBridge()
	b.Register("BlockBreak", func(evt Event, q *ActionQueue) Verdict {
		return Cancelled
	})

	result := b.Dispatch(Event{Name: "BlockBreak"})

	assert.True(t, result.Cancelled)
}

func TestDispatch_CancelledVerdictIgnoredForNonCancellableEvent(t *testing.T) {
	b := NewBridge()
	b.Register("ServerStarted", func(evt Event, q *ActionQueue) Verdict {
		return Cancelled
	})

	result := b.Dispatch(Event{Name: "ServerStarted"})

	assert.False(t, result.Cancelled, "ServerStarted has no server-side action to suppress")
}

func TestDispatch_MultipleHandlersAllRunAndAccumulate(t *testing.T) {
	b := NewBridge()
	b.Register("PlayerChat", func(evt Event, q *ActionQueue) Verdict {
		q.Queue(ActionSendMessage, nil)
		return Continue
	})
	b.Register("PlayerChat", func(evt Event, q *ActionQueue) Verdict {
		q.Queue(ActionRegisterCommand, nil)
		return Cancelled
	})

	result := b.Dispatch(Event{Name: "PlayerChat"})

	assert.Len(t, result.Actions, 2)
	assert.True(t, result.Cancelled)
}

func TestDispatch_PanickingCallbackDiscardsItsActionsButContinues(t *testing.T) {
	b := NewBridge()
	b.Register("PlayerChat", func(evt Event, q *ActionQueue) Verdict {
		q.Queue(ActionSendMessage, nil)
		panic("plugin bug")
	})
	b.Register("PlayerChat", func(evt Event, q *ActionQueue) Verdict {
		q.Queue(ActionKick, nil)
		return Continue
	})

	result := b.Dispatch(Event{Name: "PlayerChat"})

	require.Len(t, result.Actions, 1)
	assert.Equal(t, ActionKick, result.Actions[0].Kind)
	assert.False(t, result.Cancelled)
}

func TestIsCancellable_KnownAndUnknownEvents(t *testing.T) {
	assert.True(t, IsCancellable("TimeChange"))
	assert.False(t, IsCancellable("PlayerJoined"))
}
