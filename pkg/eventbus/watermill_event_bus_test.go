package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/channels/gochannel"
	"github.com/floworkhq/flowork/pkg/eventbus"
	"github.com/floworkhq/flowork/pkg/events"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)

	received := make(chan *events.WorkflowExecutionStarted, 1)

	err := bus.Handle(events.WorkflowExecutionStartedEvent, func(_ context.Context, event any) error {
		started, ok := event.(*events.WorkflowExecutionStarted)
		if ok {
			received <- started
		}

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	started := events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent, "wf-1"),
		ExecutionID:  "exec-1",
		WorkflowName: "Review Pipeline",
		Input:        "summarize this",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", started))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, "exec-1", got.ExecutionID)
		assert.Equal(t, "Review Pipeline", got.WorkflowName)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_IgnoresUnhandledEventTypes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)

	received := make(chan any, 1)

	err := bus.Handle(events.WorkflowDeletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	created := events.WorkflowCreated{
		BaseEvent:    events.NewBaseEvent(events.WorkflowCreatedEvent, "wf-1"),
		WorkflowName: "Unwatched",
		NodeCount:    1,
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", created))

	select {
	case <-received:
		t.Fatal("handler should not receive events of other types")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
