package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/areaflow/pkg/channels/gochannel"
	"github.com/dukex/areaflow/pkg/events"
)

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	received := make(chan *events.RunFinished, 1)

	err = bus.Handle(events.RunFinishedEvent, func(_ context.Context, event any) error {
		if finished, ok := event.(*events.RunFinished); ok {
			received <- finished
		}

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.RunFinished{
		BaseEvent:     events.NewBaseEvent(events.RunFinishedEvent, "auto-1"),
		ExecutionID:   "run-1234",
		StepsExecuted: 3,
	}
	require.NoError(t, bus.Publish(ctx, "auto-1", event))

	select {
	case finished := <-received:
		assert.Equal(t, "auto-1", finished.AutomationID)
		assert.Equal(t, "run-1234", finished.ExecutionID)
		assert.Equal(t, 3, finished.StepsExecuted)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
