package streaming

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/pkg/schema"
)

func TestMemoryHub_PublishAndReceive(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	event := ResultEvent{
		SessionID:   "s-1",
		DiagramID:   "d-1",
		ContentHash: "abc",
		Result:      &schema.ComplianceResult{Score: 95},
	}
	require.NoError(t, hub.Publish(ctx, event))

	got := <-ch
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, 95, got.Result.Score)
}

func TestMemoryHub_FilterBySession(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{SessionID: "s-1"})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-2", ContentHash: "x"}))
	require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-1", ContentHash: "y"}))

	got := <-ch
	assert.Equal(t, "y", got.ContentHash)
	assert.Empty(t, ch, "the non-matching event was never delivered")
}

func TestMemoryHub_FilterByDiagram(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{DiagramID: "d-1"})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-1", DiagramID: "d-2"}))
	require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-1", DiagramID: "d-1"}))

	got := <-ch
	assert.Equal(t, "d-1", got.DiagramID)
	assert.Empty(t, ch)
}

func TestMemoryHub_MultipleSubscribers(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	a, cancelA, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancelA()
	b, cancelB, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-1"}))

	assert.Equal(t, "s-1", (<-a).SessionID)
	assert.Equal(t, "s-1", (<-b).SessionID)
}

func TestMemoryHub_CancelStopsDelivery(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	cancel()

	require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-1"}))
	assert.Empty(t, ch)
}

func TestMemoryHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, hub.Publish(ctx, ResultEvent{SessionID: "s-1"}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryHub_CancelledContext(t *testing.T) {
	hub := NewMemoryHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, hub.Publish(ctx, ResultEvent{}))
	_, _, err := hub.Subscribe(ctx, EventFilter{})
	require.Error(t, err)
}
