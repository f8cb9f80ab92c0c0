package feed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartpothole/backend/internal/feed"
	"smartpothole/backend/internal/models"
)

type MockRelay struct {
	mock.Mock
	handler chan func(models.FeedEvent)
}

func (m *MockRelay) Publish(ctx context.Context, event models.FeedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRelay) Listen(ctx context.Context, handle func(models.FeedEvent)) error {
	m.handler <- handle
	<-ctx.Done()
	return ctx.Err()
}

func startHub(t *testing.T, relay feed.Relay) *feed.Hub {
	t.Helper()
	hub := feed.NewHub(relay, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func receive(t *testing.T, c *MockClient) models.FeedEvent {
	t.Helper()
	select {
	case ev := <-c.RecvChannel:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s did not receive an event", c.GetID())
		return models.FeedEvent{}
	}
}

func TestHub_BroadcastsToRegisteredClients(t *testing.T) {
	// Arrange
	hub := startHub(t, nil)
	clientA := newMockClient("a", 4)
	clientB := newMockClient("b", 4)
	require.True(t, hub.Register(clientA))
	require.True(t, hub.Register(clientB))

	// Act
	hub.Publish(context.Background(), models.FeedEvent{Type: models.EventComplaintCreated, ComplaintID: "SP-1"})

	// Assert
	assert.Equal(t, "SP-1", receive(t, clientA).ComplaintID)
	assert.Equal(t, "SP-1", receive(t, clientB).ComplaintID)
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := startHub(t, nil)
	client := newMockClient("a", 4)
	require.True(t, hub.Register(client))

	hub.Unregister(client)

	assert.Eventually(t, client.IsClosed, time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t, nil)
	slow := newMockClient("slow", 0)
	fast := newMockClient("fast", 4)
	require.True(t, hub.Register(slow))
	require.True(t, hub.Register(fast))

	hub.Publish(context.Background(), models.FeedEvent{ComplaintID: "SP-1"})

	assert.Equal(t, "SP-1", receive(t, fast).ComplaintID)
	assert.Eventually(t, slow.IsClosed, time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := feed.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newMockClient("a", 1)
	require.True(t, hub.Register(client))
	cancel()
	<-done

	assert.True(t, client.IsClosed())
	assert.False(t, hub.Register(newMockClient("late", 1)))
	hub.Unregister(client)
}

func TestHub_PublishGoesThroughRelay(t *testing.T) {
	relay := &MockRelay{handler: make(chan func(models.FeedEvent), 1)}
	event := models.FeedEvent{Type: models.EventComplaintUpdated, ComplaintID: "SP-2"}
	relay.On("Publish", mock.Anything, event).Return(nil)

	hub := startHub(t, relay)
	client := newMockClient("a", 4)
	require.True(t, hub.Register(client))
	handle := <-relay.handler

	hub.Publish(context.Background(), event)
	relay.AssertExpectations(t)
	select {
	case <-client.RecvChannel:
		t.Fatal("event must arrive through the relay, not directly")
	case <-time.After(50 * time.Millisecond):
	}

	handle(event)
	assert.Equal(t, "SP-2", receive(t, client).ComplaintID)
}

func TestHub_RelayFailureFallsBackToLocal(t *testing.T) {
	relay := &MockRelay{handler: make(chan func(models.FeedEvent), 1)}
	relay.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	hub := startHub(t, relay)
	client := newMockClient("a", 4)
	require.True(t, hub.Register(client))

	hub.Publish(context.Background(), models.FeedEvent{ComplaintID: "SP-3"})

	assert.Equal(t, "SP-3", receive(t, client).ComplaintID)
}
