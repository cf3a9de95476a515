package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()
	select {
	case payload, ok := <-sub.C:
		if !ok {
			return Event{}, false
		}
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev, true
	case <-time.After(50 * time.Millisecond):
		return Event{}, false
	}
}

func TestHub_DeliversOnlyToAddressedRooms(t *testing.T) {
	hub := NewHub(nil)
	assignee := hub.Subscribe(UserRoom(1))
	outsider := hub.Subscribe(UserRoom(2))
	admin := hub.Subscribe(AdminRoom)

	hub.Publish(context.Background(), []string{UserRoom(1), AdminRoom}, Event{Type: EventTaskUpdated, TaskID: 7, UpdatedBy: 3})

	ev, ok := receive(t, assignee)
	require.True(t, ok)
	assert.Equal(t, EventTaskUpdated, ev.Type)
	assert.Equal(t, uint64(7), ev.TaskID)
	assert.Equal(t, uint64(3), ev.UpdatedBy)

	_, ok = receive(t, admin)
	assert.True(t, ok)

	_, ok = receive(t, outsider)
	assert.False(t, ok)
}

func TestHub_SubscriberInSeveralRoomsReceivesOnce(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe(UserRoom(1), ProjectRoom(9))

	hub.Publish(context.Background(), []string{UserRoom(1), ProjectRoom(9)}, Event{Type: EventTaskUpdated, TaskID: 1})

	_, ok := receive(t, sub)
	require.True(t, ok)
	_, ok = receive(t, sub)
	assert.False(t, ok)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe(ProjectRoom(1))
	require.Equal(t, 1, hub.RoomSize(ProjectRoom(1)))

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	assert.Equal(t, 0, hub.RoomSize(ProjectRoom(1)))
	_, open := <-sub.C
	assert.False(t, open)
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe(AdminRoom)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(context.Background(), []string{AdminRoom}, Event{Type: EventTaskUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, sub.C, subscriberBuffer)
}
