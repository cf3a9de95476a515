package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yukikurage/teamtask-api/internal/metrics"
)

const (
	EventTaskUpdated    = "taskUpdated"
	EventProjectUpdated = "projectUpdated"
	EventNotification   = "notification"

	AdminRoom = "admin"

	subscriberBuffer = 32
)

func ProjectRoom(projectID uint64) string {
	return fmt.Sprintf("project:%d", projectID)
}

func UserRoom(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Event is the payload pushed to websocket subscribers.
type Event struct {
	Type          string      `json:"type"`
	Action        string      `json:"action,omitempty"`
	TaskID        uint64      `json:"taskId,omitempty"`
	ProjectID     uint64      `json:"projectId,omitempty"`
	UpdatedBy     uint64      `json:"updatedBy,omitempty"`
	ProjectStatus string      `json:"projectStatus,omitempty"`
	Notification  interface{} `json:"notification,omitempty"`
}

// Envelope is an event addressed to a set of rooms.
type Envelope struct {
	Rooms []string `json:"rooms"`
	Event Event    `json:"event"`
}

// Publisher delivers events to the subscribers of the given rooms.
type Publisher interface {
	Publish(ctx context.Context, rooms []string, event Event)
}

// Subscription receives encoded events for the rooms it joined.
type Subscription struct {
	C     <-chan []byte
	send  chan []byte
	rooms []string
	once  sync.Once
}

// Hub fans events out to in-process subscribers keyed by room.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe joins the given rooms. The caller must call Unsubscribe when done.
func (h *Hub) Subscribe(rooms ...string) *Subscription {
	send := make(chan []byte, subscriberBuffer)
	sub := &Subscription{C: send, send: send, rooms: uniqueRooms(rooms)}

	h.mu.Lock()
	for _, room := range sub.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Subscription]struct{})
		}
		h.rooms[room][sub] = struct{}{}
	}
	h.mu.Unlock()

	return sub
}

// Unsubscribe leaves every room and closes the subscription channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	for _, room := range sub.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, sub)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.send) })
}

// Publish implements Publisher for a single process.
func (h *Hub) Publish(_ context.Context, rooms []string, event Event) {
	h.Deliver(Envelope{Rooms: rooms, Event: event})
}

// Deliver writes the envelope once to every subscriber of any addressed room.
// Subscribers whose buffer is full miss the event.
func (h *Hub) Deliver(env Envelope) {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		h.logger.Error("failed to encode realtime event", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Subscription]struct{})
	for _, room := range uniqueRooms(env.Rooms) {
		members, ok := h.rooms[room]
		if !ok {
			continue
		}
		metrics.ObserveRealtimeEvent(roomKind(room))
		for sub := range members {
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			select {
			case sub.send <- payload:
			default:
				h.logger.Warn("realtime subscriber buffer full, dropping event",
					slog.String("room", room),
					slog.String("type", env.Event.Type),
				)
			}
		}
	}
}

// RoomSize returns the number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func roomKind(room string) string {
	if i := strings.IndexByte(room, ':'); i > 0 {
		return room[:i]
	}
	return room
}

func uniqueRooms(rooms []string) []string {
	seen := make(map[string]struct{}, len(rooms))
	result := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		result = append(result, r)
	}
	return result
}
