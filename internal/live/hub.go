// Package live delivers queue views to connected viewers grouped by topic.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"
)

// Server-pushed event names.
const (
	QueueUpdatedEvent = "laundry:queue:updated"
	QueueErrorEvent   = "laundry:queue:error"
	AckEvent          = "ack"
)

var ErrSlowSubscriber = errors.New("subscriber buffer full")
var ErrSubscriberClosed = errors.New("subscriber closed")

// Frame is one message on a live connection.
type Frame struct {
	Event string          `json:"event"`
	Ack   int64           `json:"ack,omitempty"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewFrame(event, room string, data any) (Frame, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Frame{}, fmt.Errorf("failed encoding %s frame %w", event, err)
	}
	return Frame{Event: event, Room: room, Data: b}, nil
}

// Subscriber receives frames for the topics it joined. Deliver must not block.
type Subscriber interface {
	ID() string
	Deliver(f Frame) error
}

// Emitter sends a frame to every subscriber of a topic.
type Emitter interface {
	Emit(ctx context.Context, topic string, f Frame) error
}

// Hub tracks topic subscriptions. Subscriptions live only in memory.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]Subscriber
	joined map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[string]Subscriber),
		joined: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Join(topic string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]Subscriber)
		h.topics[topic] = subs
	}
	subs[s.ID()] = s

	rooms, ok := h.joined[s.ID()]
	if !ok {
		rooms = make(map[string]struct{})
		h.joined[s.ID()] = rooms
	}
	rooms[topic] = struct{}{}
}

func (h *Hub) Leave(topic string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(topic, s.ID())
}

// LeaveAll drops every subscription of s. Called when a connection goes away.
func (h *Hub) LeaveAll(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.joined[s.ID()] {
		h.leaveLocked(topic, s.ID())
	}
	delete(h.joined, s.ID())
}

func (h *Hub) leaveLocked(topic, id string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	if rooms, ok := h.joined[id]; ok {
		delete(rooms, topic)
		if len(rooms) == 0 {
			delete(h.joined, id)
		}
	}
}

func (h *Hub) HasSubscribers(topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic]) > 0
}

// Topics returns the topics s currently belongs to.
func (h *Hub) Topics(s Subscriber) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.joined[s.ID()]))
	for topic := range h.joined[s.ID()] {
		out = append(out, topic)
	}
	return out
}

// Emit delivers f to the local subscribers of topic. A failing subscriber
// does not stop delivery to the others.
func (h *Hub) Emit(ctx context.Context, topic string, f Frame) error {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.topics[topic]))
	for _, s := range h.topics[topic] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.Deliver(f); err != nil {
			logger.WithFields(logger.Fields{"topic": topic, "subscriber": s.ID()}).
				Warnf("Dropping %s frame: %s", f.Event, err.Error())
			errs = append(errs, fmt.Errorf("subscriber %s: %w", s.ID(), err))
		}
	}
	return errors.Join(errs...)
}
