package live

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

// ViewSource builds the current queue view for a filter.
type ViewSource interface {
	Build(ctx context.Context, f queue.StatusFilter) (*queue.View, error)
}

// Update is the payload of a queue update frame.
type Update struct {
	Room    string            `json:"room"`
	Seq     uint64            `json:"seq"`
	Filters UpdateFilters     `json:"filters"`
	Items   []types.QueueItem `json:"items"`
	Total   int               `json:"total"`
}

type UpdateFilters struct {
	Status []string `json:"status"`
}

// ErrorNotice is pushed to a topic when its view could not be rebuilt.
type ErrorNotice struct {
	Room  string `json:"room"`
	Seq   uint64 `json:"seq"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

type topicState struct {
	mu  sync.Mutex
	seq uint64
}

// Broadcaster rebuilds and pushes views for the topics a mutation affects.
type Broadcaster struct {
	views   ViewSource
	hub     *Hub
	emitter Emitter
	relayed bool

	mu     sync.Mutex
	topics map[string]*topicState
}

// NewBroadcaster pushes through the hub directly. Use WithEmitter to route
// frames through a relay shared by several instances.
func NewBroadcaster(views ViewSource, hub *Hub) *Broadcaster {
	return &Broadcaster{
		views:   views,
		hub:     hub,
		emitter: hub,
		topics:  make(map[string]*topicState),
	}
}

func (b *Broadcaster) WithEmitter(e Emitter) *Broadcaster {
	b.emitter = e
	b.relayed = true
	return b
}

// AffectedTopics lists the global topic followed by one single-status topic
// per distinct status, in first-seen order. Multi-status topics are never
// included.
func AffectedTopics(statuses ...types.Status) []queue.StatusFilter {
	out := []queue.StatusFilter{{}}
	seen := make(map[types.Status]struct{}, len(statuses))
	for _, s := range statuses {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, queue.FilterFromStatuses(s))
	}
	return out
}

// PublishQueueUpdate pushes a fresh view to every topic affected by a change
// touching statuses. Call it after the change committed. Failures are logged
// and never returned.
func (b *Broadcaster) PublishQueueUpdate(ctx context.Context, statuses ...types.Status) {
	for _, f := range AffectedTopics(statuses...) {
		b.publish(ctx, f)
	}
}

func (b *Broadcaster) state(topic string) *topicState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.topics[topic]
	if !ok {
		st = &topicState{}
		b.topics[topic] = st
	}
	return st
}

func (b *Broadcaster) publish(ctx context.Context, f queue.StatusFilter) {
	topic := queue.TopicFor(f)
	if !b.relayed && !b.hub.HasSubscribers(topic) {
		return
	}

	// Build and emit under the topic lock so frames for one topic leave in
	// the order their views were computed.
	st := b.state(topic)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.seq++

	var frame Frame
	var err error

	view, buildErr := b.views.Build(ctx, f)
	if buildErr != nil {
		logger.WithField("topic", topic).Errorf("Failed building queue view: %s", buildErr.Error())
		frame, err = NewFrame(QueueErrorEvent, topic, ErrorNotice{
			Room:  topic,
			Seq:   st.seq,
			Error: "Failed to build queue view",
			Code:  queue.CodeBroadcast,
		})
	} else {
		frame, err = NewFrame(QueueUpdatedEvent, topic, Update{
			Room:    topic,
			Seq:     st.seq,
			Filters: UpdateFilters{Status: view.Statuses},
			Items:   view.Items,
			Total:   view.Total,
		})
	}
	if err != nil {
		logger.WithField("topic", topic).Errorf("Failed encoding queue frame: %s", err.Error())
		return
	}

	if err := b.emitter.Emit(ctx, topic, frame); err != nil {
		logger.WithField("topic", topic).Warnf("Queue update not fully delivered: %s", err.Error())
	}
}
