package live

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

func topicsOf(filters []queue.StatusFilter) []string {
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = queue.TopicFor(f)
	}
	return out
}

func TestAffectedTopics(t *testing.T) {

	testCases := []struct {
		name     string
		statuses []types.Status
		want     []string
	}{
		{"none", nil, []string{queue.AllTopic}},
		{"single", []types.Status{types.PendingStatus}, []string{queue.AllTopic, "laundry:queue:status:PENDING"}},
		{
			"transition",
			[]types.Status{types.PendingStatus, types.StartedStatus},
			[]string{queue.AllTopic, "laundry:queue:status:PENDING", "laundry:queue:status:STARTED"},
		},
		{"same status twice", []types.Status{types.StartedStatus, types.StartedStatus}, []string{queue.AllTopic, "laundry:queue:status:STARTED"}},
		{"blank skipped", []types.Status{"", types.DeliveredStatus}, []string{queue.AllTopic, "laundry:queue:status:DELIVERED"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, topicsOf(AffectedTopics(tc.statuses...)))
		})
	}
}

func TestPublishQueueUpdateTargetsExactlyAffectedTopics(t *testing.T) {
	hub := NewHub()
	views := &fakeViews{items: []types.QueueItem{{ID: 1, Status: types.StartedStatus}}}
	b := NewBroadcaster(views, hub)

	all, pending, started, multi := newSub("all"), newSub("pending"), newSub("started"), newSub("multi")
	hub.Join(queue.AllTopic, all)
	hub.Join("laundry:queue:status:PENDING", pending)
	hub.Join("laundry:queue:status:STARTED", started)
	hub.Join("laundry:queue:status:PENDING+STARTED", multi)

	b.PublishQueueUpdate(context.Background(), types.PendingStatus, types.StartedStatus)

	assert.Equal(t, []string{queue.AllTopic, "laundry:queue:status:PENDING", "laundry:queue:status:STARTED"}, views.builtTopics())
	for _, s := range []*recordingSub{all, pending, started} {
		frames := s.received()
		require.Len(t, frames, 1, s.id)
		assert.Equal(t, QueueUpdatedEvent, frames[0].Event)
		u := decodeUpdate(frames[0])
		assert.Equal(t, 1, u.Total)
		assert.Equal(t, uint64(1), u.Seq)
	}
	assert.Empty(t, multi.received())
}

func TestPublishSkipsTopicsWithoutSubscribers(t *testing.T) {
	views := &fakeViews{}
	b := NewBroadcaster(views, NewHub())

	b.PublishQueueUpdate(context.Background(), types.PendingStatus)
	assert.Empty(t, views.builtTopics())
}

func TestPublishBuildFailureSendsErrorNotice(t *testing.T) {
	hub := NewHub()
	views := &fakeViews{failOn: map[string]bool{"laundry:queue:status:PENDING": true}}
	b := NewBroadcaster(views, hub)

	all, pending := newSub("all"), newSub("pending")
	hub.Join(queue.AllTopic, all)
	hub.Join("laundry:queue:status:PENDING", pending)

	b.PublishQueueUpdate(context.Background(), types.PendingStatus)

	require.Len(t, pending.received(), 1)
	assert.Equal(t, QueueErrorEvent, pending.received()[0].Event)
	assert.Contains(t, string(pending.received()[0].Data), queue.CodeBroadcast)

	require.Len(t, all.received(), 1)
	assert.Equal(t, QueueUpdatedEvent, all.received()[0].Event)
}

func TestPublishSurvivesFailingSubscriber(t *testing.T) {
	hub := NewHub()
	b := NewBroadcaster(&fakeViews{}, hub)

	broken, healthy := newSub("broken"), newSub("healthy")
	broken.fail = errors.New("socket gone")
	hub.Join(queue.AllTopic, broken)
	hub.Join(queue.AllTopic, healthy)

	assert.NotPanics(t, func() {
		b.PublishQueueUpdate(context.Background(), types.DeliveredStatus)
	})
	assert.Len(t, healthy.received(), 1)
}

func TestPublishSequenceIsPerTopic(t *testing.T) {
	hub := NewHub()
	b := NewBroadcaster(&fakeViews{}, hub)

	all, started := newSub("all"), newSub("started")
	hub.Join(queue.AllTopic, all)
	hub.Join("laundry:queue:status:STARTED", started)

	ctx := context.Background()
	b.PublishQueueUpdate(ctx, types.PendingStatus)
	b.PublishQueueUpdate(ctx, types.StartedStatus)
	b.PublishQueueUpdate(ctx, types.StartedStatus)

	var allSeq []uint64
	for _, f := range all.received() {
		allSeq = append(allSeq, decodeUpdate(f).Seq)
	}
	assert.Equal(t, []uint64{1, 2, 3}, allSeq)

	var startedSeq []uint64
	for _, f := range started.received() {
		startedSeq = append(startedSeq, decodeUpdate(f).Seq)
	}
	assert.Equal(t, []uint64{1, 2}, startedSeq)
}

type countingEmitter struct {
	topics []string
}

func (e *countingEmitter) Emit(ctx context.Context, topic string, f Frame) error {
	e.topics = append(e.topics, topic)
	return nil
}

func TestPublishThroughRelayIgnoresLocalSubscribers(t *testing.T) {
	emitter := &countingEmitter{}
	b := NewBroadcaster(&fakeViews{}, NewHub()).WithEmitter(emitter)

	b.PublishQueueUpdate(context.Background(), types.CancelledStatus)
	assert.Equal(t, []string{queue.AllTopic, "laundry:queue:status:CANCELLED"}, emitter.topics)
}
