package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

type recordingSub struct {
	id        string
	principal int
	fail      error

	mu     sync.Mutex
	frames []Frame
}

func newSub(id string) *recordingSub {
	return &recordingSub{id: id, principal: 1}
}

func (s *recordingSub) ID() string       { return s.id }
func (s *recordingSub) PrincipalID() int { return s.principal }

func (s *recordingSub) Deliver(f Frame) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return nil
}

func (s *recordingSub) received() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

var errBuild = errors.New("view store unavailable")

type fakeViews struct {
	mu     sync.Mutex
	built  []string
	failOn map[string]bool
	items  []types.QueueItem
}

func (v *fakeViews) Build(ctx context.Context, f queue.StatusFilter) (*queue.View, error) {
	_, norm, err := queue.Plan(f)
	if err != nil {
		return nil, err
	}
	topic := queue.Topic(norm)

	v.mu.Lock()
	v.built = append(v.built, topic)
	v.mu.Unlock()

	if v.failOn[topic] {
		return nil, errBuild
	}
	items := v.items
	if items == nil {
		items = []types.QueueItem{}
	}
	return &queue.View{Topic: topic, Statuses: norm, Items: items, Total: len(items)}, nil
}

func (v *fakeViews) builtTopics() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.built))
	copy(out, v.built)
	return out
}

type fakeReorderer struct {
	err     error
	calls   [][]int
	actorID int
}

func (r *fakeReorderer) Reorder(ctx context.Context, ids []int, actorID int) (*queue.ReorderResult, error) {
	r.calls = append(r.calls, ids)
	r.actorID = actorID
	if r.err != nil {
		return nil, r.err
	}
	return &queue.ReorderResult{Message: "PENDING order updated", Count: len(ids), IDs: ids}, nil
}

func decodeUpdate(f Frame) Update {
	var u Update
	_ = json.Unmarshal(f.Data, &u)
	return u
}
