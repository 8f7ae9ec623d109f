package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wellywell/laundry/internal/types"
)

// memStore keeps orders in memory and stages writes until the reorder
// transaction commits.
type memStore struct {
	mu        sync.Mutex
	orders    map[int]types.Order
	activity  []types.ActivityEntry
	failStage string
}

func newMemStore(orders ...types.Order) *memStore {
	s := &memStore{orders: make(map[int]types.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func rank(n int) *int { return &n }

func pendingOrder(id, r int) types.Order {
	return types.Order{ID: id, Status: types.PendingStatus, PendingOrder: rank(r), ScheduledPickupAt: time.Unix(int64(id), 0)}
}

func orderWithStatus(id int, status types.Status, pickup int64) types.Order {
	return types.Order{ID: id, Status: status, ScheduledPickupAt: time.Unix(pickup, 0)}
}

func (s *memStore) rankOf(id int) *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].PendingOrder
}

type memTx struct {
	store    *memStore
	staged   map[int]types.Order
	activity []types.ActivityEntry
}

var errInjected = errors.New("injected failure")

func (s *memStore) InReorderTx(ctx context.Context, fn func(tx ReorderTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: make(map[int]types.Order, len(s.orders))}
	for id, o := range s.orders {
		tx.staged[id] = o
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.orders = tx.staged
	s.activity = append(s.activity, tx.activity...)
	return nil
}

func (t *memTx) LockOrderRanks(ctx context.Context, ids []int) ([]types.OrderRank, error) {
	var out []types.OrderRank
	for _, id := range ids {
		if o, ok := t.staged[id]; ok {
			out = append(out, types.OrderRank{ID: o.ID, Status: o.Status, PendingOrder: o.PendingOrder})
		}
	}
	return out, nil
}

func (t *memTx) ClearPendingRanks(ctx context.Context, ids []int) error {
	for _, id := range ids {
		o := t.staged[id]
		o.PendingOrder = nil
		t.staged[id] = o
	}
	if t.store.failStage == "clear" {
		return errInjected
	}
	return nil
}

func (t *memTx) AssignPendingRanks(ctx context.Context, ids []int) error {
	for i, id := range ids {
		o := t.staged[id]
		o.PendingOrder = rank(i + 1)
		t.staged[id] = o
	}
	if t.store.failStage == "assign" {
		return errInjected
	}
	return nil
}

func (t *memTx) RankRemainingPending(ctx context.Context, listed []int) error {
	skip := make(map[int]bool, len(listed))
	for _, id := range listed {
		skip[id] = true
	}
	var rest []types.Order
	for id, o := range t.staged {
		if o.Status == types.PendingStatus && !skip[id] {
			rest = append(rest, o)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if c := compareRank(rest[i].PendingOrder, rest[j].PendingOrder); c != 0 {
			return c < 0
		}
		return rest[i].ID < rest[j].ID
	})
	for i, o := range rest {
		o.PendingOrder = rank(len(listed) + i + 1)
		t.staged[o.ID] = o
	}
	if t.store.failStage == "rest" {
		return errInjected
	}
	return nil
}

func (t *memTx) InsertActivity(ctx context.Context, entry types.ActivityEntry) error {
	if t.store.failStage == "audit" {
		return errInjected
	}
	t.activity = append(t.activity, entry)
	return nil
}

func (s *memStore) QueueItems(ctx context.Context, q ViewQuery) ([]types.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[types.Status]bool, len(q.Statuses))
	for _, st := range q.Statuses {
		want[st] = true
	}
	var items []types.QueueItem
	for _, o := range s.orders {
		if len(want) > 0 && !want[o.Status] {
			continue
		}
		items = append(items, types.QueueItem{
			ID: o.ID, Status: o.Status, PendingOrder: o.PendingOrder, ScheduledPickupAt: o.ScheduledPickupAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return lessItem(items[i], items[j], q.Ordering) })
	return items, nil
}

func (s *memStore) CountQueueItems(ctx context.Context, q ViewQuery) (int, error) {
	items, err := s.QueueItems(ctx, q)
	return len(items), err
}

// lessItem mirrors the ORDER BY clauses the postgres store emits.
func lessItem(a, b types.QueueItem, ordering Ordering) bool {
	if ordering == OrderByPendingRank {
		if c := compareRank(a.PendingOrder, b.PendingOrder); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	}
	ap, bp := a.Status == types.PendingStatus, b.Status == types.PendingStatus
	if ap != bp {
		return ap
	}
	if ap {
		if c := compareRank(a.PendingOrder, b.PendingOrder); c != 0 {
			return c < 0
		}
	}
	if !a.ScheduledPickupAt.Equal(b.ScheduledPickupAt) {
		return a.ScheduledPickupAt.Before(b.ScheduledPickupAt)
	}
	return a.ID < b.ID
}

func compareRank(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
