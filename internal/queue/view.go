package queue

import (
	"context"
	"fmt"

	"github.com/wellywell/laundry/internal/types"
)

// Ordering selects the queue sort policy.
type Ordering int

const (
	// OrderPendingFirst puts PENDING rows first by rank, then sorts by
	// scheduled pickup and id.
	OrderPendingFirst Ordering = iota
	// OrderByPendingRank sorts by pending rank then id. Used when the filter
	// is exactly PENDING.
	OrderByPendingRank
)

// ViewQuery is what the store needs to run one queue read.
type ViewQuery struct {
	Statuses []types.Status
	Ordering Ordering
}

// ViewStore reads queue rows. QueueItems may cap its result; CountQueueItems
// counts every row the query matches.
type ViewStore interface {
	QueueItems(ctx context.Context, q ViewQuery) ([]types.QueueItem, error)
	CountQueueItems(ctx context.Context, q ViewQuery) (int, error)
}

// View is a ranked, filtered snapshot of the queue.
type View struct {
	Topic    string            `json:"room"`
	Statuses []string          `json:"-"`
	Items    []types.QueueItem `json:"items"`
	Total    int               `json:"total"`
}

type ViewBuilder struct {
	store ViewStore
}

func NewViewBuilder(store ViewStore) *ViewBuilder {
	return &ViewBuilder{store: store}
}

// Plan normalizes and validates a filter without touching the store.
func Plan(f StatusFilter) (ViewQuery, []string, error) {
	norm := f.Normalize()

	var invalid []string
	statuses := make([]types.Status, 0, len(norm))
	for _, s := range norm {
		st := types.Status(s)
		if !st.Valid() {
			invalid = append(invalid, s)
			continue
		}
		statuses = append(statuses, st)
	}
	if len(invalid) > 0 {
		return ViewQuery{}, norm, &ValidationError{
			Message: "invalid status",
			Invalid: invalid,
			Valid:   validStatuses(),
		}
	}

	ordering := OrderPendingFirst
	if len(statuses) == 1 && statuses[0] == types.PendingStatus {
		ordering = OrderByPendingRank
	}
	return ViewQuery{Statuses: statuses, Ordering: ordering}, norm, nil
}

func (b *ViewBuilder) Build(ctx context.Context, f StatusFilter) (*View, error) {
	q, norm, err := Plan(f)
	if err != nil {
		return nil, err
	}
	items, err := b.store.QueueItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed reading queue %w", err)
	}
	if items == nil {
		items = []types.QueueItem{}
	}
	total, err := b.store.CountQueueItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed counting queue %w", err)
	}
	if total < len(items) {
		total = len(items)
	}
	return &View{
		Topic:    Topic(norm),
		Statuses: norm,
		Items:    items,
		Total:    total,
	}, nil
}

func validStatuses() []string {
	out := make([]string, len(types.Statuses))
	for i, s := range types.Statuses {
		out[i] = string(s)
	}
	return out
}
