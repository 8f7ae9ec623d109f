package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wellywell/laundry/internal/types"
)

// ReorderTx is the write surface of one reorder transaction.
type ReorderTx interface {
	// LockOrderRanks returns the rows that exist among ids, locked until commit.
	LockOrderRanks(ctx context.Context, ids []int) ([]types.OrderRank, error)
	ClearPendingRanks(ctx context.Context, ids []int) error
	// AssignPendingRanks sets pending_order to the 1-based position of each id.
	AssignPendingRanks(ctx context.Context, ids []int) error
	// RankRemainingPending ranks the PENDING orders not in listed from
	// len(listed)+1, keeping their previous relative order.
	RankRemainingPending(ctx context.Context, listed []int) error
	InsertActivity(ctx context.Context, entry types.ActivityEntry) error
}

// ReorderStore runs fn in a transaction, committing only when fn returns nil.
type ReorderStore interface {
	InReorderTx(ctx context.Context, fn func(tx ReorderTx) error) error
}

// IDList is a JSON list of positive order ids.
type IDList []int

func (l *IDList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ValidationError{Message: "'ids' must be a list of integers"}
	}
	ids := make(IDList, 0, len(raw))
	var bad []string
	for _, n := range raw {
		id, err := n.Int64()
		if err != nil || id <= 0 {
			bad = append(bad, n.String())
			continue
		}
		ids = append(ids, int(id))
	}
	if len(bad) > 0 {
		return &ValidationError{Message: "'ids' must contain only positive integers", Invalid: bad}
	}
	*l = ids
	return nil
}

// ReorderRequest is the payload of a pending reorder.
type ReorderRequest struct {
	IDs    IDList       `json:"ids"`
	Status StatusFilter `json:"status"`
}

type ReorderResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	IDs     []int  `json:"ids"`
}

type Engine struct {
	store ReorderStore
}

func NewEngine(store ReorderStore) *Engine {
	return &Engine{store: store}
}

// Reorder makes ids the head of the PENDING sequence, ranked 1..len(ids) in
// the given order. PENDING orders left out follow in their previous order.
// Either every rank and the audit entry commit, or nothing does.
func (e *Engine) Reorder(ctx context.Context, ids []int, actorID int) (*ReorderResult, error) {
	if err := validateShape(ids); err != nil {
		return nil, err
	}

	err := e.store.InReorderTx(ctx, func(tx ReorderTx) error {
		rows, err := tx.LockOrderRanks(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int]types.OrderRank, len(rows))
		for _, r := range rows {
			byID[r.ID] = r
		}

		var missing, notPending []int
		for _, id := range ids {
			r, ok := byID[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			if r.Status != types.PendingStatus {
				notPending = append(notPending, id)
			}
		}
		if len(missing) > 0 {
			return &NotFoundError{Missing: missing}
		}
		if len(notPending) > 0 {
			return &StateConflictError{NotPending: notPending}
		}

		if err := tx.ClearPendingRanks(ctx, ids); err != nil {
			return fmt.Errorf("failed clearing ranks %w", err)
		}
		if err := tx.AssignPendingRanks(ctx, ids); err != nil {
			return fmt.Errorf("failed assigning ranks %w", err)
		}
		if err := tx.RankRemainingPending(ctx, ids); err != nil {
			return fmt.Errorf("failed ranking remaining orders %w", err)
		}
		actor := actorID
		return tx.InsertActivity(ctx, types.ActivityEntry{
			OrderID:     ids[0],
			UserID:      &actor,
			Action:      types.UpdatedAction,
			Description: fmt.Sprintf("Manual reorder of PENDING queue. Total items=%d", len(ids)),
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]int, len(ids))
	copy(out, ids)
	return &ReorderResult{Message: "PENDING order updated", Count: len(ids), IDs: out}, nil
}

func validateShape(ids []int) error {
	if len(ids) == 0 {
		return &ValidationError{Message: "'ids' must be a non-empty list"}
	}
	seen := make(map[int]struct{}, len(ids))
	var dups []int
	for _, id := range ids {
		if id <= 0 {
			return &ValidationError{Message: "'ids' must contain only positive integers", Invalid: []string{fmt.Sprint(id)}}
		}
		if _, ok := seen[id]; ok {
			dups = append(dups, id)
			continue
		}
		seen[id] = struct{}{}
	}
	if len(dups) > 0 {
		return &DuplicateIDsError{Duplicates: dups}
	}
	return nil
}
