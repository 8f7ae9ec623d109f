package queue

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellywell/laundry/internal/types"
)

func ranks(s *memStore, ids ...int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		r := s.rankOf(id)
		if r == nil {
			out[i] = 0
			continue
		}
		out[i] = *r
	}
	return out
}

func TestReorderAssignsPositionalRanks(t *testing.T) {
	store := newMemStore(pendingOrder(5, 3), pendingOrder(2, 1), pendingOrder(8, 2))
	engine := NewEngine(store)

	res, err := engine.Reorder(context.Background(), []int{5, 2, 8}, 7)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Count)
	assert.Equal(t, []int{5, 2, 8}, res.IDs)
	assert.Equal(t, []int{1, 2, 3}, ranks(store, 5, 2, 8))

	require.Len(t, store.activity, 1)
	entry := store.activity[0]
	assert.Equal(t, 5, entry.OrderID)
	assert.Equal(t, 7, *entry.UserID)
	assert.Equal(t, types.UpdatedAction, entry.Action)
	assert.Contains(t, entry.Description, "Total items=3")
}

func TestReorderDenseRankProperty(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for n := 1; n <= 12; n++ {
		var orders []types.Order
		ids := make([]int, n)
		for i := 0; i < n; i++ {
			ids[i] = 100 + i
			orders = append(orders, pendingOrder(ids[i], i+1))
		}
		store := newMemStore(orders...)
		rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		_, err := NewEngine(store).Reorder(context.Background(), ids, 1)
		require.NoError(t, err)

		for pos, id := range ids {
			assert.Equal(t, pos+1, *store.rankOf(id))
		}
	}
}

func TestReorderSubsetKeepsRanksDense(t *testing.T) {
	store := newMemStore(
		pendingOrder(1, 1), pendingOrder(2, 2), pendingOrder(3, 3), pendingOrder(4, 4),
		orderWithStatus(9, types.StartedStatus, 0),
	)

	_, err := NewEngine(store).Reorder(context.Background(), []int{4, 2}, 1)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2, 4, 1}, ranks(store, 1, 2, 3, 4))
	assert.Nil(t, store.rankOf(9))
}

func TestReorderFailures(t *testing.T) {

	testCases := []struct {
		name     string
		ids      []int
		check    func(t *testing.T, err error)
		wantCode string
		status   int
	}{
		{
			name:     "empty",
			ids:      []int{},
			wantCode: CodeValidation,
			status:   400,
		},
		{
			name:     "non positive",
			ids:      []int{5, 0},
			wantCode: CodeValidation,
			status:   400,
		},
		{
			name:     "duplicates",
			ids:      []int{5, 2, 5},
			wantCode: CodeDuplicateIDs,
			status:   400,
			check: func(t *testing.T, err error) {
				var dup *DuplicateIDsError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, []int{5}, dup.Duplicates)
			},
		},
		{
			name:     "missing",
			ids:      []int{5, 2, 99},
			wantCode: CodeNotFound,
			status:   404,
			check: func(t *testing.T, err error) {
				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, []int{99}, nf.Missing)
				assert.Equal(t, []int{99}, nf.Body().Missing)
			},
		},
		{
			name:     "not pending",
			ids:      []int{5, 2, 3},
			wantCode: CodeInvalidState,
			status:   400,
			check: func(t *testing.T, err error) {
				var sc *StateConflictError
				require.ErrorAs(t, err, &sc)
				assert.Equal(t, []int{3}, sc.NotPending)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore(pendingOrder(5, 1), pendingOrder(2, 2), orderWithStatus(3, types.DeliveredStatus, 0))

			_, err := NewEngine(store).Reorder(context.Background(), tc.ids, 1)
			require.Error(t, err)

			coded, ok := err.(CodedError)
			require.True(t, ok)
			assert.Equal(t, tc.wantCode, coded.Code())
			assert.Equal(t, tc.status, coded.HTTPStatus())
			if tc.check != nil {
				tc.check(t, err)
			}

			assert.Equal(t, []int{1, 2, 0}, ranks(store, 5, 2, 3))
			assert.Empty(t, store.activity)
		})
	}
}

func TestReorderAtomicWithManyValid(t *testing.T) {
	store := newMemStore(
		pendingOrder(1, 1), pendingOrder(2, 2), pendingOrder(3, 3), pendingOrder(4, 4), pendingOrder(5, 5),
	)

	_, err := NewEngine(store).Reorder(context.Background(), []int{5, 4, 3, 404, 2, 1}, 1)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int{404}, nf.Missing)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ranks(store, 1, 2, 3, 4, 5))
}

func TestReorderRollsBackOnWriteFailure(t *testing.T) {
	for _, stage := range []string{"clear", "assign", "rest", "audit"} {
		t.Run(stage, func(t *testing.T) {
			store := newMemStore(pendingOrder(1, 1), pendingOrder(2, 2))
			store.failStage = stage

			_, err := NewEngine(store).Reorder(context.Background(), []int{2, 1}, 1)
			assert.ErrorIs(t, err, errInjected)
			assert.Equal(t, []int{1, 2}, ranks(store, 1, 2))
			assert.Empty(t, store.activity)
		})
	}
}

func TestReorderRequestDecode(t *testing.T) {

	testCases := []struct {
		body    string
		ids     []int
		status  []string
		wantErr bool
	}{
		{body: `{"ids": [5, 2, 8]}`, ids: []int{5, 2, 8}, status: []string{}},
		{body: `{"ids": ["5", 2], "status": "pending"}`, ids: []int{5, 2}, status: []string{"PENDING"}},
		{body: `{"ids": null}`, ids: nil, status: []string{}},
		{body: `{}`, ids: nil, status: []string{}},
		{body: `{"ids": "5"}`, wantErr: true},
		{body: `{"ids": [1.5]}`, wantErr: true},
		{body: `{"ids": [true]}`, wantErr: true},
		{body: `{"ids": [-1]}`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.body, func(t *testing.T) {
			var req ReorderRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ids, []int(req.IDs))
			assert.Equal(t, tc.status, req.Status.Normalize())
		})
	}
}
