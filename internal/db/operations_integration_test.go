//go:build integration_tests
// +build integration_tests

package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

func TestProcessingStepsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, types.StartedStatus, time.Now())

	change, err := f.database.CreateStep(ctx, types.NewProcessingStep{OrderID: order.ID, StepType: types.WashingStep}, f.userID)
	require.NoError(t, err)
	assert.Equal(t, types.StartedStatus, change.OrderStatus)
	assert.Equal(t, f.userID, change.Step.StartedByUserID)
	assert.Nil(t, change.Step.CompletedAt)
	stepID := change.Step.ID

	items, err := f.database.QueueItems(ctx, queue.ViewQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].CurrentStep)
	assert.Equal(t, types.WashingStep, *items[0].CurrentStep)

	ironing := types.IroningStep
	change, err = f.database.UpdateStep(ctx, stepID, types.ProcessingStepPatch{StepType: &ironing})
	require.NoError(t, err)
	assert.Equal(t, types.IroningStep, change.Step.StepType)

	change, err = f.database.CompleteStep(ctx, stepID, f.userID)
	require.NoError(t, err)
	require.NotNil(t, change.Step.CompletedAt)
	require.NotNil(t, change.Step.CompletedByUserID)
	assert.Equal(t, f.userID, *change.Step.CompletedByUserID)

	items, err = f.database.QueueItems(ctx, queue.ViewQuery{})
	require.NoError(t, err)
	assert.Nil(t, items[0].CurrentStep)

	page, err := f.database.ListSteps(ctx, types.StepFilter{OrderID: order.ID, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	status, err := f.database.DeleteStep(ctx, stepID)
	require.NoError(t, err)
	assert.Equal(t, types.StartedStatus, status)

	_, err = f.database.GetStep(ctx, stepID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.database.CreateStep(ctx, types.NewProcessingStep{OrderID: 999999, StepType: types.WashingStep}, f.userID)
	assert.ErrorAs(t, err, &nf)
}

func TestDeliveriesLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, types.ReadyForDeliveryStatus, time.Now())
	when := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	delivery, err := f.database.CreateDelivery(ctx, types.Delivery{OrderID: order.ID, ScheduledDeliveryAt: when}, f.userID)
	require.NoError(t, err)
	assert.Equal(t, types.DeliveryPending, delivery.Status)
	assert.Equal(t, f.userID, delivery.CreatedByUserID)

	note := "left at door"
	delivery, err = f.database.UpdateDelivery(ctx, delivery.ID, types.DeliveryPatch{CancelNote: &note})
	require.NoError(t, err)
	require.NotNil(t, delivery.CancelNote)
	assert.Equal(t, note, *delivery.CancelNote)

	delivery, err = f.database.ChangeDeliveryStatus(ctx, delivery.ID, types.DeliveryDelivered)
	require.NoError(t, err)
	assert.Equal(t, types.DeliveryDelivered, delivery.Status)
	assert.NotNil(t, delivery.DeliveredAt)

	page, err := f.database.ListDeliveries(ctx, types.DeliveryFilter{Status: types.DeliveryDelivered, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	page, err = f.database.ListDeliveries(ctx, types.DeliveryFilter{Status: types.DeliveryPending, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	require.NoError(t, f.database.DeleteDelivery(ctx, delivery.ID))
	var nf *NotFoundError
	assert.ErrorAs(t, f.database.DeleteDelivery(ctx, delivery.ID), &nf)

	_, err = f.database.CreateDelivery(ctx, types.Delivery{OrderID: 999999, ScheduledDeliveryAt: when}, f.userID)
	assert.ErrorAs(t, err, &nf)
}

func TestTaskViewsRecordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.database.CreateTask(ctx, types.Task{UserID: f.userID, Description: "fold towels"})
	require.NoError(t, err)

	first, created, err := f.database.RecordTaskView(ctx, task.ID, f.userID)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.database.RecordTaskView(ctx, task.ID, f.userID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	var nf *NotFoundError
	_, _, err = f.database.RecordTaskView(ctx, 999999, f.userID)
	assert.ErrorAs(t, err, &nf)

	missingSession := 999999
	_, err = f.database.CreateTask(ctx, types.Task{UserID: f.userID, WorkSessionID: &missingSession, Description: "x"})
	assert.ErrorAs(t, err, &nf)
}

func TestUserMenusFollowRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.database.GetRoleByName(ctx, "admin")
	require.NoError(t, err)

	root, err := f.database.CreateMenu(ctx, types.Menu{Label: "Laundry", Path: "/laundry", Order: 1})
	require.NoError(t, err)
	child, err := f.database.CreateMenu(ctx, types.Menu{Label: "Queue", Path: "/laundry/queue", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = f.database.CreateMenu(ctx, types.Menu{Label: "Hidden", Path: "/hidden"})
	require.NoError(t, err)

	require.NoError(t, f.database.AssignMenuRole(ctx, root.ID, admin.ID))
	require.NoError(t, f.database.AssignMenuRole(ctx, child.ID, admin.ID))
	require.NoError(t, f.database.AssignMenuRole(ctx, child.ID, admin.ID))

	menus, err := f.database.ListUserMenus(ctx, f.userID)
	require.NoError(t, err)
	tree := types.BuildMenuTree(menus)
	require.Len(t, tree, 1)
	assert.Equal(t, "Laundry", tree[0].Label)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Queue", tree[0].Children[0].Label)

	require.NoError(t, f.database.RemoveMenuRole(ctx, child.ID, admin.ID))
	menus, err = f.database.ListUserMenus(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, menus, 1)

	var nf *NotFoundError
	assert.ErrorAs(t, f.database.AssignMenuRole(ctx, 999999, admin.ID), &nf)
}

func TestTransactionCategoriesAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.database.CreateCategory(ctx, "Detergent")
	require.NoError(t, err)
	_, err = f.database.CreateCategory(ctx, "Detergent")
	var exists *CategoryExistsError
	assert.ErrorAs(t, err, &exists)

	other, err := f.database.CreateCategory(ctx, "Power")
	require.NoError(t, err)
	_, err = f.database.UpdateCategory(ctx, other.ID, "Detergent")
	assert.ErrorAs(t, err, &exists)

	updated, err := f.database.UpdateCategory(ctx, c.ID, "Soap")
	require.NoError(t, err)
	assert.Equal(t, "Soap", updated.CategoryName)
}

func TestPhonesAndAddressUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	phone, err := f.database.CreatePhone(ctx, types.Phone{ClientID: f.client.ID, PhoneNumber: "555-0100", IsPrimary: true})
	require.NoError(t, err)
	client, err := f.database.GetClient(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, client.Phones, 1)
	assert.Equal(t, phone.ID, client.Phones[0].ID)

	number := "555-0199"
	phone, err = f.database.UpdatePhone(ctx, f.client.ID, phone.ID, types.PhonePatch{PhoneNumber: &number})
	require.NoError(t, err)
	assert.Equal(t, number, phone.PhoneNumber)

	var nf *NotFoundError
	_, err = f.database.GetPhone(ctx, f.client.ID+1, phone.ID)
	assert.ErrorAs(t, err, &nf)
	_, err = f.database.CreatePhone(ctx, types.Phone{ClientID: 999999, PhoneNumber: "1"})
	assert.ErrorAs(t, err, &nf)

	second, err := f.database.CreateAddress(ctx, types.Address{ClientID: f.client.ID, AddressText: "Side 2"})
	require.NoError(t, err)
	primary := true
	image := "uploads/side.jpg"
	second, err = f.database.UpdateAddress(ctx, f.client.ID, second.ID, types.AddressPatch{IsPrimary: &primary, ImagePath: &image})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)
	require.NotNil(t, second.ImagePath)
	assert.Equal(t, image, *second.ImagePath)

	first, err := f.database.GetAddress(ctx, f.client.ID, f.address.ID)
	require.NoError(t, err)
	assert.False(t, first.IsPrimary)
}

func TestCompactOrdersSortModes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	late := f.createOrder(t, types.PendingStatus, now.Add(3*time.Hour))
	early := f.createOrder(t, types.PendingStatus, now.Add(time.Hour))
	started := f.createOrder(t, types.StartedStatus, now.Add(2*time.Hour))

	tests := []struct {
		name   string
		filter types.CompactFilter
		want   []int
		total  int
	}{
		{"recent", types.CompactFilter{SortMode: "recent"}, []int{started.ID, early.ID, late.ID}, 3},
		{"oldest", types.CompactFilter{SortMode: "oldest"}, []int{late.ID, early.ID, started.ID}, 3},
		{"agenda", types.CompactFilter{SortMode: "agenda"}, []int{early.ID, started.ID, late.ID}, 3},
		{"status default is agenda", types.CompactFilter{Status: types.PendingStatus}, []int{early.ID, late.ID}, 2},
		{"client filter", types.CompactFilter{ClientID: f.client.ID + 1}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Page, tt.filter.PerPage = 1, 10
			page, err := f.database.ListCompactOrders(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, page.Total)
			var ids []int
			for _, it := range page.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
