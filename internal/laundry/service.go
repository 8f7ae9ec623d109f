// Package laundry runs order mutations and announces the queue topics they touch.
package laundry

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

type Store interface {
	CreateOrder(ctx context.Context, in types.NewOrder, actorID int) (*types.Order, error)
	UpdateOrder(ctx context.Context, id int, p types.OrderPatch, actorID int) (*types.OrderChange, error)
	ChangeOrderStatus(ctx context.Context, id int, status types.Status, actorID int) (*types.OrderChange, error)
	DeleteOrder(ctx context.Context, id int) (types.Status, error)

	CreateStep(ctx context.Context, in types.NewProcessingStep, actorID int) (*types.StepChange, error)
	UpdateStep(ctx context.Context, id int, p types.ProcessingStepPatch) (*types.StepChange, error)
	CompleteStep(ctx context.Context, id int, actorID int) (*types.StepChange, error)
	DeleteStep(ctx context.Context, id int) (types.Status, error)
}

type Publisher interface {
	PublishQueueUpdate(ctx context.Context, statuses ...types.Status)
}

type Reorderer interface {
	Reorder(ctx context.Context, ids []int, actorID int) (*queue.ReorderResult, error)
}

type Service struct {
	store     Store
	engine    Reorderer
	publisher Publisher
}

func NewService(store Store, engine Reorderer, publisher Publisher) *Service {
	return &Service{store: store, engine: engine, publisher: publisher}
}

// publish runs after commit. It detaches from the request context so a
// client hanging up does not cut other viewers off.
func (s *Service) publish(ctx context.Context, statuses ...types.Status) {
	s.publisher.PublishQueueUpdate(context.WithoutCancel(ctx), statuses...)
}

func invalidStatus(st types.Status) error {
	valid := make([]string, len(types.Statuses))
	for i, v := range types.Statuses {
		valid[i] = string(v)
	}
	return &queue.ValidationError{Message: "invalid status", Invalid: []string{string(st)}, Valid: valid}
}

func normalizeStatus(st types.Status) types.Status {
	return types.Status(strings.ToUpper(strings.TrimSpace(string(st))))
}

func validateLabel(l types.ServiceLabel) error {
	if !l.Valid() {
		return &queue.ValidationError{
			Message: "invalid service_label",
			Invalid: []string{string(l)},
			Valid:   []string{string(types.ExpressLabel), string(types.NormalLabel)},
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in types.NewOrder, actorID int) (*types.Order, error) {
	var missing []string
	if in.ClientID <= 0 {
		missing = append(missing, "client_id")
	}
	if in.ClientAddressID <= 0 {
		missing = append(missing, "client_address_id")
	}
	if in.ScheduledPickupAt.IsZero() {
		missing = append(missing, "scheduled_pickup_at")
	}
	if len(missing) > 0 {
		return nil, &queue.ValidationError{Message: "missing required fields", Invalid: missing}
	}

	if in.Status == "" {
		in.Status = types.PendingStatus
	}
	in.Status = normalizeStatus(in.Status)
	if !in.Status.Valid() {
		return nil, invalidStatus(in.Status)
	}
	if in.ServiceLabel == "" {
		in.ServiceLabel = types.NormalLabel
	}
	if err := validateLabel(in.ServiceLabel); err != nil {
		return nil, err
	}

	order, err := s.store.CreateOrder(ctx, in, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed creating order %w", err)
	}
	logger.WithFields(logger.Fields{"order": order.ID, "status": order.Status}).Info("Order created")

	s.publish(ctx, order.Status)
	return order, nil
}

func (s *Service) Update(ctx context.Context, id int, p types.OrderPatch, actorID int) (*types.Order, error) {
	if p.Status != nil {
		st := normalizeStatus(*p.Status)
		if !st.Valid() {
			return nil, invalidStatus(st)
		}
		p.Status = &st
	}
	if p.ServiceLabel != nil {
		if err := validateLabel(*p.ServiceLabel); err != nil {
			return nil, err
		}
	}

	change, err := s.store.UpdateOrder(ctx, id, p, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed updating order %w", err)
	}

	s.publish(ctx, change.PreviousStatus, change.Order.Status)
	return &change.Order, nil
}

func (s *Service) ChangeStatus(ctx context.Context, id int, status types.Status, actorID int) (*types.Order, error) {
	status = normalizeStatus(status)
	if !status.Valid() {
		return nil, invalidStatus(status)
	}

	change, err := s.store.ChangeOrderStatus(ctx, id, status, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed changing order status %w", err)
	}
	logger.WithFields(logger.Fields{
		"order": id,
		"from":  change.PreviousStatus,
		"to":    change.Order.Status,
	}).Info("Order status changed")

	s.publish(ctx, change.PreviousStatus, change.Order.Status)
	return &change.Order, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	status, err := s.store.DeleteOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("failed deleting order %w", err)
	}
	logger.WithField("order", id).Info("Order deleted")

	s.publish(ctx, status)
	return nil
}

// Reorder applies a manual PENDING reorder and announces the PENDING topics.
func (s *Service) Reorder(ctx context.Context, ids []int, actorID int) (*queue.ReorderResult, error) {
	res, err := s.engine.Reorder(ctx, ids, actorID)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"count": res.Count, "user": actorID}).Info("Pending queue reordered")

	s.publish(ctx, types.PendingStatus)
	return res, nil
}
