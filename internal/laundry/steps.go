package laundry

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

var stepTypes = []string{string(types.WashAndIronStep), string(types.WashingStep), string(types.IroningStep)}

func normalizeStepType(st types.StepType) (types.StepType, error) {
	st = types.StepType(strings.ToUpper(strings.TrimSpace(string(st))))
	if !st.Valid() {
		return st, &queue.ValidationError{Message: "invalid step_type", Invalid: []string{string(st)}, Valid: stepTypes}
	}
	return st, nil
}

// Queue items show the open step of their order. Step writes announce the
// order's status.

func (s *Service) CreateStep(ctx context.Context, in types.NewProcessingStep, actorID int) (*types.ProcessingStep, error) {
	if in.OrderID <= 0 {
		return nil, &queue.ValidationError{Message: "missing required fields", Invalid: []string{"laundry_service_id"}}
	}
	if in.StepType == "" {
		in.StepType = types.WashingStep
	}
	st, err := normalizeStepType(in.StepType)
	if err != nil {
		return nil, err
	}
	in.StepType = st

	change, err := s.store.CreateStep(ctx, in, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed creating step %w", err)
	}
	logger.WithFields(logger.Fields{"order": in.OrderID, "step": change.Step.ID}).Info("Processing step started")

	s.publish(ctx, change.OrderStatus)
	return &change.Step, nil
}

func (s *Service) UpdateStep(ctx context.Context, id int, p types.ProcessingStepPatch) (*types.ProcessingStep, error) {
	if p.StepType != nil {
		st, err := normalizeStepType(*p.StepType)
		if err != nil {
			return nil, err
		}
		p.StepType = &st
	}

	change, err := s.store.UpdateStep(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("failed updating step %w", err)
	}

	s.publish(ctx, change.OrderStatus)
	return &change.Step, nil
}

func (s *Service) CompleteStep(ctx context.Context, id int, actorID int) (*types.ProcessingStep, error) {
	change, err := s.store.CompleteStep(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed completing step %w", err)
	}
	logger.WithFields(logger.Fields{"step": id, "user": actorID}).Info("Processing step completed")

	s.publish(ctx, change.OrderStatus)
	return &change.Step, nil
}

func (s *Service) DeleteStep(ctx context.Context, id int) error {
	status, err := s.store.DeleteStep(ctx, id)
	if err != nil {
		return fmt.Errorf("failed deleting step %w", err)
	}

	s.publish(ctx, status)
	return nil
}
