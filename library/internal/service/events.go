package service

import (
	"context"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/policy"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"go.uber.org/zap"
)

const defaultActivityLimit = 100

// publish runs after commit; a lost event never fails the workflow that produced it.
func (s *Service) publish(ctx context.Context, event kafka.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event", zap.String("type", string(event.EventType)), zap.Error(err))
	}
}

// RecordActivity stores one consumed event in the activity log.
func (s *Service) RecordActivity(ctx context.Context, event kafka.Event) error {
	a := model.Activity{
		OccurredAt: event.Timestamp,
		EventType:  string(event.EventType),
		UserID:     event.UserID,
		Payload:    event.Payload,
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = s.clock()
	}
	if a.Payload == nil {
		a.Payload = map[string]string{}
	}
	if event.BookID != "" {
		a.BookID = &event.BookID
	}
	if event.BorrowingID != "" {
		a.BorrowingID = &event.BorrowingID
	}
	return s.repo.SaveActivity(ctx, a)
}

func (s *Service) ListActivity(ctx context.Context, actor auth.Actor, limit int) ([]model.Activity, error) {
	if err := policy.Authorize(actor, policy.ListActivity, ""); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultActivityLimit {
		limit = defaultActivityLimit
	}
	return s.repo.ListActivity(ctx, limit)
}
