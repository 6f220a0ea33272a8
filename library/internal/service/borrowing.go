package service

import (
	"context"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/policy"
	"github.com/AliMakkawi/library-management/library/internal/repository"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/google/uuid"
)

// Checkout lends one copy of bookID to actor.
// Preconditions are checked in order: book exists, a copy is left, actor holds no active loan of it.
func (s *Service) Checkout(ctx context.Context, actor auth.Actor, bookID string) (model.BorrowingRecord, error) {
	if err := policy.Authorize(actor, policy.Checkout, actor.UserID); err != nil {
		return model.BorrowingRecord{}, err
	}

	var rec model.BorrowingRecord
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}
		if book.AvailableCopies <= 0 {
			return errs.ErrNoCopiesAvailable
		}
		active, err := tx.HasActiveBorrowing(ctx, actor.UserID, bookID)
		if err != nil {
			return err
		}
		if active {
			return errs.ErrAlreadyCheckedOut
		}

		now := s.clock()
		rec, err = tx.CreateBorrowing(ctx, model.BorrowingRecord{
			ID:         uuid.NewString(),
			UserID:     actor.UserID,
			BookID:     bookID,
			Status:     model.StatusBorrowed,
			BorrowedAt: now,
			DueDate:    now.Add(s.loanPeriod),
		})
		if err != nil {
			return err
		}
		taken, err := tx.DecrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !taken {
			return errs.ErrNoCopiesAvailable
		}
		return nil
	})
	s.metrics.Workflow("checkout", err)
	if err != nil {
		return model.BorrowingRecord{}, err
	}

	s.publish(ctx, kafka.Event{
		EventType:   kafka.EventBookCheckedOut,
		UserID:      actor.UserID,
		BookID:      bookID,
		BorrowingID: rec.ID,
		Payload:     map[string]string{"dueDate": rec.DueDate.Format(timeLayout)},
	})
	return rec, nil
}

// ReturnBook closes an active loan and puts the copy back.
// Order: record exists, not yet returned, actor is the borrower or staff.
func (s *Service) ReturnBook(ctx context.Context, actor auth.Actor, borrowingID string) (model.BorrowingRecord, error) {
	var rec model.BorrowingRecord
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		current, err := tx.LockBorrowing(ctx, borrowingID)
		if err != nil {
			return err
		}
		if current.Status == model.StatusReturned {
			return errs.ErrAlreadyReturned
		}
		if err = policy.Authorize(actor, policy.Return, current.UserID); err != nil {
			return err
		}
		if rec, err = tx.MarkReturned(ctx, borrowingID, s.clock()); err != nil {
			return err
		}
		return tx.IncrementAvailable(ctx, current.BookID)
	})
	s.metrics.Workflow("return", err)
	if err != nil {
		return model.BorrowingRecord{}, err
	}

	s.publish(ctx, kafka.Event{
		EventType:   kafka.EventBookReturned,
		UserID:      actor.UserID,
		BookID:      rec.BookID,
		BorrowingID: rec.ID,
		Payload:     map[string]string{"borrowerId": rec.UserID},
	})
	return rec, nil
}

// ListBorrowings shows staff the whole ledger and members their own records.
func (s *Service) ListBorrowings(ctx context.Context, actor auth.Actor) ([]model.BorrowingView, error) {
	return s.borrowings(ctx, actor, 0)
}

func (s *Service) borrowings(ctx context.Context, actor auth.Actor, limit int) ([]model.BorrowingView, error) {
	if actor.UserID == "" {
		return nil, errs.ErrUnauthorized
	}
	userID := actor.UserID
	if policy.Authorize(actor, policy.ListAllBorrowings, "") == nil {
		userID = ""
	}
	return s.repo.ListBorrowings(ctx, userID, limit)
}
