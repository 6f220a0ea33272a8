package service

import (
	"context"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/policy"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"golang.org/x/sync/errgroup"
)

const recentBorrowingsLimit = 5

// Dashboard returns library-wide counters for staff and personal ones for members.
func (s *Service) Dashboard(ctx context.Context, actor auth.Actor) (model.DashboardStats, error) {
	if actor.UserID == "" {
		return model.DashboardStats{}, errs.ErrUnauthorized
	}
	staff := policy.Authorize(actor, policy.StaffStats, "") == nil
	userID := actor.UserID
	if staff {
		userID = ""
	}
	now := s.clock()

	var (
		stats   = model.DashboardStats{IsStaff: staff}
		members int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalBooks, err = s.repo.CountBooks(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.BorrowedBooks, err = s.repo.CountBorrowed(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.OverdueBooks, err = s.repo.CountOverdue(gctx, userID, now)
		return err
	})
	if staff {
		g.Go(func() (err error) {
			members, err = s.repo.CountUsers(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.DashboardStats{}, err
	}
	if staff {
		stats.TotalMembers = &members
	}
	return stats, nil
}

func (s *Service) RecentBorrowings(ctx context.Context, actor auth.Actor) ([]model.BorrowingView, error) {
	return s.borrowings(ctx, actor, recentBorrowingsLimit)
}
