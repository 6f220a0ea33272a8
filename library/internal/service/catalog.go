package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/policy"
	"github.com/AliMakkawi/library-management/library/internal/repository"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/google/uuid"
)

const timeLayout = time.RFC3339

func (s *Service) ListBooks(ctx context.Context, search string, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, strings.TrimSpace(search), page, size)
}

func (s *Service) GetBook(ctx context.Context, id string) (model.BookDetails, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.BookDetails{}, err
	}
	active, err := s.repo.ActiveBorrowingsByBook(ctx, id)
	if err != nil {
		return model.BookDetails{}, err
	}
	if active == nil {
		active = []model.ActiveBorrowing{}
	}
	return model.BookDetails{Book: book, ActiveBorrowings: active}, nil
}

func (s *Service) CreateBook(ctx context.Context, actor auth.Actor, in model.BookInput) (model.Book, error) {
	if err := policy.Authorize(actor, policy.CreateBook, ""); err != nil {
		return model.Book{}, err
	}
	in = normalizeBook(in)

	var book model.Book
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		taken, err := tx.ISBNTaken(ctx, in.ISBN, "")
		if err != nil {
			return err
		}
		if taken {
			return errs.ErrISBNTaken
		}
		now := s.clock()
		book, err = tx.CreateBook(ctx, model.Book{
			ID:              uuid.NewString(),
			ISBN:            in.ISBN,
			Title:           in.Title,
			Author:          in.Author,
			Genre:           in.Genre,
			Description:     in.Description,
			CoverImage:      in.CoverImage,
			PublicationYear: in.PublicationYear,
			TotalCopies:     in.TotalCopies,
			AvailableCopies: in.TotalCopies,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		return err
	})
	if err != nil {
		return model.Book{}, err
	}

	s.publish(ctx, kafka.Event{
		EventType: kafka.EventBookCreated,
		UserID:    actor.UserID,
		BookID:    book.ID,
		Payload:   map[string]string{"title": book.Title, "isbn": book.ISBN},
	})
	return book, nil
}

// UpdateBook applies the copy-count delta to availableCopies, never going below zero.
func (s *Service) UpdateBook(ctx context.Context, actor auth.Actor, id string, in model.BookInput) (model.Book, error) {
	if err := policy.Authorize(actor, policy.UpdateBook, ""); err != nil {
		return model.Book{}, err
	}
	in = normalizeBook(in)

	var book model.Book
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		current, err := tx.LockBook(ctx, id)
		if err != nil {
			return err
		}
		taken, err := tx.ISBNTaken(ctx, in.ISBN, id)
		if err != nil {
			return err
		}
		if taken {
			return errs.ErrISBNTaken
		}
		current.ISBN = in.ISBN
		current.Title = in.Title
		current.Author = in.Author
		current.Genre = in.Genre
		current.Description = in.Description
		current.CoverImage = in.CoverImage
		current.PublicationYear = in.PublicationYear
		current.AvailableCopies = reconcileAvailable(current.AvailableCopies, current.TotalCopies, in.TotalCopies)
		current.TotalCopies = in.TotalCopies
		current.UpdatedAt = s.clock()
		book, err = tx.UpdateBook(ctx, current)
		return err
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func reconcileAvailable(available, oldTotal, newTotal int) int {
	return max(0, available+newTotal-oldTotal)
}

func (s *Service) DeleteBook(ctx context.Context, actor auth.Actor, id string) error {
	if err := policy.Authorize(actor, policy.DeleteBook, ""); err != nil {
		return err
	}
	var title string
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		book, err := tx.LockBook(ctx, id)
		if err != nil {
			return err
		}
		title = book.Title
		active, err := tx.CountActiveByBook(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return errs.ErrActiveBorrowings
		}
		return tx.DeleteBook(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, kafka.Event{
		EventType: kafka.EventBookDeleted,
		UserID:    actor.UserID,
		BookID:    id,
		Payload:   map[string]string{"title": title},
	})
	return nil
}

func normalizeBook(in model.BookInput) model.BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Genre = strings.TrimSpace(in.Genre)
	in.Description = emptyToNil(in.Description)
	in.CoverImage = emptyToNil(in.CoverImage)
	return in
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// CoverURL is the Open Library cover for an ISBN.
func CoverURL(isbn string) string {
	return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
}
