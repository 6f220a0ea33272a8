package repository

import (
	"context"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	sq "github.com/Masterminds/squirrel"
)

const borrowingReturning = `RETURNING id, user_id, book_id, status, borrowed_at, due_date, returned_at`

func (r *repository) CreateBorrowing(ctx context.Context, rec model.BorrowingRecord) (model.BorrowingRecord, error) {
	query, args, err := qb.Insert(borrowingsTableName).
		Columns("id", "user_id", "book_id", "status", "borrowed_at", "due_date").
		Values(rec.ID, rec.UserID, rec.BookID, rec.Status, rec.BorrowedAt, rec.DueDate).
		Suffix(borrowingReturning).
		ToSql()
	if err != nil {
		return model.BorrowingRecord{}, err
	}
	created, err := queryOne[model.BorrowingRecord](ctx, r.db, query, args...)
	if err != nil {
		return model.BorrowingRecord{}, translate(err, "CreateBorrowing", nil)
	}
	return created, nil
}

func (r *repository) LockBorrowing(ctx context.Context, id string) (model.BorrowingRecord, error) {
	q := `
select id, user_id, book_id, status, borrowed_at, due_date, returned_at
from borrowings
where id = $1
for update`
	rec, err := queryOne[model.BorrowingRecord](ctx, r.db, q, id)
	if err != nil {
		return model.BorrowingRecord{}, translate(err, "LockBorrowing", errs.ErrBorrowingNotFound)
	}
	return rec, nil
}

func (r *repository) MarkReturned(ctx context.Context, id string, at time.Time) (model.BorrowingRecord, error) {
	q := `
update borrowings
    set status = $2, returned_at = $3
where id = $1 and status = $4
` + borrowingReturning
	rec, err := queryOne[model.BorrowingRecord](ctx, r.db, q, id, model.StatusReturned, at, model.StatusBorrowed)
	if err != nil {
		return model.BorrowingRecord{}, translate(err, "MarkReturned", errs.ErrAlreadyReturned)
	}
	return rec, nil
}

func (r *repository) HasActiveBorrowing(ctx context.Context, userID, bookID string) (bool, error) {
	n, err := r.count(ctx, qb.Select("count(*)").From(borrowingsTableName).
		Where(sq.Eq{"user_id": userID, "book_id": bookID, "status": model.StatusBorrowed}))
	return n > 0, err
}

func (r *repository) CountActiveByBook(ctx context.Context, bookID string) (int, error) {
	return r.count(ctx, qb.Select("count(*)").From(borrowingsTableName).
		Where(sq.Eq{"book_id": bookID, "status": model.StatusBorrowed}))
}

func (r *repository) ActiveBorrowingsByBook(ctx context.Context, bookID string) ([]model.ActiveBorrowing, error) {
	query, args, err := qb.Select("br.id", "br.user_id", "u.name as user_name", "u.email as user_email", "br.borrowed_at", "br.due_date").
		From(borrowingsTableName + " br").
		Join(usersTableName + " u on u.id = br.user_id").
		Where(sq.Eq{"br.book_id": bookID, "br.status": model.StatusBorrowed}).
		OrderBy("br.borrowed_at desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	items, err := queryAll[model.ActiveBorrowing](ctx, r.db, query, args...)
	return items, translate(err, "ActiveBorrowingsByBook", nil)
}

// ListBorrowings returns ledger rows newest first. An empty userID lists every user; limit 0 means no limit.
func (r *repository) ListBorrowings(ctx context.Context, userID string, limit int) ([]model.BorrowingView, error) {
	q := qb.Select(
		"br.id", "br.user_id", "br.book_id", "br.status", "br.borrowed_at", "br.due_date", "br.returned_at",
		"u.name as user_name", "u.email as user_email", "b.title as book_title", "b.author as book_author",
	).
		From(borrowingsTableName+" br").
		Join(usersTableName+" u on u.id = br.user_id").
		Join(booksTableName+" b on b.id = br.book_id").
		OrderBy("br.borrowed_at desc", "br.id")
	if userID != "" {
		q = q.Where(sq.Eq{"br.user_id": userID})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	items, err := queryAll[model.BorrowingView](ctx, r.db, query, args...)
	return items, translate(err, "ListBorrowings", nil)
}

func (r *repository) CountBorrowed(ctx context.Context, userID string) (int, error) {
	b := qb.Select("count(*)").From(borrowingsTableName).Where(sq.Eq{"status": model.StatusBorrowed})
	if userID != "" {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	return r.count(ctx, b)
}

func (r *repository) CountOverdue(ctx context.Context, userID string, now time.Time) (int, error) {
	b := qb.Select("count(*)").From(borrowingsTableName).
		Where(sq.Eq{"status": model.StatusBorrowed}).
		Where(sq.Lt{"due_date": now})
	if userID != "" {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	return r.count(ctx, b)
}
