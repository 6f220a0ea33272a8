package repository

import (
	"context"

	"github.com/AliMakkawi/library-management/library/internal/model"
)

func (r *repository) SaveActivity(ctx context.Context, a model.Activity) error {
	query, args, err := qb.Insert(activityTableName).
		Columns("occurred_at", "event_type", "user_id", "book_id", "borrowing_id", "payload").
		Values(a.OccurredAt, a.EventType, a.UserID, a.BookID, a.BorrowingID, a.Payload).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return translate(err, "SaveActivity", nil)
}

func (r *repository) ListActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	q := qb.Select("id", "occurred_at", "event_type", "user_id", "book_id", "borrowing_id", "payload").
		From(activityTableName).
		OrderBy("occurred_at desc", "id desc")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	items, err := queryAll[model.Activity](ctx, r.db, query, args...)
	return items, translate(err, "ListActivity", nil)
}
