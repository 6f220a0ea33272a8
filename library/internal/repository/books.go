package repository

import (
	"context"
	"strings"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

var bookColumns = []string{
	"id", "isbn", "title", "author", "genre", "description", "cover_image",
	"publication_year", "total_copies", "available_copies", "ai_summary", "created_at", "updated_at",
}

func (r *repository) ListBooks(ctx context.Context, search string, page, size int) (model.ListBooks, error) {
	q := qb.Select(bookColumns...).From(booksTableName)
	c := qb.Select("count(*)").From(booksTableName)
	if search != "" {
		p := likePattern(search)
		match := sq.Or{
			sq.ILike{"title": p},
			sq.ILike{"author": p},
			sq.ILike{"genre": p},
			sq.ILike{"isbn": p},
		}
		q = q.Where(match)
		c = c.Where(match)
	}
	q = q.OrderBy("created_at desc", "id")
	if page > 0 && size > 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	books, err := queryAll[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return model.ListBooks{}, translate(err, "ListBooks", nil)
	}
	total, err := r.count(ctx, c)
	if err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func (r *repository) AllBooks(ctx context.Context) ([]model.Book, error) {
	return r.selectBooks(ctx, qb.Select(bookColumns...).From(booksTableName).OrderBy("title"))
}

func (r *repository) BooksByIDs(ctx context.Context, ids []string) ([]model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.selectBooks(ctx, qb.Select(bookColumns...).From(booksTableName).Where(sq.Eq{"id": ids}))
}

func (r *repository) selectBooks(ctx context.Context, b sq.SelectBuilder) ([]model.Book, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	books, err := queryAll[model.Book](ctx, r.db, query, args...)
	return books, translate(err, "selectBooks", nil)
}

func (r *repository) GetBook(ctx context.Context, id string) (model.Book, error) {
	return r.getBook(ctx, qb.Select(bookColumns...).From(booksTableName).Where(sq.Eq{"id": id}))
}

// LockBook reads the book row with FOR UPDATE; only meaningful inside InTx.
func (r *repository) LockBook(ctx context.Context, id string) (model.Book, error) {
	return r.getBook(ctx, qb.Select(bookColumns...).From(booksTableName).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *repository) getBook(ctx context.Context, b sq.SelectBuilder) (model.Book, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return model.Book{}, err
	}
	book, err := queryOne[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return model.Book{}, translate(err, "getBook", errs.ErrBookNotFound)
	}
	return book, nil
}

func (r *repository) ISBNTaken(ctx context.Context, isbn, exceptID string) (bool, error) {
	b := qb.Select("count(*)").From(booksTableName).Where(sq.Eq{"isbn": isbn})
	if exceptID != "" {
		b = b.Where(sq.NotEq{"id": exceptID})
	}
	n, err := r.count(ctx, b)
	return n > 0, err
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("id", "isbn", "title", "author", "genre", "description", "cover_image",
			"publication_year", "total_copies", "available_copies", "created_at", "updated_at").
		Values(book.ID, book.ISBN, book.Title, book.Author, book.Genre, book.Description, book.CoverImage,
			book.PublicationYear, book.TotalCopies, book.AvailableCopies, book.CreatedAt, book.UpdatedAt).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	created, err := queryOne[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return model.Book{}, translate(err, "CreateBook", nil)
	}
	return created, nil
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]any{
			"isbn":             book.ISBN,
			"title":            book.Title,
			"author":           book.Author,
			"genre":            book.Genre,
			"description":      book.Description,
			"cover_image":      book.CoverImage,
			"publication_year": book.PublicationYear,
			"total_copies":     book.TotalCopies,
			"available_copies": book.AvailableCopies,
			"updated_at":       book.UpdatedAt,
		}).
		Where(sq.Eq{"id": book.ID}).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	updated, err := queryOne[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return model.Book{}, translate(err, "UpdateBook", errs.ErrBookNotFound)
	}
	return updated, nil
}

func (r *repository) DeleteBook(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "DeleteBook", errs.ErrBookNotFound, `delete from books where id = $1`, id)
}

// DecrementAvailable takes one copy if any is left and reports whether it did.
func (r *repository) DecrementAvailable(ctx context.Context, bookID string) (bool, error) {
	q := `
update books
    set available_copies = available_copies - 1, updated_at = now()
where id = $1 and available_copies > 0`
	tag, err := r.db.Exec(ctx, q, bookID)
	if err != nil {
		return false, translate(err, "DecrementAvailable", errs.ErrBookNotFound)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) IncrementAvailable(ctx context.Context, bookID string) error {
	q := `
update books
    set available_copies = available_copies + 1, updated_at = now()
where id = $1`
	return execOne(ctx, r.db, "IncrementAvailable", errs.ErrBookNotFound, q, bookID)
}

func (r *repository) SetAISummary(ctx context.Context, bookID, summary string) error {
	return execOne(ctx, r.db, "SetAISummary", errs.ErrBookNotFound,
		`update books set ai_summary = $2, updated_at = $3 where id = $1`, bookID, summary, time.Now().UTC())
}

func (r *repository) CountBooks(ctx context.Context) (int, error) {
	return r.count(ctx, qb.Select("count(*)").From(booksTableName))
}
