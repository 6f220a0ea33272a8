package repository

import (
	"context"
	"strings"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/pkg/auth"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Repository interface {
	// InTx runs fn inside one transaction; fn receives a Repository bound to it.
	// Nested calls reuse the outer transaction.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	ListBooks(ctx context.Context, search string, page, size int) (model.ListBooks, error)
	AllBooks(ctx context.Context) ([]model.Book, error)
	BooksByIDs(ctx context.Context, ids []string) ([]model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	LockBook(ctx context.Context, id string) (model.Book, error)
	ISBNTaken(ctx context.Context, isbn, exceptID string) (bool, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	DecrementAvailable(ctx context.Context, bookID string) (bool, error)
	IncrementAvailable(ctx context.Context, bookID string) error
	SetAISummary(ctx context.Context, bookID, summary string) error

	CreateBorrowing(ctx context.Context, rec model.BorrowingRecord) (model.BorrowingRecord, error)
	LockBorrowing(ctx context.Context, id string) (model.BorrowingRecord, error)
	MarkReturned(ctx context.Context, id string, at time.Time) (model.BorrowingRecord, error)
	HasActiveBorrowing(ctx context.Context, userID, bookID string) (bool, error)
	CountActiveByBook(ctx context.Context, bookID string) (int, error)
	ActiveBorrowingsByBook(ctx context.Context, bookID string) ([]model.ActiveBorrowing, error)
	ListBorrowings(ctx context.Context, userID string, limit int) ([]model.BorrowingView, error)

	LockRegistration(ctx context.Context) error
	CountUsers(ctx context.Context) (int, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUserRole(ctx context.Context, id string, role auth.Role) (model.User, error)
	ListMembers(ctx context.Context) ([]model.Member, error)

	CreateInvitation(ctx context.Context, inv model.Invitation) (model.Invitation, error)
	LockInvitationByToken(ctx context.Context, token string) (model.Invitation, error)
	MarkInvitationUsed(ctx context.Context, id string) error
	ListInvitations(ctx context.Context) ([]model.Invitation, error)

	CountBooks(ctx context.Context) (int, error)
	CountBorrowed(ctx context.Context, userID string) (int, error)
	CountOverdue(ctx context.Context, userID string, now time.Time) (int, error)

	SaveActivity(ctx context.Context, a model.Activity) error
	ListActivity(ctx context.Context, limit int) ([]model.Activity, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
	log  *zap.Logger
}

func NewRepository(pool *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		pool: pool,
		db:   pool,
		log:  log.Named("repo"),
	}, nil
}

const (
	booksTableName       = `books`
	usersTableName       = `users`
	borrowingsTableName  = `borrowings`
	invitationsTableName = `invitations`
	activityTableName    = `activity`

	activeLoanConstraint = `borrowings_active_loan_uidx`
	isbnConstraint       = `books_isbn_key`
	emailConstraint      = `users_email_key`

	// registrationLockKey serializes first-user detection across concurrent registrations.
	registrationLockKey = 0x11b7a7
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) InTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&repository{pool: r.pool, db: tx, inTx: true, log: r.log})
	})
}

func (r *repository) LockRegistration(ctx context.Context) error {
	if !r.inTx {
		return errors.New("LockRegistration: must run inside a transaction")
	}
	_, err := r.db.Exec(ctx, `select pg_advisory_xact_lock($1)`, registrationLockKey)
	return errors.Wrap(err, "pg_advisory_xact_lock")
}

var uniqueErrors = map[string]error{
	activeLoanConstraint: errs.ErrAlreadyCheckedOut,
	isbnConstraint:       errs.ErrISBNTaken,
	emailConstraint:      errs.ErrEmailTaken,
}

// translate maps driver errors onto domain errors. missing stands for both an absent row
// and an id that is not a valid uuid (22P02), since either way nothing can match it.
func translate(err error, op string, missing error) error {
	if err == nil {
		return nil
	}
	if missing != nil && errors.Is(err, pgx.ErrNoRows) {
		return missing
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation:
			if missing != nil {
				return missing
			}
		case pgerrcode.UniqueViolation:
			if mapped, ok := uniqueErrors[pgErr.ConstraintName]; ok {
				return mapped
			}
		}
	}
	return errors.Wrap(err, op)
}

func queryOne[T any](ctx context.Context, db querier, query string, args ...any) (T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}

func queryAll[T any](ctx context.Context, db querier, query string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// execOne runs a single-row write and returns missing when no row was touched.
func execOne(ctx context.Context, db querier, op string, missing error, query string, args ...any) error {
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return translate(err, op, missing)
	}
	if tag.RowsAffected() == 0 {
		return missing
	}
	return nil
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func (r *repository) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err = r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, translate(err, "count", nil)
	}
	return n, nil
}
