package repository

import (
	"context"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/pkg/auth"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{"id", "email", "name", "password_hash", "role", "created_at", "updated_at"}

func (r *repository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, qb.Select("count(*)").From(usersTableName))
}

func (r *repository) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, sq.Eq{"email": email})
}

func (r *repository) getUser(ctx context.Context, where sq.Eq) (model.User, error) {
	query, args, err := qb.Select(userColumns...).From(usersTableName).Where(where).Limit(1).ToSql()
	if err != nil {
		return model.User{}, err
	}
	user, err := queryOne[model.User](ctx, r.db, query, args...)
	if err != nil {
		return model.User{}, translate(err, "getUser", errs.ErrUserNotFound)
	}
	return user, nil
}

func (r *repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	q := `
insert into users (id, email, name, password_hash, role, created_at, updated_at)
values (@id, @email, @name, @passwordHash, @role, @createdAt, @createdAt)
returning id, email, name, password_hash, role, created_at, updated_at`
	created, err := queryOne[model.User](ctx, r.db, q, pgx.NamedArgs{
		"id":           user.ID,
		"email":        user.Email,
		"name":         user.Name,
		"passwordHash": user.PasswordHash,
		"role":         string(user.Role),
		"createdAt":    user.CreatedAt,
	})
	if err != nil {
		return model.User{}, translate(err, "CreateUser", nil)
	}
	return created, nil
}

func (r *repository) UpdateUserRole(ctx context.Context, id string, role auth.Role) (model.User, error) {
	q := `
update users
    set role = $2, updated_at = $3
where id = $1
returning id, email, name, password_hash, role, created_at, updated_at`
	user, err := queryOne[model.User](ctx, r.db, q, id, string(role), time.Now().UTC())
	if err != nil {
		return model.User{}, translate(err, "UpdateUserRole", errs.ErrUserNotFound)
	}
	return user, nil
}

func (r *repository) ListMembers(ctx context.Context) ([]model.Member, error) {
	q := `
select u.id, u.email, u.name, u.role, u.created_at,
       count(br.id) filter (where br.status = 'BORROWED') as active_borrowings
from users u
    left join borrowings br on br.user_id = u.id
group by u.id
order by u.created_at desc`
	members, err := queryAll[model.Member](ctx, r.db, q)
	return members, translate(err, "ListMembers", nil)
}
