package repository

import (
	"context"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `id, email, role, token, used, expires_at, created_by, created_at`

func (r *repository) CreateInvitation(ctx context.Context, inv model.Invitation) (model.Invitation, error) {
	q := `
insert into invitations (id, email, role, token, used, expires_at, created_by, created_at)
values (@id, @email, @role, @token, false, @expiresAt, @createdBy, @createdAt)
returning ` + invitationColumns
	created, err := queryOne[model.Invitation](ctx, r.db, q, pgx.NamedArgs{
		"id":        inv.ID,
		"email":     inv.Email,
		"role":      string(inv.Role),
		"token":     inv.Token,
		"expiresAt": inv.ExpiresAt,
		"createdBy": inv.CreatedBy,
		"createdAt": inv.CreatedAt,
	})
	if err != nil {
		return model.Invitation{}, translate(err, "CreateInvitation", nil)
	}
	return created, nil
}

func (r *repository) LockInvitationByToken(ctx context.Context, token string) (model.Invitation, error) {
	q := `select ` + invitationColumns + ` from invitations where token = $1 for update`
	inv, err := queryOne[model.Invitation](ctx, r.db, q, token)
	if err != nil {
		return model.Invitation{}, translate(err, "LockInvitationByToken", errs.ErrInvitationNotFound)
	}
	return inv, nil
}

func (r *repository) MarkInvitationUsed(ctx context.Context, id string) error {
	return execOne(ctx, r.db, "MarkInvitationUsed", errs.ErrAlreadyUsed,
		`update invitations set used = true where id = $1 and not used`, id)
}

func (r *repository) ListInvitations(ctx context.Context) ([]model.Invitation, error) {
	items, err := queryAll[model.Invitation](ctx, r.db, `select `+invitationColumns+` from invitations order by created_at desc`)
	return items, translate(err, "ListInvitations", nil)
}
