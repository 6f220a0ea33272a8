package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/policy"
	"github.com/AliMakkawi/library-management/library/internal/repository"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const invitationTokenBytes = 32

// Register creates an account. The very first user becomes ADMIN, everyone else MEMBER
// unless a valid invitation token grants another role. Token consumption and user
// creation commit together.
func (s *Service) Register(ctx context.Context, in model.RegisterInput) (model.User, error) {
	email := normalizeEmail(in.Email)
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := tx.LockRegistration(ctx); err != nil {
			return err
		}
		_, err := tx.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return errs.ErrEmailTaken
		case !errors.Is(err, errs.ErrUserNotFound):
			return err
		}

		users, err := tx.CountUsers(ctx)
		if err != nil {
			return err
		}
		role := auth.RoleMember
		if users == 0 {
			role = auth.RoleAdmin
		}

		if in.Token != nil && strings.TrimSpace(*in.Token) != "" {
			inv, err := tx.LockInvitationByToken(ctx, strings.TrimSpace(*in.Token))
			if err != nil {
				if errors.Is(err, errs.ErrInvitationNotFound) {
					return errs.ErrInvalidToken
				}
				return err
			}
			if inv.Used {
				return errs.ErrAlreadyUsed
			}
			if inv.ExpiresAt.Before(s.clock()) {
				return errs.ErrInvitationExpired
			}
			role = inv.Role
			if err = tx.MarkInvitationUsed(ctx, inv.ID); err != nil {
				return err
			}
		}

		user, err = tx.CreateUser(ctx, model.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         strings.TrimSpace(in.Name),
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    s.clock(),
		})
		return err
	})
	s.metrics.Workflow("register", err)
	if err != nil {
		return model.User{}, err
	}

	s.publish(ctx, kafka.Event{
		EventType: kafka.EventUserRegistered,
		UserID:    user.ID,
		Payload:   map[string]string{"role": string(user.Role)},
	})
	return user, nil
}

func (s *Service) Login(ctx context.Context, in model.LoginInput) (model.AccessToken, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			auth.BurnPasswordCheck(in.Password)
			return model.AccessToken{}, errs.ErrInvalidCredentials
		}
		return model.AccessToken{}, err
	}
	if err = auth.VerifyPassword(user.PasswordHash, in.Password); err != nil {
		return model.AccessToken{}, errs.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(auth.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}, s.clock())
	if err != nil {
		return model.AccessToken{}, errors.Wrap(err, "issue token")
	}
	return model.AccessToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (s *Service) CreateInvitation(ctx context.Context, actor auth.Actor, in model.InvitationInput) (model.Invitation, error) {
	if err := policy.Authorize(actor, policy.CreateInvitation, ""); err != nil {
		return model.Invitation{}, err
	}
	if !in.Role.Valid() {
		return model.Invitation{}, errs.ErrInvalidRole
	}
	email := normalizeEmail(in.Email)
	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return model.Invitation{}, errs.ErrEmailTaken
	case !errors.Is(err, errs.ErrUserNotFound):
		return model.Invitation{}, err
	}

	token, err := newInvitationToken()
	if err != nil {
		return model.Invitation{}, err
	}
	now := s.clock()
	inv, err := s.repo.CreateInvitation(ctx, model.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      in.Role,
		Token:     token,
		ExpiresAt: now.Add(s.invitationTTL),
		CreatedBy: actor.UserID,
		CreatedAt: now,
	})
	if err != nil {
		return model.Invitation{}, err
	}

	s.publish(ctx, kafka.Event{
		EventType: kafka.EventInvitationCreated,
		UserID:    actor.UserID,
		Payload:   map[string]string{"email": inv.Email, "role": string(inv.Role)},
	})
	return inv, nil
}

func (s *Service) ListInvitations(ctx context.Context, actor auth.Actor) ([]model.Invitation, error) {
	if err := policy.Authorize(actor, policy.ListInvitations, ""); err != nil {
		return nil, err
	}
	return s.repo.ListInvitations(ctx)
}

func (s *Service) ListMembers(ctx context.Context, actor auth.Actor) ([]model.Member, error) {
	if err := policy.Authorize(actor, policy.ListMembers, ""); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx)
}

func (s *Service) UpdateUserRole(ctx context.Context, actor auth.Actor, userID string, role auth.Role) (model.User, error) {
	if err := policy.Authorize(actor, policy.UpdateMemberRole, ""); err != nil {
		return model.User{}, err
	}
	if !role.Valid() {
		return model.User{}, errs.ErrInvalidRole
	}
	if userID == actor.UserID {
		return model.User{}, errs.ErrOwnRole
	}
	user, err := s.repo.UpdateUserRole(ctx, userID, role)
	if err != nil {
		return model.User{}, err
	}

	s.publish(ctx, kafka.Event{
		EventType: kafka.EventUserRoleChanged,
		UserID:    actor.UserID,
		Payload:   map[string]string{"targetUserId": user.ID, "role": string(role)},
	})
	return user, nil
}

func newInvitationToken() (string, error) {
	b := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "rand.Read")
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
