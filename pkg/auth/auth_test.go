package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	t.Parallel()
	issuer := auth.NewTokenIssuer("test-secret-test-secret-test-secret", time.Hour)
	actor := auth.Actor{UserID: "u-1", Email: "a@b.c", Role: auth.RoleLibrarian}

	token, exp, err := issuer.Issue(actor, time.Now())
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, actor, got)

	_, err = auth.NewTokenIssuer("other-secret", time.Hour).Parse(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, _, err := issuer.Issue(actor, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestActorContext(t *testing.T) {
	t.Parallel()
	_, err := auth.GetActor(context.Background())
	require.ErrorIs(t, err, auth.ErrNoActor)

	ctx := auth.SetAuthContext(context.Background(), auth.Actor{UserID: "u-1", Role: auth.RoleAdmin})
	actor, err := auth.GetActor(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", actor.UserID)
	require.Equal(t, auth.RoleAdmin, actor.Role)
}

func TestPassword(t *testing.T) {
	t.Parallel()
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, auth.VerifyPassword(hash, "hunter22"))
	require.Error(t, auth.VerifyPassword(hash, "hunter23"))
}

func TestRole(t *testing.T) {
	t.Parallel()
	require.True(t, auth.RoleAdmin.Staff())
	require.True(t, auth.RoleLibrarian.Staff())
	require.False(t, auth.RoleMember.Staff())
	require.False(t, auth.Role("OWNER").Valid())
}
