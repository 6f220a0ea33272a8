package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

// Staff reports whether the role carries catalog and loan management rights.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// Actor is the authenticated identity a request acts as.
type Actor struct {
	UserID string
	Email  string
	Role   Role
}

type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrNoActor      = errors.New("no authenticated user")
	ErrInvalidToken = errors.New("invalid token")
)

type ctxKey struct{}

func SetAuthContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

func GetActor(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(ctxKey{}).(Actor)
	if !ok || actor.UserID == "" {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}

type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: ttl}
}

// Issue signs an HS256 access token for the actor.
func (t *TokenIssuer) Issue(actor Actor, now time.Time) (token string, expiresAt time.Time, err error) {
	expiresAt = now.Add(t.ttl)
	claims := &Claims{
		UserID: actor.UserID,
		Email:  actor.Email,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return token, expiresAt, nil
}

func (t *TokenIssuer) Parse(tokenStr string) (Actor, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return Actor{}, ErrInvalidToken
	}
	return Actor{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
