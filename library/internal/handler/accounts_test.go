package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/handler"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/AliMakkawi/library-management/library/internal/handler/mocks"
)

func TestHandler_Register(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)
	token := "abc"
	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok",
			body: `{"name":"Ada","email":"ada@library.com","password":"secret1","token":"abc"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Register(gomock.Any(), model.RegisterInput{
					Name: "Ada", Email: "ada@library.com", Password: "secret1", Token: &token,
				}).Return(model.User{
					ID: "u7", Email: "ada@library.com", Name: "Ada", PasswordHash: "hash",
					Role: auth.RoleLibrarian, CreatedAt: day0, UpdatedAt: day0,
				}, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"id":"u7","email":"ada@library.com","name":"Ada","role":"LIBRARIAN","createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}`,
		},
		{
			name:         "err. validation",
			body:         `{"name":"Ada","email":"not-an-email","password":"secret1"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"Email must be a valid email"}`,
		},
		{
			name:         "err. short password",
			body:         `{"name":"Ada","email":"ada@library.com","password":"123"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"Password must be at least 6"}`,
		},
		{
			name: "err. expired invitation",
			body: `{"name":"Ada","email":"ada@library.com","password":"secret1","token":"abc"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Register(gomock.Any(), gomock.Any()).Return(model.User{}, errs.ErrInvitationExpired)
			},
			expectedCode: http.StatusGone,
			expectedBody: `{"message":"invitation has expired"}`,
		},
		{
			name: "err. used invitation",
			body: `{"name":"Ada","email":"ada@library.com","password":"secret1","token":"abc"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Register(gomock.Any(), gomock.Any()).Return(model.User{}, errs.ErrAlreadyUsed)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"invitation has already been used"}`,
		},
		{
			name: "err. invalid token",
			body: `{"name":"Ada","email":"ada@library.com","password":"secret1","token":"zzz"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Register(gomock.Any(), gomock.Any()).Return(model.User{}, errs.ErrInvalidToken)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"invalid invitation token"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			tt.mockBehavior(svc)
			h := handler.New(svc, nil, nil, zap.NewNop())

			e := newEcho(nil)
			e.POST("/auth/register", h.Register)
			r := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	svc.EXPECT().Login(gomock.Any(), model.LoginInput{Email: "ada@library.com", Password: "wrong"}).
		Return(model.AccessToken{}, errs.ErrInvalidCredentials)

	h := handler.New(svc, nil, nil, zap.NewNop())
	e := newEcho(nil)
	e.POST("/auth/login", h.Login)
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ada@library.com","password":"wrong"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, `{"message":"invalid email or password"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_CreateInvitation(t *testing.T) {
	t.Parallel()
	admin := auth.Actor{UserID: "u0", Email: "admin@library.com", Role: auth.RoleAdmin}
	var tests = []struct {
		name         string
		actor        auth.Actor
		body         string
		call         bool
		inv          model.Invitation
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:  "ok",
			actor: admin,
			body:  `{"email":"new@library.com","role":"LIBRARIAN"}`,
			call:  true,
			inv: model.Invitation{
				ID: "i1", Email: "new@library.com", Role: auth.RoleLibrarian, Token: "tok",
				ExpiresAt: day0.Add(7 * 24 * time.Hour), CreatedBy: "u0", CreatedAt: day0,
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"id":"i1","email":"new@library.com","role":"LIBRARIAN","token":"tok","used":false,"expiresAt":"2025-03-08T10:00:00Z","createdBy":"u0","createdAt":"2025-03-01T10:00:00Z"}`,
		},
		{
			name:         "err. bad role",
			actor:        admin,
			body:         `{"email":"new@library.com","role":"OWNER"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"Role must be one of [ADMIN LIBRARIAN MEMBER]"}`,
		},
		{
			name:         "err. librarian",
			actor:        staff,
			body:         `{"email":"new@library.com","role":"MEMBER"}`,
			call:         true,
			err:          errs.ErrUnauthorized,
			expectedCode: http.StatusForbidden,
			expectedBody: `{"message":"you are not allowed to perform this action"}`,
		},
		{
			name:         "err. user exists",
			actor:        admin,
			body:         `{"email":"member@library.com","role":"MEMBER"}`,
			call:         true,
			err:          errs.ErrEmailTaken,
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"a user with this email already exists"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			if tt.call {
				svc.EXPECT().CreateInvitation(gomock.Any(), tt.actor, gomock.Any()).Return(tt.inv, tt.err)
			}
			h := handler.New(svc, nil, nil, zap.NewNop())

			actor := tt.actor
			e := newEcho(&actor)
			e.POST("/invitations", h.CreateInvitation)
			r := httptest.NewRequest(http.MethodPost, "/invitations", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_UpdateUserRole(t *testing.T) {
	t.Parallel()
	admin := auth.Actor{UserID: "u0", Role: auth.RoleAdmin}
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	svc.EXPECT().UpdateUserRole(gomock.Any(), admin, "u0", auth.RoleMember).Return(model.User{}, errs.ErrOwnRole)

	h := handler.New(svc, nil, nil, zap.NewNop())
	e := newEcho(&admin)
	e.PATCH("/members/:id/role", h.UpdateUserRole)
	r := httptest.NewRequest(http.MethodPatch, "/members/u0/role", strings.NewReader(`{"role":"MEMBER"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"you cannot change your own role"}`, strings.Trim(w.Body.String(), "\n"))
}
