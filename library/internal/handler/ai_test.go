package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/handler"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/AliMakkawi/library-management/library/internal/handler/mocks"
)

func TestHandler_SearchBooks(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)
	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok. nothing matched",
			body: `{"query":"dragons in space"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().SearchBooks(gomock.Any(), staff, "dragons in space").Return(nil, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name: "err. empty query",
			body: `{"query":"  "}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().SearchBooks(gomock.Any(), staff, "  ").Return(nil, errs.ErrInvalidQuery)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"query is required and must be at most 500 characters"}`,
		},
		{
			name: "err. breaker open",
			body: `{"query":"mystery"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().SearchBooks(gomock.Any(), staff, "mystery").Return(nil, errs.ErrCircuitOpen)
			},
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"message":"AI service is temporarily unavailable"}`,
		},
		{
			name:         "err. body",
			body:         `{"query":`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"invalid request body"}`,
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

			e := newEcho(&staff)
			e.POST("/ai/search", h.SearchBooks)
			r := httptest.NewRequest(http.MethodPost, "/ai/search", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ListActivity(t *testing.T) {
	t.Parallel()
	admin := auth.Actor{UserID: "u0", Role: auth.RoleAdmin}
	bookID := "b1"
	var tests = []struct {
		name         string
		actor        auth.Actor
		query        string
		call         bool
		limit        int
		items        []model.Activity
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:  "ok",
			actor: admin,
			query: "?limit=1",
			call:  true,
			limit: 1,
			items: []model.Activity{{
				ID: 3, OccurredAt: day0, EventType: "BOOK_CHECKED_OUT", UserID: "u1", BookID: &bookID,
				Payload: map[string]string{},
			}},
			expectedCode: http.StatusOK,
			expectedBody: `[{"id":3,"occurredAt":"2025-03-01T10:00:00Z","eventType":"BOOK_CHECKED_OUT","userId":"u1","bookId":"b1","payload":{}}]`,
		},
		{
			name:         "err. limit",
			actor:        admin,
			query:        "?limit=ten",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"limit is invalid"}`,
		},
		{
			name:         "err. member",
			actor:        member,
			call:         true,
			err:          errs.ErrUnauthorized,
			expectedCode: http.StatusForbidden,
			expectedBody: `{"message":"you are not allowed to perform this action"}`,
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
				svc.EXPECT().ListActivity(gomock.Any(), tt.actor, tt.limit).Return(tt.items, tt.err)
			}
			h := handler.New(svc, nil, nil, zap.NewNop())

			actor := tt.actor
			e := newEcho(&actor)
			e.GET("/activity", h.ListActivity)
			r := httptest.NewRequest(http.MethodGet, "/activity"+tt.query, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
