package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/handler"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/AliMakkawi/library-management/library/internal/handler/mocks"
)

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	type input struct {
		query        string
		search       string
		page, size   int
		expectCalled bool
	}
	var tests = []struct {
		name         string
		input        input
		books        model.ListBooks
		expectedCode int
		expectedBody string
	}{
		{
			name:  "ok",
			input: input{query: "?search=dune&page=1&size=10", search: "dune", page: 1, size: 10, expectCalled: true},
			books: model.ListBooks{
				Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 1},
				Items: []model.Book{{
					ID: "b1", ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction",
					TotalCopies: 3, AvailableCopies: 2, CreatedAt: day0, UpdatedAt: day0,
				}},
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"page":1,"pageSize":10,"totalElements":1,"items":[{"id":"b1","isbn":"9780441013593","title":"Dune","author":"Frank Herbert","genre":"Science Fiction","totalCopies":3,"availableCopies":2,"createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}]}`,
		},
		{
			name:         "empty",
			input:        input{expectCalled: true},
			expectedCode: http.StatusOK,
			expectedBody: `{"page":0,"pageSize":0,"totalElements":0,"items":[]}`,
		},
		{
			name:         "err. page invalid",
			input:        input{query: "?page=abc"},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"page is invalid"}`,
		},
		{
			name:         "err. size negative",
			input:        input{query: "?size=-1"},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"size is invalid"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			if tt.input.expectCalled {
				svc.EXPECT().ListBooks(gomock.Any(), tt.input.search, tt.input.page, tt.input.size).Return(tt.books, nil)
			}
			h := handler.New(svc, nil, nil, zap.NewNop())

			e := newEcho(&member)
			e.GET("/books", h.ListBooks)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books"+tt.input.query, http.NoBody))

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateBook(t *testing.T) {
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
			name: "ok",
			body: `{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","genre":"Science Fiction","publicationYear":1965,"totalCopies":3}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				year := 1965
				r.EXPECT().CreateBook(gomock.Any(), staff, model.BookInput{
					Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Genre: "Science Fiction",
					PublicationYear: &year, TotalCopies: 3,
				}).Return(model.Book{
					ID: "b1", ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction",
					PublicationYear: &year, TotalCopies: 3, AvailableCopies: 3, CreatedAt: day0, UpdatedAt: day0,
				}, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"id":"b1","isbn":"9780441013593","title":"Dune","author":"Frank Herbert","genre":"Science Fiction","publicationYear":1965,"totalCopies":3,"availableCopies":3,"createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}`,
		},
		{
			name:         "err. validation",
			body:         `{"author":"Frank Herbert","isbn":"9780441013593","genre":"Science Fiction","totalCopies":3}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"Title is required"}`,
		},
		{
			name:         "err. year too old",
			body:         `{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","genre":"Science Fiction","publicationYear":999,"totalCopies":3}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"PublicationYear must be at least 1000"}`,
		},
		{
			name:         "err. malformed body",
			body:         `{"title":`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"invalid request body"}`,
		},
		{
			name: "err. isbn taken",
			body: `{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","genre":"Science Fiction","totalCopies":1}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().CreateBook(gomock.Any(), staff, gomock.Any()).Return(model.Book{}, errs.ErrISBNTaken)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"a book with this ISBN already exists"}`,
		},
		{
			name: "err. member",
			body: `{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","genre":"Science Fiction","totalCopies":1}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().CreateBook(gomock.Any(), staff, gomock.Any()).Return(model.Book{}, errs.ErrUnauthorized)
			},
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
			tt.mockBehavior(svc)
			h := handler.New(svc, nil, nil, zap.NewNop())

			e := newEcho(&staff)
			e.POST("/books", h.CreateBook)
			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{name: "ok", expectedCode: http.StatusNoContent},
		{name: "err. active borrowings", err: errs.ErrActiveBorrowings, expectedCode: http.StatusConflict, expectedBody: `{"message":"cannot delete a book with active borrowings"}`},
		{name: "err. not found", err: errs.ErrBookNotFound, expectedCode: http.StatusNotFound, expectedBody: `{"message":"book not found"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			svc.EXPECT().DeleteBook(gomock.Any(), staff, "b1").Return(tt.err)
			h := handler.New(svc, nil, nil, zap.NewNop())

			e := newEcho(&staff)
			e.DELETE("/books/:id", h.DeleteBook)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/books/b1", http.NoBody))

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Summarize(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name         string
		query        string
		regenerate   bool
		err          error
		expectedCode int
		expectedBody string
	}{
		{name: "ok", expectedCode: http.StatusOK, expectedBody: `{"bookId":"b1","summary":"A desert epic.","cached":false}`},
		{name: "regenerate", query: "?regenerate=true", regenerate: true, expectedCode: http.StatusOK, expectedBody: `{"bookId":"b1","summary":"A desert epic.","cached":false}`},
		{name: "err. unconfigured", err: errs.ErrAIUnconfigured, expectedCode: http.StatusServiceUnavailable, expectedBody: `{"message":"AI service is not configured"}`},
		{name: "err. circuit open", err: errs.ErrCircuitOpen, expectedCode: http.StatusServiceUnavailable, expectedBody: `{"message":"AI service is temporarily unavailable"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			summary := model.Summary{}
			if tt.err == nil {
				summary = model.Summary{BookID: "b1", Summary: "A desert epic."}
			}
			svc.EXPECT().SummarizeBook(gomock.Any(), member, "b1", tt.regenerate).Return(summary, tt.err)
			h := handler.New(svc, nil, nil, zap.NewNop())

			e := newEcho(&member)
			e.POST("/books/:id/summary", h.Summarize)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/books/b1/summary"+tt.query, http.NoBody))

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
