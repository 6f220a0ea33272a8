package handler

import (
	"context"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/service"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	ListBooks(ctx context.Context, search string, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, id string) (model.BookDetails, error)
	CreateBook(ctx context.Context, actor auth.Actor, in model.BookInput) (model.Book, error)
	UpdateBook(ctx context.Context, actor auth.Actor, id string, in model.BookInput) (model.Book, error)
	DeleteBook(ctx context.Context, actor auth.Actor, id string) error

	Checkout(ctx context.Context, actor auth.Actor, bookID string) (model.BorrowingRecord, error)
	ReturnBook(ctx context.Context, actor auth.Actor, borrowingID string) (model.BorrowingRecord, error)
	ListBorrowings(ctx context.Context, actor auth.Actor) ([]model.BorrowingView, error)

	Register(ctx context.Context, in model.RegisterInput) (model.User, error)
	Login(ctx context.Context, in model.LoginInput) (model.AccessToken, error)
	CreateInvitation(ctx context.Context, actor auth.Actor, in model.InvitationInput) (model.Invitation, error)
	ListInvitations(ctx context.Context, actor auth.Actor) ([]model.Invitation, error)
	ListMembers(ctx context.Context, actor auth.Actor) ([]model.Member, error)
	UpdateUserRole(ctx context.Context, actor auth.Actor, userID string, role auth.Role) (model.User, error)

	Dashboard(ctx context.Context, actor auth.Actor) (model.DashboardStats, error)
	RecentBorrowings(ctx context.Context, actor auth.Actor) ([]model.BorrowingView, error)

	SearchBooks(ctx context.Context, actor auth.Actor, query string) ([]model.SearchResult, error)
	SummarizeBook(ctx context.Context, actor auth.Actor, bookID string, regenerate bool) (model.Summary, error)

	ListActivity(ctx context.Context, actor auth.Actor, limit int) ([]model.Activity, error)
	RecordActivity(ctx context.Context, event kafka.Event) error
}

var _ LibraryService = (*service.Service)(nil)
