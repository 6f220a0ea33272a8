package model

import (
	"time"

	"github.com/AliMakkawi/library-management/pkg/auth"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Book struct {
	ID              string    `json:"id" db:"id"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	Genre           string    `json:"genre" db:"genre"`
	Description     *string   `json:"description,omitempty" db:"description"`
	CoverImage      *string   `json:"coverImage,omitempty" db:"cover_image"`
	PublicationYear *int      `json:"publicationYear,omitempty" db:"publication_year"`
	TotalCopies     int       `json:"totalCopies" db:"total_copies"`
	AvailableCopies int       `json:"availableCopies" db:"available_copies"`
	AISummary       *string   `json:"aiSummary,omitempty" db:"ai_summary"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// BookInput is the editable part of a book.
type BookInput struct {
	Title           string  `json:"title" validate:"required"`
	Author          string  `json:"author" validate:"required"`
	ISBN            string  `json:"isbn" validate:"required"`
	Genre           string  `json:"genre" validate:"required"`
	Description     *string `json:"description,omitempty"`
	CoverImage      *string `json:"coverImage,omitempty"`
	PublicationYear *int    `json:"publicationYear,omitempty" validate:"omitempty,min=1000,notfutureyear"`
	TotalCopies     int     `json:"totalCopies" validate:"required,min=1"`
}

type BookDetails struct {
	Book
	ActiveBorrowings []ActiveBorrowing `json:"activeBorrowings"`
}

type ActiveBorrowing struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	UserName   string    `json:"userName" db:"user_name"`
	UserEmail  string    `json:"userEmail" db:"user_email"`
	BorrowedAt time.Time `json:"borrowedAt" db:"borrowed_at"`
	DueDate    time.Time `json:"dueDate" db:"due_date"`
}

type BorrowingStatus string

const (
	StatusBorrowed BorrowingStatus = "BORROWED"
	StatusReturned BorrowingStatus = "RETURNED"
)

type BorrowingRecord struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"userId" db:"user_id"`
	BookID     string          `json:"bookId" db:"book_id"`
	Status     BorrowingStatus `json:"status" db:"status"`
	BorrowedAt time.Time       `json:"borrowedAt" db:"borrowed_at"`
	DueDate    time.Time       `json:"dueDate" db:"due_date"`
	ReturnedAt *time.Time      `json:"returnedAt,omitempty" db:"returned_at"`
}

// BorrowingView is a ledger row joined with its borrower and book.
type BorrowingView struct {
	BorrowingRecord
	UserName   string `json:"userName" db:"user_name"`
	UserEmail  string `json:"userEmail" db:"user_email"`
	BookTitle  string `json:"bookTitle" db:"book_title"`
	BookAuthor string `json:"bookAuthor" db:"book_author"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         auth.Role `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type Member struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	Name             string    `json:"name" db:"name"`
	Role             auth.Role `json:"role" db:"role"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	ActiveBorrowings int       `json:"activeBorrowings" db:"active_borrowings"`
}

type Invitation struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      auth.Role `json:"role" db:"role"`
	Token     string    `json:"token" db:"token"`
	Used      bool      `json:"used" db:"used"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type RegisterInput struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Token    *string `json:"token,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AccessToken struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        User      `json:"user"`
}

type InvitationInput struct {
	Email string    `json:"email" validate:"required,email"`
	Role  auth.Role `json:"role" validate:"required,oneof=ADMIN LIBRARIAN MEMBER"`
}

type RoleInput struct {
	Role auth.Role `json:"role" validate:"required,oneof=ADMIN LIBRARIAN MEMBER"`
}

// DashboardStats carries either the staff or the member view; unused counters stay nil.
type DashboardStats struct {
	TotalBooks    int  `json:"totalBooks"`
	TotalMembers  *int `json:"totalMembers,omitempty"`
	BorrowedBooks int  `json:"borrowedBooks"`
	OverdueBooks  int  `json:"overdueBooks"`
	IsStaff       bool `json:"isStaff"`
}

type SearchInput struct {
	Query string `json:"query"`
}

type SearchResult struct {
	Book
	MatchReason    string  `json:"matchReason"`
	RelevanceScore float64 `json:"relevanceScore"`
}

type Summary struct {
	BookID  string `json:"bookId"`
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}

type Activity struct {
	ID          int64             `json:"id" db:"id"`
	OccurredAt  time.Time         `json:"occurredAt" db:"occurred_at"`
	EventType   string            `json:"eventType" db:"event_type"`
	UserID      string            `json:"userId" db:"user_id"`
	BookID      *string           `json:"bookId,omitempty" db:"book_id"`
	BorrowingID *string           `json:"borrowingId,omitempty" db:"borrowing_id"`
	Payload     map[string]string `json:"payload" db:"payload"`
}
