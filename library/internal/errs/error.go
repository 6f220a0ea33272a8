package errs

import (
	"github.com/pkg/errors"
)

// Kind classifies a failure for the transport layer.
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindNotFound
	KindConflict
	KindExpired
	KindInvalid
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	msg  string
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

var (
	ErrUnauthorized       = New(KindUnauthorized, "you are not allowed to perform this action")
	ErrInvalidCredentials = New(KindUnauthorized, "invalid email or password")

	ErrBookNotFound       = New(KindNotFound, "book not found")
	ErrBorrowingNotFound  = New(KindNotFound, "borrowing record not found")
	ErrUserNotFound       = New(KindNotFound, "user not found")
	ErrInvitationNotFound = New(KindNotFound, "invitation not found")

	ErrAlreadyCheckedOut = New(KindConflict, "you have already checked out this book")
	ErrAlreadyReturned   = New(KindConflict, "book has already been returned")
	ErrAlreadyUsed       = New(KindConflict, "invitation has already been used")
	ErrISBNTaken         = New(KindConflict, "a book with this ISBN already exists")
	ErrEmailTaken        = New(KindConflict, "a user with this email already exists")
	ErrActiveBorrowings  = New(KindConflict, "cannot delete a book with active borrowings")

	ErrInvitationExpired = New(KindExpired, "invitation has expired")

	ErrInvalidToken = New(KindInvalid, "invalid invitation token")
	ErrOwnRole      = New(KindInvalid, "you cannot change your own role")
	ErrInvalidRole  = New(KindInvalid, "invalid role")
	ErrInvalidQuery = New(KindInvalid, "query is required and must be at most 500 characters")

	ErrNoCopiesAvailable = New(KindUnavailable, "no copies available")
	ErrAIUnconfigured    = New(KindUnavailable, "AI service is not configured")
	ErrCircuitOpen       = New(KindUnavailable, "AI service is temporarily unavailable")
)

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
