// Package policy holds every role and ownership rule of the library in one place.
package policy

import (
	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/pkg/auth"
)

type Action string

const (
	Checkout          Action = "borrowing:checkout"
	Return            Action = "borrowing:return"
	ListAllBorrowings Action = "borrowing:list-all"
	CreateBook        Action = "book:create"
	UpdateBook        Action = "book:update"
	DeleteBook        Action = "book:delete"
	CreateInvitation  Action = "invitation:create"
	ListInvitations   Action = "invitation:list"
	ListMembers       Action = "member:list"
	UpdateMemberRole  Action = "member:update-role"
	StaffStats        Action = "stats:staff"
	AISearch          Action = "ai:search"
	AISummarize       Action = "ai:summarize"
	ListActivity      Action = "activity:list"
)

// Authorize returns errs.ErrUnauthorized unless actor may perform action.
// ownerID is the user owning the target resource and only matters for owner-scoped actions.
func Authorize(actor auth.Actor, action Action, ownerID string) error {
	if actor.UserID == "" || !actor.Role.Valid() {
		return errs.ErrUnauthorized
	}
	if allowed(actor, action, ownerID) {
		return nil
	}
	return errs.ErrUnauthorized
}

func allowed(actor auth.Actor, action Action, ownerID string) bool {
	switch action {
	case Checkout, AISearch, AISummarize:
		return true
	case Return:
		return actor.UserID == ownerID || actor.Role.Staff()
	case ListAllBorrowings, CreateBook, UpdateBook, DeleteBook, StaffStats:
		return actor.Role.Staff()
	case CreateInvitation, ListInvitations, ListMembers, UpdateMemberRole, ListActivity:
		return actor.Role == auth.RoleAdmin
	}
	return false
}
