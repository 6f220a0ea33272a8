package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/repository"
	"github.com/AliMakkawi/library-management/pkg/auth"
)

type state struct {
	books       map[string]model.Book
	users       map[string]model.User
	borrowings  map[string]model.BorrowingRecord
	invitations map[string]model.Invitation
	activity    []model.Activity
}

func (s *state) clone() *state {
	c := &state{
		books:       make(map[string]model.Book, len(s.books)),
		users:       make(map[string]model.User, len(s.users)),
		borrowings:  make(map[string]model.BorrowingRecord, len(s.borrowings)),
		invitations: make(map[string]model.Invitation, len(s.invitations)),
		activity:    append([]model.Activity(nil), s.activity...),
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.borrowings {
		c.borrowings[k] = v
	}
	for k, v := range s.invitations {
		c.invitations[k] = v
	}
	return c
}

// fakeRepo keeps everything in memory. InTx holds one store-wide lock for the whole
// callback and restores the snapshot when the callback fails.
type fakeRepo struct {
	mu   *sync.Mutex
	st   *state
	inTx bool

	// failures injects an error for the named method.
	failures map[string]error
}

var _ repository.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		mu: &sync.Mutex{},
		st: &state{
			books:       map[string]model.Book{},
			users:       map[string]model.User{},
			borrowings:  map[string]model.BorrowingRecord{},
			invitations: map[string]model.Invitation{},
		},
		failures: map[string]error{},
	}
}

func (f *fakeRepo) lock() func() {
	if f.inTx {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeRepo) fail(method string) error {
	return f.failures[method]
}

func (f *fakeRepo) InTx(_ context.Context, fn func(tx repository.Repository) error) error {
	if f.inTx {
		return fn(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := f.st.clone()
	err := fn(&fakeRepo{mu: f.mu, st: f.st, inTx: true, failures: f.failures})
	if err != nil {
		*f.st = *snapshot
	}
	return err
}

// test helpers

func (f *fakeRepo) book(id string) model.Book {
	defer f.lock()()
	return f.st.books[id]
}

func (f *fakeRepo) borrowing(id string) model.BorrowingRecord {
	defer f.lock()()
	return f.st.borrowings[id]
}

func (f *fakeRepo) putBook(b model.Book) {
	defer f.lock()()
	f.st.books[b.ID] = b
}

func (f *fakeRepo) putUser(u model.User) {
	defer f.lock()()
	f.st.users[u.ID] = u
}

func (f *fakeRepo) putInvitation(inv model.Invitation) {
	defer f.lock()()
	f.st.invitations[inv.ID] = inv
}

func (f *fakeRepo) activeCount(userID, bookID string) int {
	defer f.lock()()
	n := 0
	for _, r := range f.st.borrowings {
		if r.UserID == userID && r.BookID == bookID && r.Status == model.StatusBorrowed {
			n++
		}
	}
	return n
}

func (f *fakeRepo) userCount() int {
	defer f.lock()()
	return len(f.st.users)
}

// books

func (f *fakeRepo) ListBooks(_ context.Context, search string, page, size int) (model.ListBooks, error) {
	defer f.lock()()
	var out []model.Book
	s := strings.ToLower(search)
	for _, b := range f.st.books {
		if s == "" ||
			strings.Contains(strings.ToLower(b.Title), s) ||
			strings.Contains(strings.ToLower(b.Author), s) ||
			strings.Contains(strings.ToLower(b.Genre), s) ||
			strings.Contains(strings.ToLower(b.ISBN), s) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if page > 0 && size > 0 {
		from := min((page-1)*size, len(out))
		to := min(from+size, len(out))
		out = out[from:to]
	}
	return model.ListBooks{Paging: model.Paging{Page: page, PageSize: size, TotalElements: total}, Items: out}, nil
}

func (f *fakeRepo) AllBooks(context.Context) ([]model.Book, error) {
	defer f.lock()()
	out := make([]model.Book, 0, len(f.st.books))
	for _, b := range f.st.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeRepo) BooksByIDs(_ context.Context, ids []string) ([]model.Book, error) {
	defer f.lock()()
	var out []model.Book
	for _, id := range ids {
		if b, ok := f.st.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetBook(_ context.Context, id string) (model.Book, error) {
	defer f.lock()()
	b, ok := f.st.books[id]
	if !ok {
		return model.Book{}, errs.ErrBookNotFound
	}
	return b, nil
}

func (f *fakeRepo) LockBook(ctx context.Context, id string) (model.Book, error) {
	return f.GetBook(ctx, id)
}

func (f *fakeRepo) ISBNTaken(_ context.Context, isbn, exceptID string) (bool, error) {
	defer f.lock()()
	for _, b := range f.st.books {
		if b.ISBN == isbn && b.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	defer f.lock()()
	for _, b := range f.st.books {
		if b.ISBN == book.ISBN {
			return model.Book{}, errs.ErrISBNTaken
		}
	}
	f.st.books[book.ID] = book
	return book, nil
}

func (f *fakeRepo) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	defer f.lock()()
	if _, ok := f.st.books[book.ID]; !ok {
		return model.Book{}, errs.ErrBookNotFound
	}
	f.st.books[book.ID] = book
	return book, nil
}

func (f *fakeRepo) DeleteBook(_ context.Context, id string) error {
	defer f.lock()()
	if _, ok := f.st.books[id]; !ok {
		return errs.ErrBookNotFound
	}
	delete(f.st.books, id)
	for k, r := range f.st.borrowings {
		if r.BookID == id {
			delete(f.st.borrowings, k)
		}
	}
	return nil
}

func (f *fakeRepo) DecrementAvailable(_ context.Context, bookID string) (bool, error) {
	defer f.lock()()
	if err := f.fail("DecrementAvailable"); err != nil {
		return false, err
	}
	b, ok := f.st.books[bookID]
	if !ok || b.AvailableCopies <= 0 {
		return false, nil
	}
	b.AvailableCopies--
	f.st.books[bookID] = b
	return true, nil
}

func (f *fakeRepo) IncrementAvailable(_ context.Context, bookID string) error {
	defer f.lock()()
	b, ok := f.st.books[bookID]
	if !ok {
		return errs.ErrBookNotFound
	}
	b.AvailableCopies++
	f.st.books[bookID] = b
	return nil
}

func (f *fakeRepo) SetAISummary(_ context.Context, bookID, summary string) error {
	defer f.lock()()
	b := f.st.books[bookID]
	b.AISummary = &summary
	f.st.books[bookID] = b
	return nil
}

// borrowings

func (f *fakeRepo) CreateBorrowing(_ context.Context, rec model.BorrowingRecord) (model.BorrowingRecord, error) {
	defer f.lock()()
	for _, r := range f.st.borrowings {
		if r.UserID == rec.UserID && r.BookID == rec.BookID && r.Status == model.StatusBorrowed {
			return model.BorrowingRecord{}, errs.ErrAlreadyCheckedOut
		}
	}
	f.st.borrowings[rec.ID] = rec
	return rec, nil
}

func (f *fakeRepo) LockBorrowing(_ context.Context, id string) (model.BorrowingRecord, error) {
	defer f.lock()()
	r, ok := f.st.borrowings[id]
	if !ok {
		return model.BorrowingRecord{}, errs.ErrBorrowingNotFound
	}
	return r, nil
}

func (f *fakeRepo) MarkReturned(_ context.Context, id string, at time.Time) (model.BorrowingRecord, error) {
	defer f.lock()()
	r, ok := f.st.borrowings[id]
	if !ok || r.Status != model.StatusBorrowed {
		return model.BorrowingRecord{}, errs.ErrAlreadyReturned
	}
	r.Status = model.StatusReturned
	r.ReturnedAt = &at
	f.st.borrowings[id] = r
	return r, nil
}

func (f *fakeRepo) HasActiveBorrowing(_ context.Context, userID, bookID string) (bool, error) {
	defer f.lock()()
	for _, r := range f.st.borrowings {
		if r.UserID == userID && r.BookID == bookID && r.Status == model.StatusBorrowed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountActiveByBook(_ context.Context, bookID string) (int, error) {
	defer f.lock()()
	n := 0
	for _, r := range f.st.borrowings {
		if r.BookID == bookID && r.Status == model.StatusBorrowed {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ActiveBorrowingsByBook(_ context.Context, bookID string) ([]model.ActiveBorrowing, error) {
	defer f.lock()()
	var out []model.ActiveBorrowing
	for _, r := range f.st.borrowings {
		if r.BookID != bookID || r.Status != model.StatusBorrowed {
			continue
		}
		u := f.st.users[r.UserID]
		out = append(out, model.ActiveBorrowing{
			ID: r.ID, UserID: r.UserID, UserName: u.Name, UserEmail: u.Email,
			BorrowedAt: r.BorrowedAt, DueDate: r.DueDate,
		})
	}
	return out, nil
}

func (f *fakeRepo) ListBorrowings(_ context.Context, userID string, limit int) ([]model.BorrowingView, error) {
	defer f.lock()()
	var out []model.BorrowingView
	for _, r := range f.st.borrowings {
		if userID != "" && r.UserID != userID {
			continue
		}
		u, b := f.st.users[r.UserID], f.st.books[r.BookID]
		out = append(out, model.BorrowingView{
			BorrowingRecord: r,
			UserName:        u.Name,
			UserEmail:       u.Email,
			BookTitle:       b.Title,
			BookAuthor:      b.Author,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowedAt.After(out[j].BorrowedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountBooks(context.Context) (int, error) {
	defer f.lock()()
	return len(f.st.books), nil
}

func (f *fakeRepo) CountBorrowed(_ context.Context, userID string) (int, error) {
	defer f.lock()()
	n := 0
	for _, r := range f.st.borrowings {
		if r.Status == model.StatusBorrowed && (userID == "" || r.UserID == userID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountOverdue(_ context.Context, userID string, now time.Time) (int, error) {
	defer f.lock()()
	n := 0
	for _, r := range f.st.borrowings {
		if r.Status == model.StatusBorrowed && r.DueDate.Before(now) && (userID == "" || r.UserID == userID) {
			n++
		}
	}
	return n, nil
}

// users

func (f *fakeRepo) LockRegistration(context.Context) error {
	return nil
}

func (f *fakeRepo) CountUsers(context.Context) (int, error) {
	defer f.lock()()
	return len(f.st.users), nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id string) (model.User, error) {
	defer f.lock()()
	u, ok := f.st.users[id]
	if !ok {
		return model.User{}, errs.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	defer f.lock()()
	for _, u := range f.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, errs.ErrUserNotFound
}

func (f *fakeRepo) CreateUser(_ context.Context, user model.User) (model.User, error) {
	defer f.lock()()
	if err := f.fail("CreateUser"); err != nil {
		return model.User{}, err
	}
	for _, u := range f.st.users {
		if u.Email == user.Email {
			return model.User{}, errs.ErrEmailTaken
		}
	}
	user.UpdatedAt = user.CreatedAt
	f.st.users[user.ID] = user
	return user, nil
}

func (f *fakeRepo) UpdateUserRole(_ context.Context, id string, role auth.Role) (model.User, error) {
	defer f.lock()()
	u, ok := f.st.users[id]
	if !ok {
		return model.User{}, errs.ErrUserNotFound
	}
	u.Role = role
	f.st.users[id] = u
	return u, nil
}

func (f *fakeRepo) ListMembers(context.Context) ([]model.Member, error) {
	defer f.lock()()
	out := make([]model.Member, 0, len(f.st.users))
	for _, u := range f.st.users {
		m := model.Member{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
		for _, r := range f.st.borrowings {
			if r.UserID == u.ID && r.Status == model.StatusBorrowed {
				m.ActiveBorrowings++
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// invitations

func (f *fakeRepo) CreateInvitation(_ context.Context, inv model.Invitation) (model.Invitation, error) {
	defer f.lock()()
	f.st.invitations[inv.ID] = inv
	return inv, nil
}

func (f *fakeRepo) LockInvitationByToken(_ context.Context, token string) (model.Invitation, error) {
	defer f.lock()()
	for _, inv := range f.st.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return model.Invitation{}, errs.ErrInvitationNotFound
}

func (f *fakeRepo) MarkInvitationUsed(_ context.Context, id string) error {
	defer f.lock()()
	inv, ok := f.st.invitations[id]
	if !ok || inv.Used {
		return errs.ErrAlreadyUsed
	}
	inv.Used = true
	f.st.invitations[id] = inv
	return nil
}

func (f *fakeRepo) ListInvitations(context.Context) ([]model.Invitation, error) {
	defer f.lock()()
	out := make([]model.Invitation, 0, len(f.st.invitations))
	for _, inv := range f.st.invitations {
		out = append(out, inv)
	}
	return out, nil
}

// activity

func (f *fakeRepo) SaveActivity(_ context.Context, a model.Activity) error {
	defer f.lock()()
	a.ID = int64(len(f.st.activity) + 1)
	f.st.activity = append(f.st.activity, a)
	return nil
}

func (f *fakeRepo) ListActivity(_ context.Context, limit int) ([]model.Activity, error) {
	defer f.lock()()
	out := make([]model.Activity, 0, len(f.st.activity))
	for i := len(f.st.activity) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, f.st.activity[i])
	}
	return out, nil
}
