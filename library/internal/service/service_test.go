package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/service"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"go.uber.org/zap"
)

var (
	t0        = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	admin     = auth.Actor{UserID: "u-admin", Email: "admin@library.com", Role: auth.RoleAdmin}
	librarian = auth.Actor{UserID: "u-lib", Email: "librarian@library.com", Role: auth.RoleLibrarian}
	alice     = auth.Actor{UserID: "u-alice", Email: "alice@library.com", Role: auth.RoleMember}
	bob       = auth.Actor{UserID: "u-bob", Email: "bob@library.com", Role: auth.RoleMember}
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []kafka.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]kafka.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	svc    *service.Service
	repo   *fakeRepo
	clock  *clock
	events *recordingPublisher
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newFakeRepo(),
		clock:  &clock{now: t0},
		events: &recordingPublisher{},
	}
	opts = append([]service.Option{
		service.WithClock(f.clock.Now),
		service.WithEvents(f.events),
	}, opts...)
	f.svc = service.NewService(f.repo, auth.NewTokenIssuer("test-secret", time.Hour), zap.NewNop(), opts...)
	for _, a := range []auth.Actor{admin, librarian, alice, bob} {
		f.repo.putUser(model.User{ID: a.UserID, Email: a.Email, Name: a.Email, Role: a.Role, CreatedAt: t0})
	}
	return f
}

func (f *fixture) addBook(id string, total, available int) model.Book {
	b := model.Book{
		ID:              id,
		ISBN:            "isbn-" + id,
		Title:           "Title " + id,
		Author:          "Author " + id,
		Genre:           "Fiction",
		TotalCopies:     total,
		AvailableCopies: available,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	}
	f.repo.putBook(b)
	return b
}
