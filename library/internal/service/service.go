package service

import (
	"context"
	"time"

	"github.com/AliMakkawi/library-management/library/internal/repository"
	"github.com/AliMakkawi/library-management/pkg/ai"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/cache"
	cb "github.com/AliMakkawi/library-management/pkg/circuit_breaker"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/AliMakkawi/library-management/pkg/metrics"
	"go.uber.org/zap"
)

const (
	defaultLoanPeriod    = 14 * 24 * time.Hour
	defaultInvitationTTL = 7 * 24 * time.Hour
)

// AIClient is the optional language-model collaborator.
type AIClient interface {
	Summarize(ctx context.Context, book ai.BookInfo) (string, error)
	Search(ctx context.Context, query string, catalog []ai.CatalogEntry) ([]ai.Match, error)
}

type Service struct {
	log     *zap.Logger
	repo    repository.Repository
	tokens  *auth.TokenIssuer
	events  kafka.Publisher
	ai      AIClient
	breaker cb.CircuitBreaker
	cache   cache.Cache
	metrics *metrics.Metrics

	loanPeriod    time.Duration
	invitationTTL time.Duration
	now           func() time.Time
}

type Option func(s *Service)

func WithAI(client AIClient, breaker cb.CircuitBreaker) Option {
	return func(s *Service) {
		s.ai = client
		s.breaker = breaker
	}
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithEvents(p kafka.Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLoanPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loanPeriod = d
		}
	}
}

func WithInvitationTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.invitationTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.Repository, tokens *auth.TokenIssuer, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:           log.Named("service"),
		repo:          repo,
		tokens:        tokens,
		events:        kafka.NopPublisher{},
		cache:         cache.Nop{},
		loanPeriod:    defaultLoanPeriod,
		invitationTTL: defaultInvitationTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ai != nil && s.breaker == nil {
		s.breaker = cb.New(10, 30*time.Second, 0.5, 2)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
