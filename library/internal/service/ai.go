package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AliMakkawi/library-management/library/internal/errs"
	"github.com/AliMakkawi/library-management/library/internal/model"
	"github.com/AliMakkawi/library-management/library/internal/policy"
	"github.com/AliMakkawi/library-management/pkg/ai"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/cache"
	cb "github.com/AliMakkawi/library-management/pkg/circuit_breaker"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxQueryLength = 500

// SearchBooks asks the AI collaborator to rank the catalog against a free-text query.
// Suggestions naming unknown books are dropped.
func (s *Service) SearchBooks(ctx context.Context, actor auth.Actor, query string) ([]model.SearchResult, error) {
	if err := policy.Authorize(actor, policy.AISearch, ""); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) > maxQueryLength {
		return nil, errs.ErrInvalidQuery
	}
	if s.ai == nil {
		return nil, errs.ErrAIUnconfigured
	}

	key := cache.Key("search", strings.ToLower(query))
	var matches []ai.Match
	hit, err := s.cache.Get(ctx, key, &matches)
	if err != nil {
		s.log.Warn("search cache get", zap.Error(err))
	}
	if !hit {
		books, err := s.repo.AllBooks(ctx)
		if err != nil {
			return nil, err
		}
		if len(books) == 0 {
			return []model.SearchResult{}, nil
		}
		catalog := make([]ai.CatalogEntry, 0, len(books))
		for _, b := range books {
			catalog = append(catalog, ai.CatalogEntry{
				ID:              b.ID,
				Title:           b.Title,
				Author:          b.Author,
				Genre:           b.Genre,
				Description:     b.Description,
				PublicationYear: b.PublicationYear,
				AvailableCopies: b.AvailableCopies,
			})
		}
		err = s.callAI(func() error {
			var err error
			matches, err = s.ai.Search(ctx, query, catalog)
			return err
		})
		s.metrics.AICall("search", err)
		if err != nil {
			return nil, err
		}
		if err = s.cache.Set(ctx, key, matches); err != nil {
			s.log.Warn("search cache set", zap.Error(err))
		}
	}
	return s.resolveMatches(ctx, matches)
}

func (s *Service) resolveMatches(ctx context.Context, matches []ai.Match) ([]model.SearchResult, error) {
	ids := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.BookID]; ok || m.BookID == "" {
			continue
		}
		seen[m.BookID] = struct{}{}
		ids = append(ids, m.BookID)
	}
	books, err := s.repo.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	results := make([]model.SearchResult, 0, len(ids))
	for _, m := range matches {
		book, ok := byID[m.BookID]
		if !ok {
			continue
		}
		delete(byID, m.BookID)
		results = append(results, model.SearchResult{
			Book:           book,
			MatchReason:    m.MatchReason,
			RelevanceScore: m.RelevanceScore,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

// SummarizeBook returns the cached summary unless regenerate is set.
func (s *Service) SummarizeBook(ctx context.Context, actor auth.Actor, bookID string, regenerate bool) (model.Summary, error) {
	if err := policy.Authorize(actor, policy.AISummarize, ""); err != nil {
		return model.Summary{}, err
	}
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.Summary{}, err
	}
	if book.AISummary != nil && *book.AISummary != "" && !regenerate {
		return model.Summary{BookID: book.ID, Summary: *book.AISummary, Cached: true}, nil
	}
	if s.ai == nil {
		return model.Summary{}, errs.ErrAIUnconfigured
	}

	var summary string
	err = s.callAI(func() error {
		var err error
		summary, err = s.ai.Summarize(ctx, ai.BookInfo{
			Title:       book.Title,
			Author:      book.Author,
			Genre:       book.Genre,
			Description: book.Description,
		})
		return err
	})
	s.metrics.AICall("summarize", err)
	if err != nil {
		return model.Summary{}, err
	}
	if err = s.repo.SetAISummary(ctx, book.ID, summary); err != nil {
		return model.Summary{}, err
	}
	return model.Summary{BookID: book.ID, Summary: summary}, nil
}

func (s *Service) callAI(fn func() error) error {
	err := s.breaker.Call(fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cb.ErrOpenCB):
		return errs.ErrCircuitOpen
	case errors.Is(err, ai.ErrUnconfigured):
		return errs.ErrAIUnconfigured
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.log.Error("ai call", zap.Error(err))
	return errors.Wrap(err, "AI service")
}
