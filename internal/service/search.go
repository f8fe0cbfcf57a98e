package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/search"
)

// SearchService answers catalog searches. The index is derived from the
// catalog and rebuilt whenever the catalog revision has moved on since the
// last query, so it never serves stale placements.
type SearchService struct {
	index  *search.Index
	state  *StateService
	logger *slog.Logger

	mu      sync.Mutex
	indexed uint64
	built   bool
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, st *StateService, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, state: st, logger: logger}
}

// Search runs a query. When forUserID is set, books the reader is too young
// for are left out.
func (s *SearchService) Search(ctx context.Context, params search.Params, forUserID string) (*search.Result, error) {
	if forUserID != "" {
		st := s.state.State()
		u, ok := st.FindUser(forUserID)
		if !ok {
			return nil, errors.NotFoundf("user %s not found", forUserID)
		}
		params.ReaderAge = domain.NewProfile(u, s.state.Now()).Age
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, params)
}

// Reindex rebuilds the index from the current catalog.
func (s *SearchService) Reindex() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, rev := s.state.Snapshot()
	return s.rebuildLocked(search.FromState(&st), rev)
}

func (s *SearchService) refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, rev := s.state.Snapshot()
	if s.built && rev == s.indexed {
		return nil
	}
	return s.rebuildLocked(search.FromState(&st), rev)
}

func (s *SearchService) rebuildLocked(docs []*search.Document, rev uint64) error {
	if err := s.index.Rebuild(docs); err != nil {
		return errors.Internalf("rebuild search index").WithCause(fmt.Errorf("revision %d: %w", rev, err))
	}
	s.indexed = rev
	s.built = true
	s.logger.Debug("search index rebuilt", "documents", len(docs), "revision", rev)
	return nil
}

// DocumentCount returns how many documents the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
