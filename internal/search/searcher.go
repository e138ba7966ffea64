package search

import (
	"context"
	"sync"

	"github.com/altinukshini/fzsearch/internal/model"
)

// Backend runs a single search. *Engine implements it.
type Backend interface {
	Search(ctx context.Context, req model.Request) (Result, error)
}

// Outcome is the result of one search started through a Searcher.
type Outcome struct {
	ID      uint64
	Request model.Request
	Result  Result
	Err     error
}

// Searcher allows one search at a time. Starting a new search cancels the
// previous one, which kills its process group.
type Searcher struct {
	backend Backend

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewSearcher(backend Backend) *Searcher {
	return &Searcher{backend: backend}
}

// Start supersedes any in-flight search and returns the new search's ID and
// a function that runs it. The function blocks and is meant to be called
// off the UI goroutine.
func (s *Searcher) Start(parent context.Context, req model.Request) (uint64, func() Outcome) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	id := s.gen
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.mu.Unlock()

	return id, func() Outcome {
		defer s.release(id, cancel)
		res, err := s.backend.Search(ctx, req)
		return Outcome{ID: id, Request: req, Result: res, Err: err}
	}
}

// Current reports whether id belongs to the most recently started search.
// Outcomes of superseded searches must be discarded.
func (s *Searcher) Current(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id == s.gen
}

// Cancel stops the in-flight search, if any, and invalidates its outcome.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Searcher) release(id uint64, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.gen {
		s.cancel = nil
	}
}
