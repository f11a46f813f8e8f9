package inmem

import (
	"sync"

	"github.com/quangvd/barem/core/similarity"
)

// ResultStore is the session-scoped similarity cache: plain map, no
// eviction, gone with the process.
type ResultStore struct {
	mu      sync.RWMutex
	results map[int]similarity.Result
}

var _ similarity.Store = (*ResultStore)(nil)

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[int]similarity.Result)}
}

func (s *ResultStore) Get(docFileID int) (similarity.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[docFileID]
	return res, ok
}

func (s *ResultStore) Put(res similarity.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.DocFileID] = res
}

func (s *ResultStore) Delete(docFileID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, docFileID)
}
