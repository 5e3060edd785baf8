package claims

import "sync"

// inflightSet is the per-wallet mutual exclusion for claims within one
// process. Acquire fails fast instead of queueing.
type inflightSet struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{active: map[string]struct{}{}}
}

func (s *inflightSet) TryAcquire(wallet string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[wallet]; ok {
		return false
	}
	s.active[wallet] = struct{}{}
	return true
}

func (s *inflightSet) Release(wallet string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, wallet)
}
