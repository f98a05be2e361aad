package dashboard

import "sync"

// Registry keeps one board per signed-in session.
type Registry struct {
	mu     sync.Mutex
	boards map[string]*Store
	build  func() *Store
}

// NewRegistry creates boards on demand with build.
func NewRegistry(build func() *Store) *Registry {
	return &Registry{boards: make(map[string]*Store), build: build}
}

// For returns the board for sessionID, creating it on first use.
func (r *Registry) For(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.boards[sessionID]
	if !ok {
		s = r.build()
		r.boards[sessionID] = s
	}
	return s
}

// Drop forgets a session's board, typically on sign-out.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, sessionID)
}

// Len is the number of live boards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}
