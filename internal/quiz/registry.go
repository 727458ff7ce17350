package quiz

import "sync"

// Registry tracks at most one live session per channel plus an in-flight
// creation mark, so two simultaneous start commands cannot both pass the
// duplicate check while the first game is still loading songs.
type Registry struct {
	mu       sync.Mutex
	active   map[string]*Session
	creating map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		active:   make(map[string]*Session),
		creating: make(map[string]struct{}),
	}
}

// TryBeginCreate atomically claims the channel for game creation. It fails
// when a session is active or another creation is already in flight.
func (r *Registry) TryBeginCreate(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[channelID]; ok {
		return false
	}
	if _, ok := r.creating[channelID]; ok {
		return false
	}
	r.creating[channelID] = struct{}{}
	return true
}

// AbortCreate releases the creation mark without installing a session.
// Every creation error path must end here.
func (r *Registry) AbortCreate(channelID string) {
	r.mu.Lock()
	delete(r.creating, channelID)
	r.mu.Unlock()
}

// Commit installs the session and releases the creation mark.
func (r *Registry) Commit(channelID string, s *Session) {
	r.mu.Lock()
	delete(r.creating, channelID)
	r.active[channelID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(channelID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[channelID]
}

// End removes the channel's session. Idempotent.
func (r *Registry) End(channelID string) {
	r.mu.Lock()
	delete(r.active, channelID)
	delete(r.creating, channelID)
	r.mu.Unlock()
}

func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
