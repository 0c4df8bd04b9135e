package session

import (
	"sync"
	"time"
)

// StoreConfig configures a Store instance.
type StoreConfig struct {
	TTL           time.Duration // Idle time before a session expires
	CleanupPeriod time.Duration // How often expired sessions are swept
}

// Store keeps at most one active session per user. All access is
// serialized per user, so concurrent updates from parallel webhook
// deliveries cannot interleave.
type Store struct {
	mu       sync.Mutex
	entries  map[int64]*entry
	config   StoreConfig
	now      func() time.Time // overridable for tests
	onUpdate func(count int)  // Optional callback when active count changes
	stopCh   chan struct{}
	stopOnce sync.Once
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastSeen time.Time
}

// NewStore creates a session store and starts its cleanup goroutine.
//
//	store := session.NewStore(session.StoreConfig{
//	    TTL:           30 * time.Minute,
//	    CleanupPeriod: time.Minute,
//	})
//	defer store.Stop()
func NewStore(cfg StoreConfig) *Store {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = time.Minute
	}

	s := &Store{
		entries: make(map[int64]*entry),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// OnUpdate sets a callback function that is called when the active session count changes.
func (s *Store) OnUpdate(fn func(count int)) {
	s.onUpdate = fn
}

// Get returns the user's active session, or nil if there is none or it
// has expired. Expired sessions are removed on access.
func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	// lastSeen is written under the entry lock, so read it there too.
	e.mu.Lock()
	if s.now().Sub(e.lastSeen) > s.config.TTL {
		delete(s.entries, userID)
		e.mu.Unlock()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	defer e.mu.Unlock()
	return e.session
}

// Put replaces the user's session and refreshes its idle timer.
func (s *Store) Put(userID int64, sess *Session) {
	s.Update(userID, func(*Session) *Session { return sess })
}

// Clear removes the user's session if present.
func (s *Store) Clear(userID int64) {
	s.Update(userID, func(*Session) *Session { return nil })
}

// Update runs fn under the user's lock, passing the current session
// (nil when none is active or it has expired) and storing the returned
// one. Returning nil ends the session. The read-modify-write is atomic
// with respect to other calls for the same user.
func (s *Store) Update(userID int64, fn func(current *Session) *Session) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{lastSeen: s.now()}
		s.entries[userID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	current := e.session
	if current != nil && s.now().Sub(e.lastSeen) > s.config.TTL {
		current = nil
	}
	next := fn(current)
	e.session = next
	e.lastSeen = s.now()
	e.mu.Unlock()

	if next == nil {
		s.mu.Lock()
		if stored, ok := s.entries[userID]; ok && stored == e {
			// Only drop the entry if no newer session replaced it
			// meanwhile. The re-check needs the entry lock: another
			// Update may be storing a session right now.
			e.mu.Lock()
			if e.session == nil {
				delete(s.entries, userID)
			}
			e.mu.Unlock()
		}
		s.mu.Unlock()
	}

	s.notify()
}

// ActiveCount returns the number of users with a stored session.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.ActiveCount())
	}
}

// cleanupLoop periodically removes idle sessions.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := s.now()

	s.mu.Lock()
	for userID, e := range s.entries {
		e.mu.Lock()
		expired := now.Sub(e.lastSeen) > s.config.TTL
		e.mu.Unlock()
		if expired {
			delete(s.entries, userID)
		}
	}
	s.mu.Unlock()

	s.notify()
}

// Stop gracefully stops the cleanup goroutine.
// Safe to call multiple times.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
