package genai

import "sync"

// message is one turn of a user's small-talk conversation.
type message struct {
	role    string // "user" or "assistant"
	content string
}

// historyStore keeps a rolling window of recent conversation turns per
// user. Safe for concurrent use.
type historyStore struct {
	mu      sync.Mutex
	byUser  map[int64][]message
	maxSize int
}

func newHistoryStore(maxSize int) *historyStore {
	return &historyStore{
		byUser:  make(map[int64][]message),
		maxSize: maxSize,
	}
}

// get returns a copy of the user's history.
func (h *historyStore) get(userID int64) []message {
	h.mu.Lock()
	defer h.mu.Unlock()

	stored := h.byUser[userID]
	out := make([]message, len(stored))
	copy(out, stored)
	return out
}

// add appends a turn, dropping the oldest once the window is full.
func (h *historyStore) add(userID int64, role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	history := append(h.byUser[userID], message{role: role, content: content})
	if len(history) > h.maxSize {
		history = history[len(history)-h.maxSize:]
	}
	h.byUser[userID] = history
}

// clear drops the user's history.
func (h *historyStore) clear(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byUser, userID)
}
