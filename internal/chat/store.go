package chat

import "sync"

// Store is the append-only conversation log. Ordering equals creation order;
// entries are never updated or removed once appended.
type Store struct {
	mu       sync.RWMutex
	messages []Message
}

func NewStore() *Store {
	return &Store{}
}

// Append adds a message to the end of the log.
func (s *Store) Append(message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, message)
}

// All returns a copied snapshot of the log, oldest first.
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Len reports the number of entries in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}
