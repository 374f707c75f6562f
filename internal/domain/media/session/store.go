// Package session holds the transient pending-link state between the moment
// a user submits a URL and the moment they pick a media kind. Entries are
// keyed per (chat, user) so concurrent users never see each other's links,
// and expire after a TTL. Nothing here survives a restart.
package session

import (
	"sync"
	"time"
)

type key struct {
	chatID int64
	userID int64
}

type entry struct {
	url       string
	expiresAt time.Time
}

// Store is a mutex-guarded in-memory session map
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[key]entry
}

// NewStore creates a session store with the given entry TTL
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[key]entry),
	}
}

// Put stores the pending URL for a (chat, user) pair, replacing any previous
// one. Expired entries are swept opportunistically.
func (s *Store) Put(chatID, userID int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}

	s.entries[key{chatID: chatID, userID: userID}] = entry{
		url:       url,
		expiresAt: now.Add(s.ttl),
	}
}

// Consume removes and returns the pending URL for a (chat, user) pair.
// Expired or absent entries report ok=false.
func (s *Store) Consume(chatID, userID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{chatID: chatID, userID: userID}
	e, ok := s.entries[k]
	if !ok {
		return "", false
	}

	delete(s.entries, k)

	if time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.url, true
}

// Len returns the number of stored entries, expired ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
