// Package session keeps decoded books of active readers in memory.
package session

import (
	"sync"

	"github.com/m3rciful/readerbot/internal/book"
)

// Session is the cached reading state of one user. Page mirrors the durable
// page index of BookID.
type Session struct {
	BookID     string
	Title      string
	Format     book.Format
	Paragraphs []string
	Page       int
}

// Store maps user IDs to sessions. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Put replaces the user's session wholesale.
func (s *Store) Put(userID int64, sess Session) {
	if sess.Page < 0 {
		sess.Page = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &sess
}

// Delete drops the user's session.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports the number of cached sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SetPage overwrites the cached page index. It reports false when no session exists.
func (s *Store) SetPage(userID int64, page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return false
	}
	sess.Page = max(page, 0)
	return true
}

// Advance moves the page index by delta and returns the new value. Moving below
// zero fails with book.ErrAlreadyAtStart and leaves the session untouched.
func (s *Store) Advance(userID int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return 0, book.ErrNoActiveSession
	}
	next := sess.Page + delta
	if next < 0 {
		return sess.Page, book.ErrAlreadyAtStart
	}
	sess.Page = next
	return next, nil
}
