// session/session.go
package session

import (
	"sort"
	"time"

	"github.com/wfunc/sweeper/game"
)

// Session is the server-side record of one client connection.
type Session struct {
	ID string
	// RoomCode is the room the connection belongs to, "" when none.
	RoomCode string
	// OfferedCode is the code minted for this connection on "connection";
	// it stays reserved until the connection joins a room.
	OfferedCode string
	// Game is the board this connection created, if any.
	Game       *game.Session
	CreatedAt  time.Time
	LastActive time.Time
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Touch records activity on the connection.
func (s *Session) Touch() {
	s.LastActive = time.Now()
}

// Manager tracks connection records. It is owned by the relay event loop
// and is not safe for concurrent use.
type Manager struct {
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Len() int {
	return len(m.sessions)
}

// List returns all sessions ordered by creation time.
func (m *Manager) List() []*Session {
	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// IdleSince returns the sessions with no activity after cutoff.
func (m *Manager) IdleSince(cutoff time.Time) []*Session {
	var result []*Session
	for _, session := range m.List() {
		if session.LastActive.Before(cutoff) {
			result = append(result, session)
		}
	}
	return result
}

// InRoom returns the sessions whose current room is code.
func (m *Manager) InRoom(code string) []*Session {
	var result []*Session
	for _, session := range m.List() {
		if session.RoomCode == code {
			result = append(result, session)
		}
	}
	return result
}
