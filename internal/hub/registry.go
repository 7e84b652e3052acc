package hub

import "sync"

// Session is the authenticated identity bound to a connection.
type Session struct {
	UserID   int64
	Username string
	FullName string
}

// SessionRegistry maps live connections to authenticated identities. It is
// keyed by connection, so one user with several connections appears once per
// connection. Purely in-memory, process-lifetime state.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[*Client]Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[*Client]Session),
	}
}

// Bind attaches a session to the connection, replacing any prior binding.
func (r *SessionRegistry) Bind(c *Client, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[c] = s
}

func (r *SessionRegistry) Lookup(c *Client) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[c]
	return s, ok
}

// Unbind removes the connection's session, if any. Called on transport close
// and on explicit logout.
func (r *SessionRegistry) Unbind(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, c)
}

// FindAllByUserID returns every connection currently bound to the user.
func (r *SessionRegistry) FindAllByUserID(userID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var clients []*Client
	for c, s := range r.sessions {
		if s.UserID == userID {
			clients = append(clients, c)
		}
	}
	return clients
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
