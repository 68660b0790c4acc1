package server

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/poiesic/fixit/core"
)

const (
	// DefaultSessionWindow is how many turns a session remembers.
	DefaultSessionWindow = 10

	// DefaultMaxSessions bounds the number of live conversations.
	DefaultMaxSessions = 4096

	// DefaultSessionTTL is how long an idle conversation is kept.
	DefaultSessionTTL = 30 * time.Minute
)

// Turn is one analyzed exchange in a conversation.
type Turn struct {
	Query    string
	Intent   core.Intent
	Entities core.Entities
	At       time.Time
}

// Session holds a conversation's recent turns, oldest first.
type Session struct {
	Id    string
	Turns []Turn
}

// Enrich fills the analysis's empty entity fields from the session's most
// recent turns, so a follow-up like "how do I install it" keeps the
// appliance and part under discussion. A follow-up the analyzer could not
// classify inherits the previous turn's intent. Issue keywords and the
// installation/comparison flags describe the current question only and are
// never inherited.
func (s *Session) Enrich(analysis *core.QueryAnalysis) {
	if analysis == nil || len(s.Turns) == 0 {
		return
	}

	if analysis.Intent == core.IntentGeneralQuestion && analysis.Confidence == 0 {
		if last := s.Turns[len(s.Turns)-1]; last.Intent != core.IntentGeneralQuestion {
			analysis.Intent = last.Intent
		}
	}

	for i := len(s.Turns) - 1; i >= 0; i-- {
		previous := s.Turns[i].Entities
		if analysis.Entities.ApplianceType == "" {
			analysis.Entities.ApplianceType = previous.ApplianceType
		}
		if analysis.Entities.Brand == "" {
			analysis.Entities.Brand = previous.Brand
		}
		if analysis.Entities.PartType == "" {
			analysis.Entities.PartType = previous.PartType
		}
		if analysis.Entities.ModelNumber == "" {
			analysis.Entities.ModelNumber = previous.ModelNumber
		}
	}
}

func (s *Session) clone() *Session {
	c := &Session{Id: s.Id, Turns: make([]Turn, len(s.Turns))}
	copy(c.Turns, s.Turns)
	return c
}

// SessionStore keeps conversation state in memory so follow-up questions can
// reuse earlier context. Sessions expire after a period of inactivity and the
// least recently used one is evicted when the store is full. Safe for
// concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *Session]
	window   int
}

// NewSessionStore creates a store holding up to maxSessions conversations for
// ttl each, remembering the last window turns per conversation. Non-positive
// arguments fall back to the defaults.
func NewSessionStore(maxSessions, window int, ttl time.Duration) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if window <= 0 {
		window = DefaultSessionWindow
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: expirable.NewLRU[string, *Session](maxSessions, nil, ttl),
		window:   window,
	}
}

// Get returns a snapshot of the session, or nil when the id is unknown or
// the session has expired.
func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions.Get(id)
	if !ok {
		return nil
	}
	return session.clone()
}

// Remember appends a turn to the identified session, creating the session on
// first use and trimming it to the configured window.
func (st *SessionStore) Remember(id string, turn Turn) {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions.Get(id)
	if ok {
		session = session.clone()
	} else {
		session = &Session{Id: id}
	}

	session.Turns = append(session.Turns, turn)
	if len(session.Turns) > st.window {
		session.Turns = session.Turns[len(session.Turns)-st.window:]
	}
	st.sessions.Add(id, session)
}

// Len reports how many sessions are live.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions.Len()
}
