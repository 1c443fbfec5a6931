package webui

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webpack-chart/internal/chart"
	"github.com/webpack-chart/internal/navigation"
)

// Session is one viewer: a navigation controller plus the style its chart is drawn
// in. The mutex serialises events so each activation sees the previous one's result.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	ctrl      *navigation.Controller
	style     chart.Style
	source    string
	demo      bool
	updatedAt time.Time
}

// SessionState is the JSON snapshot of a session.
type SessionState struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Demo       bool        `json:"demo"`
	Breadcrumb []string    `json:"breadcrumb"`
	Selected   []string    `json:"selected"`
	TotalSize  int64       `json:"totalSize"`
	Modules    int         `json:"modules"`
	View       *chart.View `json:"view"`
	Transition string      `json:"transition,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// SessionStore keeps at most max sessions, evicting the least recently created.
type SessionStore struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*Session
	order    []string
	onEvict  func()
}

// NewSessionStore creates a store capped at max sessions.
func NewSessionStore(max int) *SessionStore {
	if max < 1 {
		max = 1
	}
	return &SessionStore{
		max:      max,
		sessions: make(map[string]*Session),
	}
}

// Add stores s under a fresh id and returns the ids evicted to make room.
func (st *SessionStore) Add(s *Session) []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.ID = uuid.New().String()
	st.sessions[s.ID] = s
	st.order = append(st.order, s.ID)

	var evicted []string
	for len(st.order) > st.max {
		oldest := st.order[0]
		st.order = st.order[1:]
		delete(st.sessions, oldest)
		evicted = append(evicted, oldest)
		if st.onEvict != nil {
			st.onEvict()
		}
	}
	return evicted
}

// Get returns the session with id.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session. It reports whether the id existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	for i, v := range st.order {
		if v == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
