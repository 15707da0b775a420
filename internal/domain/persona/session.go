package persona

import (
	"sync"
	"time"
)

// Slot is the state of one persona column.
type Slot struct {
	Persona string `json:"persona"`
	Answer  string `json:"answer"`
	Error   string `json:"error"`
}

// Snapshot is a copy of a session safe to hand out.
type Snapshot struct {
	ID        string    `json:"id"`
	Requests  int       `json:"requests"`
	Slots     []Slot    `json:"slots"`
	LastError string    `json:"last_error"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session holds the conversation state of one browser session.
type Session struct {
	mu        sync.Mutex
	id        string
	requests  int
	slots     [Slots]Slot
	lastError string
	updatedAt time.Time
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{id: id, updatedAt: time.Now()}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Requests returns the current value of the rate limit counter.
func (s *Session) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	slots := make([]Slot, Slots)
	copy(slots, s.slots[:])
	return Snapshot{
		ID:        s.id,
		Requests:  s.requests,
		Slots:     slots,
		LastError: s.lastError,
		UpdatedAt: s.updatedAt,
	}
}

// setErrorLocked writes msg to the slot and to the shared last error.
func (s *Session) setErrorLocked(slot int, msg string) {
	s.slots[slot].Error = msg
	s.lastError = msg
	s.updatedAt = time.Now()
}
