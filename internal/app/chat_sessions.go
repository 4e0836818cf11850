package app

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("chat session not found")

type chatSession struct {
	shell    *ChatShell
	lastSeen time.Time
}

// ChatSessions keeps one shell per HTTP chat session, in memory only.
type ChatSessions struct {
	asker Asker
	idle  time.Duration

	mu       sync.Mutex
	sessions map[string]*chatSession
}

func NewChatSessions(asker Asker, idle time.Duration) *ChatSessions {
	return &ChatSessions{
		asker:    asker,
		idle:     idle,
		sessions: make(map[string]*chatSession),
	}
}

func (r *ChatSessions) Create() (string, *ChatShell) {
	id := uuid.NewString()
	shell := NewChatShell(r.asker)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(time.Now())
	r.sessions[id] = &chatSession{shell: shell, lastSeen: time.Now()}
	return id, shell
}

func (r *ChatSessions) Get(id string) (*ChatShell, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = time.Now()
	return s.shell, nil
}

func (r *ChatSessions) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *ChatSessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictLocked drops sessions idle for longer than r.idle. A zero idle keeps everything.
func (r *ChatSessions) evictLocked(now time.Time) {
	if r.idle <= 0 {
		return
	}
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idle {
			delete(r.sessions, id)
		}
	}
}
