package main

import (
	"sync"
	"time"
)

const typingTTL = 3 * time.Second

// typingState tracks who is typing in which room. Entries expire on
// read; nothing persists.
type typingState struct {
	mu     sync.Mutex
	byRoom map[string]map[string]time.Time // roomID -> display name -> expiresAt
}

var typing = typingState{byRoom: map[string]map[string]time.Time{}}

func (t *typingState) mark(roomID, name string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byRoom[roomID] == nil {
		t.byRoom[roomID] = map[string]time.Time{}
	}
	t.byRoom[roomID][name] = now.Add(typingTTL)
}

// active returns who is still typing, sweeping expired entries.
func (t *typingState) active(roomID string, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.byRoom[roomID]
	out := []string{}
	for name, exp := range m {
		if now.Before(exp) {
			out = append(out, name)
		} else {
			delete(m, name)
		}
	}
	return out
}
