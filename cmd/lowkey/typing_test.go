package main

import (
	"testing"
	"time"
)

func TestTypingState_MarkAndExpire(t *testing.T) {
	ts := &typingState{byRoom: map[string]map[string]time.Time{}}
	now := time.Now()

	ts.mark("room1", "alice", now)
	ts.mark("room1", "bob", now)

	if got := ts.active("room1", now); len(got) != 2 {
		t.Errorf("active() = %v, want alice and bob", got)
	}

	// past the TTL both entries are swept
	later := now.Add(typingTTL + time.Second)
	if got := ts.active("room1", later); len(got) != 0 {
		t.Errorf("active() after expiry = %v, want empty", got)
	}

	// re-marking after expiry works
	ts.mark("room1", "alice", later)
	if got := ts.active("room1", later); len(got) != 1 || got[0] != "alice" {
		t.Errorf("active() = %v, want [alice]", got)
	}
}

func TestTypingState_RoomsAreIndependent(t *testing.T) {
	ts := &typingState{byRoom: map[string]map[string]time.Time{}}
	now := time.Now()

	ts.mark("room1", "alice", now)
	if got := ts.active("room2", now); len(got) != 0 {
		t.Errorf("room2 active() = %v, want empty", got)
	}
}
