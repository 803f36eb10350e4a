package main

import (
	"sort"
	"testing"
)

func TestPresenceTracker_JoinIdempotent(t *testing.T) {
	tr := newPresenceTracker()

	tr.join("conn1", "alice", "room1")
	tr.join("conn1", "alice", "room1")

	got := tr.membersPresent("room1")
	if len(got) != 1 || got[0] != "conn1" {
		t.Fatalf("membersPresent() = %v, want [conn1]", got)
	}

	user, ok := tr.userOf("conn1")
	if !ok || user != "alice" {
		t.Fatalf("userOf(conn1) = %q, %v, want alice, true", user, ok)
	}
}

func TestPresenceTracker_MultipleRoomsPerConnection(t *testing.T) {
	tr := newPresenceTracker()

	tr.join("conn1", "alice", "room1")
	tr.join("conn1", "alice", "room2")
	tr.join("conn2", "bob", "room1")

	if got := tr.membersPresent("room1"); len(got) != 2 {
		t.Errorf("room1 membersPresent() = %v, want 2 connections", got)
	}
	if got := tr.membersPresent("room2"); len(got) != 1 || got[0] != "conn1" {
		t.Errorf("room2 membersPresent() = %v, want [conn1]", got)
	}
}

func TestPresenceTracker_LeaveIdempotent(t *testing.T) {
	tr := newPresenceTracker()

	tr.join("conn1", "alice", "room1")
	tr.leave("conn1", "room1")
	tr.leave("conn1", "room1") // second leave must not panic or corrupt

	if got := tr.membersPresent("room1"); len(got) != 0 {
		t.Errorf("membersPresent() after double leave = %v, want empty", got)
	}
	if _, ok := tr.userOf("conn1"); ok {
		t.Error("connection with zero rooms should be pruned")
	}
}

func TestPresenceTracker_LeaveUnknownConnection(t *testing.T) {
	tr := newPresenceTracker()
	tr.leave("ghost", "room1") // must not panic
	if got := tr.membersPresent("room1"); len(got) != 0 {
		t.Errorf("membersPresent() = %v, want empty", got)
	}
}

func TestPresenceTracker_OnDisconnect(t *testing.T) {
	tr := newPresenceTracker()

	tr.join("conn1", "alice", "room1")
	tr.join("conn1", "alice", "room2")
	tr.join("conn2", "bob", "room1")

	rooms := tr.onDisconnect("conn1")
	sort.Strings(rooms)
	if len(rooms) != 2 || rooms[0] != "room1" || rooms[1] != "room2" {
		t.Fatalf("onDisconnect() = %v, want [room1 room2]", rooms)
	}

	if got := tr.membersPresent("room1"); len(got) != 1 || got[0] != "conn2" {
		t.Errorf("room1 after disconnect = %v, want [conn2]", got)
	}
	if got := tr.membersPresent("room2"); len(got) != 0 {
		t.Errorf("room2 after disconnect = %v, want empty", got)
	}
	if _, ok := tr.userOf("conn1"); ok {
		t.Error("disconnected connection should be gone")
	}

	// second disconnect is a no-op
	if rooms := tr.onDisconnect("conn1"); rooms != nil {
		t.Errorf("second onDisconnect() = %v, want nil", rooms)
	}
}
