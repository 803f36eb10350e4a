package main

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTracker knows which connections are subscribed to which rooms
// right now. It is not the member list (that lives in roomStore); it
// only answers "who is online and joined, for broadcast targeting".
// Single-node by design: entries die with the process.
type presenceTracker struct {
	mu    sync.RWMutex
	conns map[string]*presenceEntry        // connection id -> entry
	rooms map[string]map[string]struct{}   // room id -> connection ids
}

type presenceEntry struct {
	userID string
	rooms  map[string]struct{}
}

func newPresenceTracker() *presenceTracker {
	return &presenceTracker{
		conns: make(map[string]*presenceEntry),
		rooms: make(map[string]map[string]struct{}),
	}
}

// join subscribes a connection to a room. Calling it again for the same
// pair is a no-op.
func (t *presenceTracker) join(connID, userID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.conns[connID]
	if e == nil {
		e = &presenceEntry{userID: userID, rooms: make(map[string]struct{})}
		t.conns[connID] = e
	}
	e.rooms[roomID] = struct{}{}
	if t.rooms[roomID] == nil {
		t.rooms[roomID] = make(map[string]struct{})
	}
	t.rooms[roomID][connID] = struct{}{}
}

// leave unsubscribes a connection from a room; unknown pairs are
// ignored. A connection with no rooms left is pruned.
func (t *presenceTracker) leave(connID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.conns[connID]; e != nil {
		delete(e.rooms, roomID)
		if len(e.rooms) == 0 {
			delete(t.conns, connID)
		}
	}
	if m := t.rooms[roomID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(t.rooms, roomID)
		}
	}
}

// membersPresent returns the connection ids currently joined to a room.
func (t *presenceTracker) membersPresent(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.rooms[roomID]))
	for id := range t.rooms[roomID] {
		out = append(out, id)
	}
	return out
}

// userOf maps a connection back to its user.
func (t *presenceTracker) userOf(connID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.conns[connID]
	if e == nil {
		return "", false
	}
	return e.userID, true
}

// onDisconnect removes every subscription the connection held and
// returns the rooms it was in, so the gateway can emit a "left" per
// room.
func (t *presenceTracker) onDisconnect(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.conns[connID]
	if e == nil {
		return nil
	}
	delete(t.conns, connID)
	rooms := make([]string, 0, len(e.rooms))
	for roomID := range e.rooms {
		rooms = append(rooms, roomID)
		if m := t.rooms[roomID]; m != nil {
			delete(m, connID)
			if len(m) == 0 {
				delete(t.rooms, roomID)
			}
		}
	}
	return rooms
}

// onlineStore is the Redis-backed view of who is online, for the REST
// presence endpoint and cross-restart visibility. Keys:
//
//	pres:user:{userId} = "1" (EX ttl)
//	pres:room:{roomId} = set of userIds (cleaned on fetch)
//	lastseen:{userId}  = RFC3339 timestamp
type onlineStore struct {
	rdb  *redis.Client
	ttl  time.Duration
	tick time.Duration
}

func newOnlineStore(r *redis.Client, ttl, tick time.Duration) *onlineStore {
	return &onlineStore{rdb: r, ttl: ttl, tick: tick}
}

func (p *onlineStore) heartbeatUser(ctx context.Context, userID string) error {
	return p.rdb.Set(ctx, "pres:user:"+userID, "1", p.ttl).Err()
}

func (p *onlineStore) addToRoom(ctx context.Context, roomID, userID string) error {
	return p.rdb.SAdd(ctx, "pres:room:"+roomID, userID).Err()
}

func (p *onlineStore) removeFromRoom(ctx context.Context, roomID, userID string) error {
	return p.rdb.SRem(ctx, "pres:room:"+roomID, userID).Err()
}

// onlineInRoom lists userIds with a live heartbeat, dropping stale set
// entries as it goes.
func (p *onlineStore) onlineInRoom(ctx context.Context, roomID string) ([]string, error) {
	users, err := p.rdb.SMembers(ctx, "pres:room:"+roomID).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(users))
	for _, u := range users {
		exists, _ := p.rdb.Exists(ctx, "pres:user:"+u).Result()
		if exists == 1 {
			out = append(out, u)
		} else {
			_ = p.rdb.SRem(ctx, "pres:room:"+roomID, u).Err()
		}
	}
	return out, nil
}

func (p *onlineStore) setLastSeen(ctx context.Context, userID string, t time.Time) {
	_ = p.rdb.Set(ctx, "lastseen:"+userID, t.Format(time.RFC3339), 0).Err()
}
