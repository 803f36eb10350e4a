package main

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

func TestMessageStore_AppendRequiresMembership(t *testing.T) {
	db := openTestDB(t)
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	ctx := context.Background()

	a := createTestUser(t, db, "a")
	outsider := createTestUser(t, db, "outsider")

	room, err := rooms.Create(ctx, a, "Members Only", "", false, 10)
	if err != nil {
		t.Fatal(err)
	}

	msg, err := msgs.Append(ctx, room.ID, a, "hello", false)
	if err != nil {
		t.Fatalf("Append by member: %v", err)
	}
	if msg.Content != "hello" || msg.Sender.ID != a {
		t.Errorf("message = %+v", msg)
	}

	_, err = msgs.Append(ctx, room.ID, outsider, "let me in", false)
	assertKind(t, err, kindForbidden)

	// membership gates reads the same way, even on public rooms
	_, _, err = msgs.List(ctx, room.ID, outsider, 50, 0)
	assertKind(t, err, kindForbidden)
}

func TestMessageStore_AppendValidation(t *testing.T) {
	db := openTestDB(t)
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	ctx := context.Background()

	a := createTestUser(t, db, "a")
	room, err := rooms.Create(ctx, a, "Limits", "", false, 10)
	if err != nil {
		t.Fatal(err)
	}

	_, err = msgs.Append(ctx, room.ID, a, "   ", false)
	assertKind(t, err, kindValidation)

	_, err = msgs.Append(ctx, room.ID, a, strings.Repeat("x", 1001), false)
	assertKind(t, err, kindValidation)

	if _, err := msgs.Append(ctx, room.ID, a, strings.Repeat("x", 1000), false); err != nil {
		t.Errorf("1000 chars should be accepted: %v", err)
	}
}

func TestMessageStore_PageReadsOldestFirst(t *testing.T) {
	db := openTestDB(t)
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	ctx := context.Background()

	a := createTestUser(t, db, "a")
	room, err := rooms.Create(ctx, a, "Ordered", "", false, 10)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if _, err := msgs.Append(ctx, room.ID, a, "msg-"+strconv.Itoa(i), false); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := msgs.List(ctx, room.ID, a, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 3 {
		t.Fatalf("count = %d, want 3", len(page))
	}
	// newest 3 messages, presented oldest-first: msg-2, msg-3, msg-4
	want := []string{"msg-2", "msg-3", "msg-4"}
	for i, m := range page {
		if m.Content != want[i] {
			t.Errorf("page[%d] = %q, want %q", i, m.Content, want[i])
		}
	}

	// skip walks further back in time
	older, _, err := msgs.List(ctx, room.ID, a, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	wantOlder := []string{"msg-0", "msg-1"}
	if len(older) != 2 {
		t.Fatalf("older count = %d, want 2", len(older))
	}
	for i, m := range older {
		if m.Content != wantOlder[i] {
			t.Errorf("older[%d] = %q, want %q", i, m.Content, wantOlder[i])
		}
	}
}

func TestMessageStore_DeletePermissions(t *testing.T) {
	db := openTestDB(t)
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	ctx := context.Background()

	a := createTestUser(t, db, "a") // room creator
	b := createTestUser(t, db, "b")

	room, err := rooms.Create(ctx, a, "Mod Powers", "", false, 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rooms.AddMember(ctx, room.ID, b); err != nil {
		t.Fatal(err)
	}

	fromB, err := msgs.Append(ctx, room.ID, b, "b says hi", false)
	if err != nil {
		t.Fatal(err)
	}
	fromA, err := msgs.Append(ctx, room.ID, a, "a says hi", false)
	if err != nil {
		t.Fatal(err)
	}

	// creator can delete someone else's message
	if err := msgs.Delete(ctx, room.ID, fromB.ID, a); err != nil {
		t.Fatalf("creator delete of b's message: %v", err)
	}

	// a regular member cannot delete the creator's message
	err = msgs.Delete(ctx, room.ID, fromA.ID, b)
	assertKind(t, err, kindForbidden)

	// but can delete their own
	own, err := msgs.Append(ctx, room.ID, b, "b again", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := msgs.Delete(ctx, room.ID, own.ID, b); err != nil {
		t.Fatalf("sender delete of own message: %v", err)
	}
}

func TestMessageStore_AnonymousAlias(t *testing.T) {
	db := openTestDB(t)
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	ctx := context.Background()

	a := createTestUser(t, db, "a")
	room, err := rooms.Create(ctx, a, "Whispers", "", false, 10)
	if err != nil {
		t.Fatal(err)
	}

	msg, err := msgs.Append(ctx, room.ID, a, "who said that", true)
	if err != nil {
		t.Fatal(err)
	}
	if !msg.IsAnonymous || msg.AnonymousAlias == nil || *msg.AnonymousAlias == "" {
		t.Fatalf("anonymous message missing alias: %+v", msg)
	}
	if msg.DisplayName() != *msg.AnonymousAlias {
		t.Errorf("DisplayName() = %q, want alias %q", msg.DisplayName(), *msg.AnonymousAlias)
	}

	plain, err := msgs.Append(ctx, room.ID, a, "signed", false)
	if err != nil {
		t.Fatal(err)
	}
	if plain.AnonymousAlias != nil {
		t.Errorf("plain message should have no alias, got %q", *plain.AnonymousAlias)
	}
	if plain.DisplayName() != plain.Sender.Username {
		t.Errorf("DisplayName() = %q, want username %q", plain.DisplayName(), plain.Sender.Username)
	}
}

func TestMessageStore_RoomDeleteOrphansHistory(t *testing.T) {
	db := openTestDB(t)
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	ctx := context.Background()

	a := createTestUser(t, db, "a")
	room, err := rooms.Create(ctx, a, "Doomed", "", false, 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := msgs.Append(ctx, room.ID, a, "last words", false); err != nil {
		t.Fatal(err)
	}
	if err := rooms.Delete(ctx, room.ID, a); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE room_id=$1`, room.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("orphaned messages = %d, want 1", n)
	}
}
