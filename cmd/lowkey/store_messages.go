package main

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type chatMessage struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"chatRoom"`
	Sender         userRef   `json:"sender"`
	Content        string    `json:"content"`
	IsAnonymous    bool      `json:"isAnonymous"`
	AnonymousAlias *string   `json:"anonymousAlias"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DisplayName is what other clients should render as the sender:
// the alias for anonymous messages, the username otherwise.
func (m *chatMessage) DisplayName() string {
	if m.IsAnonymous && m.AnonymousAlias != nil {
		return *m.AnonymousAlias
	}
	return m.Sender.Username
}

// messageStore owns the messages table. It leans on roomStore for
// existence and membership checks so both paths agree on who may post.
type messageStore struct {
	db    *sql.DB
	rooms *roomStore
}

func newMessageStore(db *sql.DB, rooms *roomStore) *messageStore {
	return &messageStore{db: db, rooms: rooms}
}

const messageCols = `m.id, m.room_id, m.content, m.is_anonymous, m.anonymous_alias, m.created_at,
       m.sender_id, COALESCE(u.username,''), COALESCE(u.profile_pic,'')`

const messageFrom = ` FROM messages m LEFT JOIN users u ON u.id = m.sender_id`

func scanMessage(row interface{ Scan(...any) error }) (*chatMessage, error) {
	var m chatMessage
	if err := row.Scan(
		&m.ID, &m.RoomID, &m.Content, &m.IsAnonymous, &m.AnonymousAlias, &m.CreatedAt,
		&m.Sender.ID, &m.Sender.Username, &m.Sender.ProfilePic,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Append persists a new message after checking the sender is a member.
// Anonymous messages get a generated alias stored alongside them.
func (s *messageStore) Append(ctx context.Context, roomID, senderID, content string, isAnonymous bool) (*chatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errValidation("Message content is required")
	}
	if len(content) > 1000 {
		return nil, errValidation("Message cannot exceed 1000 characters")
	}

	if err := s.requireMember(ctx, roomID, senderID); err != nil {
		return nil, err
	}

	var alias *string
	if isAnonymous {
		a := newLowkeyAlias()
		alias = &a
	}

	var id string
	if err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (room_id, sender_id, content, is_anonymous, anonymous_alias)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		roomID, senderID, content, isAnonymous, alias).Scan(&id); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *messageStore) get(ctx context.Context, id string) (*chatMessage, error) {
	msg, err := scanMessage(s.db.QueryRowContext(ctx,
		`SELECT `+messageCols+messageFrom+` WHERE m.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound("Message not found")
	}
	return msg, err
}

// List returns one page of history. The query runs newest-first for
// cheap pagination, then the page is reversed so callers read it
// oldest-first. The UI depends on exactly this shape.
func (s *messageStore) List(ctx context.Context, roomID, requesterID string, limit, skip int) ([]*chatMessage, int, error) {
	if err := s.requireMember(ctx, roomID, requesterID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageCols+messageFrom+`
		  WHERE m.room_id = $1
		  ORDER BY m.created_at DESC, m.id DESC
		  LIMIT $2 OFFSET $3`, roomID, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	page := []*chatMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// oldest-first within the page
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE room_id=$1`, roomID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return page, total, nil
}

// Delete removes a message. Allowed for the sender and for the room's
// creator (moderation override).
func (s *messageStore) Delete(ctx context.Context, roomID, messageID, requesterID string) error {
	if uuid.Validate(messageID) != nil {
		return errNotFound("Message not found")
	}
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return err
	}
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if msg.Sender.ID != requesterID && room.CreatedBy.ID != requesterID {
		return errForbidden("You don't have permission to delete this message")
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	return err
}

func (s *messageStore) requireMember(ctx context.Context, roomID, userID string) error {
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return err
	}
	member, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return errForbidden("You don't have access to this chat room")
	}
	return nil
}
