package main

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type userRef struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profilePic"`
}

type chatRoom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   userRef   `json:"createdBy"`
	Members     []userRef `json:"members"`
	IsPrivate   bool      `json:"isPrivate"`
	MaxMembers  int       `json:"maxMembers"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *chatRoom) hasMember(userID string) bool {
	for _, m := range r.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// roomStore owns the rooms and room_members tables.
type roomStore struct {
	db *sql.DB
}

func newRoomStore(db *sql.DB) *roomStore { return &roomStore{db: db} }

// roomCols is the select list shared by every room query. The creator's
// display info rides along through a LEFT JOIN so deleted/foreign users
// degrade to empty strings instead of dropping the room.
const roomCols = `r.id, r.name, r.description, r.is_private, r.max_members,
       r.created_at, r.updated_at,
       r.created_by, COALESCE(u.username,''), COALESCE(u.email,''), COALESCE(u.profile_pic,'')`

const roomFrom = ` FROM rooms r LEFT JOIN users u ON u.id = r.created_by`

func scanRoom(row interface{ Scan(...any) error }) (*chatRoom, error) {
	var r chatRoom
	if err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.IsPrivate, &r.MaxMembers,
		&r.CreatedAt, &r.UpdatedAt,
		&r.CreatedBy.ID, &r.CreatedBy.Username, &r.CreatedBy.Email, &r.CreatedBy.ProfilePic,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func validateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errValidation("Chat room name is required")
	}
	if len(name) < 3 {
		return "", errValidation("Chat room name must be at least 3 characters long")
	}
	if len(name) > 50 {
		return "", errValidation("Chat room name cannot exceed 50 characters")
	}
	return name, nil
}

func validateRoomDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if len(desc) > 200 {
		return "", errValidation("Description cannot exceed 200 characters")
	}
	return desc, nil
}

func validateMaxMembers(n int) (int, error) {
	if n == 0 {
		return 100, nil
	}
	if n < 2 || n > 1000 {
		return 0, errValidation("maxMembers must be between 2 and 1000")
	}
	return n, nil
}

// Create inserts a room and its creator membership in one transaction,
// so the creator is a member from the first visible moment.
func (s *roomStore) Create(ctx context.Context, creatorID, name, description string, isPrivate bool, maxMembers int) (*chatRoom, error) {
	name, err := validateRoomName(name)
	if err != nil {
		return nil, err
	}
	description, err = validateRoomDescription(description)
	if err != nil {
		return nil, err
	}
	maxMembers, err = validateMaxMembers(maxMembers)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id string
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO rooms (name, description, created_by, is_private, max_members)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		name, description, creatorID, isPrivate, maxMembers).Scan(&id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1,$2)`,
		id, creatorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns a populated room or a 404 error.
func (s *roomStore) Get(ctx context.Context, id string) (*chatRoom, error) {
	if uuid.Validate(id) != nil {
		return nil, errNotFound("Chat room not found")
	}
	room, err := scanRoom(s.db.QueryRowContext(ctx,
		`SELECT `+roomCols+roomFrom+` WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound("Chat room not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadMembers(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *roomStore) loadMembers(ctx context.Context, room *chatRoom) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rm.user_id, COALESCE(u.username,''), COALESCE(u.profile_pic,'')
		   FROM room_members rm LEFT JOIN users u ON u.id = rm.user_id
		  WHERE rm.room_id = $1
		  ORDER BY rm.joined_at ASC`, room.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	room.Members = []userRef{}
	for rows.Next() {
		var m userRef
		if err := rows.Scan(&m.ID, &m.Username, &m.ProfilePic); err != nil {
			return err
		}
		room.Members = append(room.Members, m)
	}
	return rows.Err()
}

// List returns rooms visible to the requester: public rooms plus any
// room the requester belongs to. search narrows by name substring,
// isPrivate (when non-nil) by the privacy flag.
func (s *roomStore) List(ctx context.Context, requesterID, search string, isPrivate *bool) ([]*chatRoom, error) {
	q := `SELECT ` + roomCols + roomFrom + `
	      WHERE (r.is_private = false
	             OR EXISTS (SELECT 1 FROM room_members rm WHERE rm.room_id = r.id AND rm.user_id = $1))`
	args := []any{requesterID}
	if search != "" {
		args = append(args, "%"+search+"%")
		q += ` AND r.name ILIKE $2`
	}
	if isPrivate != nil {
		args = append(args, *isPrivate)
		q += ` AND r.is_private = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY r.created_at DESC`
	return s.listRooms(ctx, q, args...)
}

// ListForUser returns the rooms the user belongs to, most recently
// active first.
func (s *roomStore) ListForUser(ctx context.Context, userID string) ([]*chatRoom, error) {
	q := `SELECT ` + roomCols + roomFrom + `
	      WHERE EXISTS (SELECT 1 FROM room_members rm WHERE rm.room_id = r.id AND rm.user_id = $1)
	      ORDER BY r.updated_at DESC`
	return s.listRooms(ctx, q, userID)
}

func (s *roomStore) listRooms(ctx context.Context, query string, args ...any) ([]*chatRoom, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*chatRoom{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, room := range out {
		if err := s.loadMembers(ctx, room); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// roomPatch carries the creator-editable fields. Nil means "leave as is".
type roomPatch struct {
	Name        *string
	Description *string
	IsPrivate   *bool
	MaxMembers  *int
}

// Update applies a patch; only the creator may edit.
func (s *roomStore) Update(ctx context.Context, id, requesterID string, patch roomPatch) (*chatRoom, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.CreatedBy.ID != requesterID {
		return nil, errForbidden("Only creator can update the chat room")
	}

	name, desc, isPrivate, maxMembers := room.Name, room.Description, room.IsPrivate, room.MaxMembers
	if patch.Name != nil {
		if name, err = validateRoomName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		if desc, err = validateRoomDescription(*patch.Description); err != nil {
			return nil, err
		}
	}
	if patch.IsPrivate != nil {
		isPrivate = *patch.IsPrivate
	}
	if patch.MaxMembers != nil {
		if maxMembers, err = validateMaxMembers(*patch.MaxMembers); err != nil {
			return nil, err
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET name=$1, description=$2, is_private=$3, max_members=$4, updated_at=now()
		  WHERE id=$5`,
		name, desc, isPrivate, maxMembers, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a room; only the creator may. Membership rows cascade,
// messages are deliberately left behind.
func (s *roomStore) Delete(ctx context.Context, id, requesterID string) error {
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if room.CreatedBy.ID != requesterID {
		return errForbidden("Only creator can delete the chat room")
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	return err
}

// AddMember joins a user to a room, enforcing capacity.
func (s *roomStore) AddMember(ctx context.Context, id, userID string) (*chatRoom, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.hasMember(userID) {
		return nil, errConflict("You are already a member of this chat room")
	}
	if len(room.Members) >= room.MaxMembers {
		return nil, errCapacity("Chat room is full")
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1,$2)`,
		id, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// lost a race with a concurrent join
			return nil, errConflict("You are already a member of this chat room")
		}
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET updated_at=now() WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// RemoveMember leaves a room. The creator stays a member no matter
// what: leaving reports success and changes nothing, which is exactly
// what the upstream app does.
func (s *roomStore) RemoveMember(ctx context.Context, id, userID string) error {
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !room.hasMember(userID) {
		return errValidation("You are not a member of this chat room")
	}
	if room.CreatedBy.ID == userID {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM room_members WHERE room_id=$1 AND user_id=$2`, id, userID); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE rooms SET updated_at=now() WHERE id=$1`, id)
	return err
}

// IsMember is the cheap membership probe used by the message paths and
// the realtime gateway.
func (s *roomStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	if uuid.Validate(roomID) != nil {
		return false, errNotFound("Chat room not found")
	}
	var member bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id=$1 AND user_id=$2)`,
		roomID, userID).Scan(&member)
	return member, err
}

// MemberInfo resolves a user's display fields; unknown users come back
// with empty strings rather than an error.
func (s *roomStore) MemberInfo(ctx context.Context, userID string) (userRef, error) {
	ref := userRef{ID: userID}
	if uuid.Validate(userID) != nil {
		return ref, nil
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(username,''), COALESCE(profile_pic,'') FROM users WHERE id=$1`,
		userID).Scan(&ref.Username, &ref.ProfilePic)
	if errors.Is(err, sql.ErrNoRows) {
		return ref, nil
	}
	return ref, err
}
