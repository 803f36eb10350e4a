package main

import (
	"encoding/json"
	"time"
)

// Wire events, matching the names the LOWKEY frontend socket layer
// registers for.
const (
	evtJoinRoom    = "join-room"
	evtLeaveRoom   = "leave-room"
	evtSendMessage = "send-message"

	evtNewMessage = "new-message"
	evtUserJoined = "user-joined"
	evtUserLeft   = "user-left"
	evtError      = "error"
)

// wsEnvelope is the frame every inbound and outbound event travels in.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (p *joinRoomPayload) validate() error {
	if p.RoomID == "" {
		return errValidation("roomId is required")
	}
	if p.UserID == "" {
		return errValidation("userId is required")
	}
	return nil
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (p *leaveRoomPayload) validate() error {
	if p.RoomID == "" {
		return errValidation("roomId is required")
	}
	if p.UserID == "" {
		return errValidation("userId is required")
	}
	return nil
}

type sendMessagePayload struct {
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	Content     string `json:"content"`
	Username    string `json:"username"`
	ProfilePic  string `json:"profilePic"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (p *sendMessagePayload) validate() error {
	if p.RoomID == "" {
		return errValidation("roomId is required")
	}
	if p.UserID == "" {
		return errValidation("userId is required")
	}
	if p.Content == "" {
		return errValidation("Message content is required")
	}
	return nil
}

type newMessageEvent struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	ProfilePic  string    `json:"profilePic"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
}

type roomEvent struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type errorEvent struct {
	Message string `json:"message"`
}

// marshalEvent frames an outbound event. Marshaling our own structs
// cannot fail, so the error is ignored.
func marshalEvent(event string, data any) []byte {
	raw, _ := json.Marshal(data)
	b, _ := json.Marshal(wsEnvelope{Event: event, Data: raw})
	return b
}
