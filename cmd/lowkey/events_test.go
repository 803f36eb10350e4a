package main

import (
	"encoding/json"
	"testing"
)

func TestSendMessagePayload_Validate(t *testing.T) {
	tests := []struct {
		name      string
		payload   sendMessagePayload
		expectErr bool
	}{
		{
			name:    "complete payload",
			payload: sendMessagePayload{RoomID: "r1", UserID: "u1", Content: "hello", Username: "alice"},
		},
		{
			name:      "missing roomId",
			payload:   sendMessagePayload{UserID: "u1", Content: "hello"},
			expectErr: true,
		},
		{
			name:      "missing userId",
			payload:   sendMessagePayload{RoomID: "r1", Content: "hello"},
			expectErr: true,
		},
		{
			name:      "missing content",
			payload:   sendMessagePayload{RoomID: "r1", UserID: "u1"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.validate()
			if tt.expectErr && err == nil {
				t.Error("validate() expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("validate() unexpected error: %v", err)
			}
		})
	}
}

func TestJoinRoomPayload_Validate(t *testing.T) {
	tests := []struct {
		name      string
		payload   joinRoomPayload
		expectErr bool
	}{
		{name: "complete", payload: joinRoomPayload{RoomID: "r1", UserID: "u1"}},
		{name: "no room", payload: joinRoomPayload{UserID: "u1"}, expectErr: true},
		{name: "no user", payload: joinRoomPayload{RoomID: "r1"}, expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.validate()
			if tt.expectErr != (err != nil) {
				t.Errorf("validate() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestMarshalEvent_RoundTrip(t *testing.T) {
	b := marshalEvent(evtUserJoined, roomEvent{RoomID: "r1", UserID: "u1", Username: "alice"})

	var env wsEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Event != evtUserJoined {
		t.Errorf("event = %q, want %q", env.Event, evtUserJoined)
	}

	var data roomEvent
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.RoomID != "r1" || data.Username != "alice" {
		t.Errorf("data = %+v", data)
	}
}

func TestEnvelope_RejectsMalformedFrames(t *testing.T) {
	var env wsEnvelope
	if err := json.Unmarshal([]byte(`not json`), &env); err == nil {
		t.Error("expected error for malformed frame")
	}
}
