package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// gateway bridges websocket connections to the stores and fans results
// out to the other connections present in a room.
type gateway struct {
	hub     *wsHub
	tracker *presenceTracker
	online  *onlineStore
	rooms   *roomStore
	msgs    *messageStore
}

// ---------- WebSocket endpoint: /ws ----------
func registerWebsocket(app *fiber.App, gw *gateway, jwtSecret []byte) {
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		uid := authenticateSocket(c, jwtSecret)
		if uid == "" {
			_ = c.Close()
			return
		}

		client := &wsClient{
			id:   uuid.NewString(),
			user: uid,
			conn: c,
			send: make(chan []byte, 8),
		}

		// keep the user's online key alive while the socket is open
		_ = gw.online.heartbeatUser(context.Background(), uid)
		stop := make(chan struct{})
		go func() {
			t := time.NewTicker(gw.online.tick)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					_ = gw.online.heartbeatUser(context.Background(), uid)
				case <-stop:
					return
				}
			}
		}()

		defer func() {
			close(stop)
			gw.dropConnection(client)
			close(client.send)
		}()

		// writer
		go func() {
			for msg := range client.send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		// reader / dispatcher
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			gw.dispatch(client, raw)
		}
	}))
}

// authenticateSocket pulls the HS256 token from cookie, query param or
// header and returns the subject, or "" when the handshake should be
// rejected.
func authenticateSocket(c *websocket.Conn, jwtSecret []byte) string {
	tokenStr := c.Cookies("token")
	if tokenStr == "" {
		tokenStr = strings.TrimSpace(strings.TrimPrefix(c.Query("token"), "Bearer "))
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(strings.TrimPrefix(c.Headers("Authorization"), "Bearer "))
		}
	}
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return ""
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	uid, _ := claims["sub"].(string)
	return uid
}

// dispatch validates one inbound frame and routes it. Failures only
// ever surface to the offending connection, never to the room.
func (g *gateway) dispatch(client *wsClient, raw []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.sendError(client, "malformed event")
		return
	}
	ctx := context.Background()

	switch env.Event {
	case evtJoinRoom:
		var p joinRoomPayload
		if err := unmarshalPayload(env.Data, &p, client); err != nil {
			return
		}
		if p.UserID != client.user {
			g.sendError(client, "userId does not match the authenticated user")
			return
		}
		g.handleJoin(ctx, client, p.RoomID)

	case evtLeaveRoom:
		var p leaveRoomPayload
		if err := unmarshalPayload(env.Data, &p, client); err != nil {
			return
		}
		if p.UserID != client.user {
			g.sendError(client, "userId does not match the authenticated user")
			return
		}
		g.handleLeave(ctx, client, p.RoomID)

	case evtSendMessage:
		var p sendMessagePayload
		if err := unmarshalPayload(env.Data, &p, client); err != nil {
			return
		}
		if p.UserID != client.user {
			g.sendError(client, "userId does not match the authenticated user")
			return
		}
		g.handleSend(ctx, client, &p)

	default:
		g.sendError(client, "unknown event: "+env.Event)
	}
}

type validatable interface{ validate() error }

func unmarshalPayload(raw json.RawMessage, p validatable, client *wsClient) error {
	if err := json.Unmarshal(raw, p); err != nil {
		sendErrorTo(client, "malformed event payload")
		return err
	}
	if err := p.validate(); err != nil {
		sendErrorTo(client, err.Error())
		return err
	}
	return nil
}

func (g *gateway) handleJoin(ctx context.Context, client *wsClient, roomID string) {
	member, err := g.rooms.IsMember(ctx, roomID, client.user)
	if err != nil {
		g.sendStoreError(client, err)
		return
	}
	if !member {
		g.sendError(client, "You don't have access to this chat room")
		return
	}

	g.tracker.join(client.id, client.user, roomID)
	g.hub.add(roomID, client)
	_ = g.online.addToRoom(ctx, roomID, client.user)

	info, _ := g.rooms.MemberInfo(ctx, client.user)
	g.hub.broadcastExcept(roomID, client.id, marshalEvent(evtUserJoined, roomEvent{
		RoomID:   roomID,
		UserID:   client.user,
		Username: info.Username,
	}))
}

func (g *gateway) handleLeave(ctx context.Context, client *wsClient, roomID string) {
	g.tracker.leave(client.id, roomID)
	g.hub.remove(roomID, client)
	_ = g.online.removeFromRoom(ctx, roomID, client.user)

	info, _ := g.rooms.MemberInfo(ctx, client.user)
	g.hub.broadcast(roomID, marshalEvent(evtUserLeft, roomEvent{
		RoomID:   roomID,
		UserID:   client.user,
		Username: info.Username,
	}))
}

func (g *gateway) handleSend(ctx context.Context, client *wsClient, p *sendMessagePayload) {
	msg, err := g.msgs.Append(ctx, p.RoomID, client.user, p.Content, p.IsAnonymous)
	if err != nil {
		g.sendStoreError(client, err)
		return
	}

	username, profilePic := p.Username, p.ProfilePic
	if username == "" {
		username = msg.Sender.Username
	}
	if profilePic == "" {
		profilePic = msg.Sender.ProfilePic
	}
	if msg.IsAnonymous {
		username = msg.DisplayName()
		profilePic = ""
	}

	// everyone present in the room, sender included
	g.hub.broadcast(p.RoomID, marshalEvent(evtNewMessage, newMessageEvent{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		UserID:      msg.Sender.ID,
		Username:    username,
		ProfilePic:  profilePic,
		Content:     msg.Content,
		IsAnonymous: msg.IsAnonymous,
		CreatedAt:   msg.CreatedAt,
	}))
}

// dropConnection runs on disconnect: clear every subscription, emit a
// "left" per room the connection was in, record last-seen.
func (g *gateway) dropConnection(client *wsClient) {
	ctx := context.Background()
	rooms := g.tracker.onDisconnect(client.id)
	info, _ := g.rooms.MemberInfo(ctx, client.user)
	for _, roomID := range rooms {
		g.hub.remove(roomID, client)
		_ = g.online.removeFromRoom(ctx, roomID, client.user)
		g.hub.broadcast(roomID, marshalEvent(evtUserLeft, roomEvent{
			RoomID:   roomID,
			UserID:   client.user,
			Username: info.Username,
		}))
	}
	g.online.setLastSeen(ctx, client.user, time.Now().UTC())
}

func (g *gateway) sendError(client *wsClient, msg string) {
	sendErrorTo(client, msg)
}

// sendStoreError unwraps store failures into client-facing messages;
// anything unclassified becomes a generic failure.
func (g *gateway) sendStoreError(client *wsClient, err error) {
	var ae *apiErr
	if errors.As(err, &ae) {
		sendErrorTo(client, ae.message)
		return
	}
	sendErrorTo(client, "message could not be sent")
}

func sendErrorTo(client *wsClient, msg string) {
	select {
	case client.send <- marshalEvent(evtError, errorEvent{Message: msg}):
	default:
	}
}
