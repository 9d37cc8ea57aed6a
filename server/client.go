package main

import (
	"encoding/json"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
)

// clientRole is what a connection is doing in its room
type clientRole int

const (
	roleNone clientRole = iota
	roleDisplay
	rolePlayer
)

// Client represents a WebSocket connection: either a display screen
// watching a room or a phone driving one ship.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	roomCode   string
	playerID   string // set for rolePlayer only
	role       clientRole
	remoteAddr string

	// wantsBinary is read by room broadcast goroutines, so it is atomic
	wantsBinary atomic.Bool

	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		connID:     uuid.NewString(),
		remoteAddr: remoteAddr,
	}
}

// watcherKey is this connection's key in its room's watcher set. Players
// use their player id so a name-rejoin can evict the stale session's
// watcher along with its membership.
func (c *Client) watcherKey() string {
	if c.playerID != "" {
		return c.playerID
	}
	return c.connID
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks a binary frame queued by SendPacked
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message. A slow client
// drops messages rather than stalling the room.
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

// SendPacked sends pre-marshaled msgpack bytes as a binary WebSocket
// message, prefixed with a 0xFF marker so WritePump can tell it from text.
func (c *Client) SendPacked(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// WantsBinary reports whether this connection asked for msgpack state
func (c *Client) WantsBinary() bool {
	return c.wantsBinary.Load()
}

func (c *Client) sendError(code, msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Code: code, Msg: msg}})
}

func (c *Client) sendRoomErr(err error) {
	if re, ok := err.(*RoomError); ok {
		c.sendError(re.Code, re.Message)
		return
	}
	c.sendError(ErrCodeBadRequest, err.Error())
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgWatch:
		c.handleWatch(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgStart:
		c.handleStart()
	case MsgMode:
		c.handleMode(env.D)
	case MsgLeave:
		c.leaveRoom()
	case MsgInfo:
		c.handleInfo()
	case MsgState:
		c.handleState()
	case MsgBin:
		c.handleBin(env.D)
	}
}

// currentRoom resolves the client's room, or nil
func (c *Client) currentRoom() *Room {
	if c.roomCode == "" {
		return nil
	}
	return c.hub.registry.Get(c.roomCode)
}

// sanitizeName trims and bounds a display name
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Pilot"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

func parseMode(raw int) GameMode {
	mode := GameMode(raw)
	if mode < ModeDogfight || mode > ModeLastShip {
		mode = ModeDogfight
	}
	return mode
}

// handleCreate makes a room and attaches this connection as its display.
// Displays default to binary state frames; the bin message can opt out.
func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	json.Unmarshal(data, &msg)

	room, err := c.hub.registry.CreateRoom(parseMode(msg.Mode))
	if err != nil {
		c.sendRoomErr(err)
		return
	}

	c.leaveRoom()
	c.roomCode = room.Code()
	c.role = roleDisplay
	c.wantsBinary.Store(true)
	room.AttachWatcher(c.watcherKey(), c)

	c.SendJSON(Envelope{T: MsgCreated, Data: CreatedMsg{
		Code: room.Code(),
		QR:   "/qr/" + room.Code(),
	}})
	c.SendJSON(Envelope{T: MsgInfo, Data: room.GetRoomInfo()})
}

// handleWatch attaches a display to an existing room
func (c *Client) handleWatch(data json.RawMessage) {
	var msg WatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeBadRequest, "bad watch message")
		return
	}
	room := c.hub.registry.Get(msg.Code)
	if room == nil {
		c.sendError(ErrCodeRoomNotFound, "room not found")
		return
	}

	c.leaveRoom()
	c.roomCode = room.Code()
	c.role = roleDisplay
	c.wantsBinary.Store(true)
	room.AttachWatcher(c.watcherKey(), c)

	c.SendJSON(Envelope{T: MsgInfo, Data: room.GetRoomInfo()})
}

// handleJoin admits this connection as a player with a fresh ship
func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeBadRequest, "bad join message")
		return
	}
	room := c.hub.registry.Get(msg.Code)
	if room == nil {
		c.sendError(ErrCodeRoomNotFound, "room not found")
		return
	}

	c.leaveRoom()
	player, err := room.AddPlayer(uuid.NewString(), sanitizeName(msg.Name))
	if err != nil {
		c.sendRoomErr(err)
		return
	}

	c.roomCode = room.Code()
	c.playerID = player.ID
	c.role = rolePlayer
	room.AttachWatcher(c.watcherKey(), c)

	tun := room.Tuning()
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:    player.ID,
		Code:  room.Code(),
		Color: player.Color,
		W:     tun.WorldW,
		H:     tun.WorldH,
	}})
	c.SendJSON(Envelope{T: MsgInfo, Data: room.GetRoomInfo()})
}

// handleInput forwards one controller sample. Silent drops throughout:
// input races joins, leaves and deaths in normal play.
func (c *Client) handleInput(data json.RawMessage) {
	if c.role != rolePlayer {
		return
	}
	var in PlayerInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	room := c.currentRoom()
	if room == nil {
		return
	}
	room.ApplyInput(c.playerID, in)
}

func (c *Client) handleStart() {
	room := c.currentRoom()
	if room == nil {
		c.sendError(ErrCodeRoomNotFound, "not in a room")
		return
	}
	if room.LeaderID() != c.playerID {
		c.sendError(ErrCodeNotLeader, "only the leader can start the match")
		return
	}
	if err := room.StartGame(); err != nil {
		c.sendRoomErr(err)
	}
}

func (c *Client) handleMode(data json.RawMessage) {
	var msg ModeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeBadRequest, "bad mode message")
		return
	}
	room := c.currentRoom()
	if room == nil {
		c.sendError(ErrCodeRoomNotFound, "not in a room")
		return
	}
	if room.LeaderID() != c.playerID {
		c.sendError(ErrCodeNotLeader, "only the leader can change the mode")
		return
	}
	if err := room.SetGameMode(parseMode(msg.Mode)); err != nil {
		c.sendRoomErr(err)
	}
}

func (c *Client) handleInfo() {
	room := c.currentRoom()
	if room == nil {
		c.sendError(ErrCodeRoomNotFound, "not in a room")
		return
	}
	c.SendJSON(Envelope{T: MsgInfo, Data: room.GetRoomInfo()})
}

// handleState returns a one-off snapshot, always as JSON
func (c *Client) handleState() {
	room := c.currentRoom()
	if room == nil {
		c.sendError(ErrCodeRoomNotFound, "not in a room")
		return
	}
	c.SendJSON(Envelope{T: MsgState, Data: room.GetState()})
}

func (c *Client) handleBin(data json.RawMessage) {
	var msg BinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.wantsBinary.Store(msg.On)
}

// leaveRoom detaches from the current room, removing the player record
// outright: an explicit leave is not a connection drop.
func (c *Client) leaveRoom() {
	if c.roomCode == "" {
		return
	}
	if room := c.currentRoom(); room != nil {
		room.DetachWatcher(c.watcherKey())
		if c.role == rolePlayer {
			room.RemovePlayer(c.playerID)
		}
		c.hub.registry.Reap(c.roomCode)
	}
	c.roomCode = ""
	c.playerID = ""
	c.role = roleNone
	c.wantsBinary.Store(false)
}
