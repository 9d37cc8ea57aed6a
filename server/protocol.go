package main

import "encoding/json"

// Client -> Server message types
const (
	MsgCreate = "create" // create a room
	MsgWatch  = "watch"  // attach a display screen to a room
	MsgJoin   = "join"   // join as a player (phone controller)
	MsgInput  = "input"  // controller sample, sent continuously
	MsgStart  = "start"  // leader starts the match
	MsgMode   = "mode"   // leader picks the game mode
	MsgLeave  = "leave"  // leave the room
	MsgBin    = "bin"    // toggle msgpack state frames for this connection
)

// Server -> Client message types. MsgInfo and MsgState also double as
// client-side requests for a one-off roster or snapshot.
const (
	MsgCreated  = "created"
	MsgWelcome  = "welcome"
	MsgInfo     = "info"
	MsgState    = "state"
	MsgKill     = "kill"
	MsgGameOver = "gameover"
	MsgBye      = "bye"
	MsgError    = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// PlayerInput is one tilt-and-buttons sample from a controller. Rotation
// is stick deflection in [-1, 1]; Seq guards against reordered frames and
// may be 0 when the sender does not number its samples.
type PlayerInput struct {
	Rotation float64 `json:"r"`
	Thrust   bool    `json:"th"`
	Fire     bool    `json:"f"`
	Seq      int     `json:"sq,omitempty"`
	TS       int64   `json:"ts,omitempty"`
}

// CreateMsg asks for a new room
type CreateMsg struct {
	Mode int `json:"mode"`
}

// WatchMsg attaches a display to an existing room
type WatchMsg struct {
	Code string `json:"code"`
}

// JoinMsg is sent when a phone joins a room as a player
type JoinMsg struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ModeMsg switches the room's game mode (leader only, lobby only)
type ModeMsg struct {
	Mode int `json:"mode"`
}

// BinMsg opts a connection in or out of binary state frames
type BinMsg struct {
	On bool `json:"on"`
}

// CreatedMsg returns the fresh room's code and its QR join link
type CreatedMsg struct {
	Code string `json:"code"`
	QR   string `json:"qr"`
}

// WelcomeMsg is sent to a player after joining
type WelcomeMsg struct {
	ID    string  `json:"id"`
	Code  string  `json:"code"`
	Color string  `json:"color"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

// MemberInfo is one roster row
type MemberInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Connected bool   `json:"on"`
}

// RoomInfoMsg is the lobby/roster summary, pushed on every membership or
// phase change and on request.
type RoomInfoMsg struct {
	Code     string       `json:"code"`
	Phase    int          `json:"phase"`
	Mode     int          `json:"mode"`
	Leader   string       `json:"leader"`
	Capacity int          `json:"cap"`
	Members  []MemberInfo `json:"members"`
}

// ByeMsg tells a connection its session ended server-side
type ByeMsg struct {
	Reason string `json:"reason"`
}

// StateMsg is the authoritative snapshot, self-contained by design: a
// display that missed every previous frame renders this one completely.
// Short tags keep both the JSON and msgpack encodings small at 20Hz.
type StateMsg struct {
	Tick       uint64           `json:"tick" msgpack:"tick"`
	TS         int64            `json:"ts" msgpack:"ts"`
	Phase      int              `json:"ph" msgpack:"ph"`
	Mode       int              `json:"md" msgpack:"md"`
	TimeLeft   float64          `json:"tl" msgpack:"tl"`
	W          float64          `json:"w" msgpack:"w"`
	H          float64          `json:"h" msgpack:"h"`
	Ships      []ShipState      `json:"s" msgpack:"s"`
	Bullets    []BulletState    `json:"b" msgpack:"b"`
	Asteroids  []AsteroidState  `json:"a" msgpack:"a"`
	Explosions []ExplosionState `json:"e" msgpack:"e"`
	Stats      []StatsState     `json:"st" msgpack:"st"`
}

// ShipState is broadcast per ship
type ShipState struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"n" msgpack:"n"`
	Color    string  `json:"c" msgpack:"c"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	VX       float64 `json:"vx" msgpack:"vx"`
	VY       float64 `json:"vy" msgpack:"vy"`
	R        float64 `json:"r" msgpack:"r"` // rotation radians
	Thrust   bool    `json:"t" msgpack:"t"`
	Score    int     `json:"sc" msgpack:"sc"`
	Alive    bool    `json:"a" msgpack:"a"`
	RespawnT float64 `json:"rt" msgpack:"rt"`
	InvulnT  float64 `json:"iv" msgpack:"iv"`
	Bot      bool    `json:"bot" msgpack:"bot"`
}

// BulletState is broadcast per bullet
type BulletState struct {
	ID    int64   `json:"id" msgpack:"id"`
	Owner string  `json:"o" msgpack:"o"`
	Color string  `json:"c" msgpack:"c"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	VX    float64 `json:"vx" msgpack:"vx"`
	VY    float64 `json:"vy" msgpack:"vy"`
}

// AsteroidState is broadcast per asteroid
type AsteroidState struct {
	ID   int64   `json:"id" msgpack:"id"`
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	R    float64 `json:"r" msgpack:"r"` // rotation radians
	Size int     `json:"sz" msgpack:"sz"`
}

// ExplosionState is broadcast per explosion
type ExplosionState struct {
	ID      int64   `json:"id" msgpack:"id"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	Color   string  `json:"c" msgpack:"c"`
	Size    int     `json:"sz" msgpack:"sz"`
	Life    float64 `json:"l" msgpack:"l"`
	MaxLife float64 `json:"ml" msgpack:"ml"`
}

// StatsState is the per-ship scoreboard row
type StatsState struct {
	ID        string  `json:"id" msgpack:"id"`
	Name      string  `json:"n" msgpack:"n"`
	Kills     int     `json:"k" msgpack:"k"`
	Deaths    int     `json:"d" msgpack:"d"`
	Fired     int     `json:"fd" msgpack:"fd"`
	Hit       int     `json:"ht" msgpack:"ht"`
	Asteroids int     `json:"as" msgpack:"as"`
	Accuracy  float64 `json:"ac" msgpack:"ac"`
	Nemesis   string  `json:"nm,omitempty" msgpack:"nm"`
	Victim    string  `json:"vc,omitempty" msgpack:"vc"`
}

// KillMsg is the kill feed event. Killer fields are empty when the
// environment did it.
type KillMsg struct {
	KillerID   string `json:"kid,omitempty"`
	KillerName string `json:"kn,omitempty"`
	VictimID   string `json:"vid"`
	VictimName string `json:"vn"`
}

// GameOverMsg closes a match with the final standings
type GameOverMsg struct {
	WinnerID   string       `json:"wid"`
	WinnerName string       `json:"wn"`
	Duration   float64      `json:"dur"` // seconds
	Standings  []StatsState `json:"standings"`
}

// ErrorMsg sends a failure to the client
type ErrorMsg struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
