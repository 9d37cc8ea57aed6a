package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Error codes carried to clients alongside the human-readable message
const (
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeRoomFull     = "room_full"
	ErrCodeNotEnough    = "not_enough_players"
	ErrCodeBadPhase     = "bad_phase"
	ErrCodeTooManyRooms = "too_many_rooms"
	ErrCodeNotLeader    = "not_leader"
	ErrCodeBadRequest   = "bad_request"
)

// RoomError is a lifecycle-command failure with a machine-readable code
type RoomError struct {
	Code    string
	Message string
}

func (e *RoomError) Error() string { return e.Message }

func roomErr(code, format string, args ...interface{}) *RoomError {
	return &RoomError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Broadcaster is the transport seam for one connection watching a room
type Broadcaster interface {
	SendJSON(msg interface{})
	SendRaw(data []byte)
	SendPacked(data []byte)
	WantsBinary() bool
}

// Player is a room membership record. The simulation state lives in the
// matching Ship, keyed by the same id.
type Player struct {
	ID        string
	Name      string
	Color     string
	Connected bool
	JoinedAt  time.Time
}

// Room owns all entities for one match. Entities are never shared with
// other goroutines: clients only ever receive serialized copies, so the
// single mutex is the whole concurrency story.
type Room struct {
	mu   sync.RWMutex
	code string

	phase    Phase
	cfg      ModeConfig
	tun      Tuning
	tick     uint64
	timeLeft float64

	players   map[string]*Player
	joinOrder []string
	leaderID  string

	ships      map[string]*Ship
	bullets    map[int64]*Bullet
	asteroids  map[int64]*Asteroid
	explosions map[int64]*Explosion
	bots       map[string]*Bot
	stats      map[string]*PlayerStats

	watchers map[string]Broadcaster

	asteroidT float64 // countdown to the next edge spawn
	colorIdx  int
	botSeq    int
	entitySeq int64

	startedAt time.Time
	endedAt   time.Time

	// onGameOver receives the completed match for the history ledger.
	// It must not block; the history writer queues internally.
	onGameOver func(MatchRecord)
}

// NewRoom creates a room in the lobby phase with the given mode's rules
func NewRoom(code string, mode GameMode) *Room {
	return &Room{
		code:       code,
		phase:      PhaseLobby,
		cfg:        DefaultModeConfig(mode),
		tun:        DefaultTuning(),
		players:    make(map[string]*Player),
		ships:      make(map[string]*Ship),
		bullets:    make(map[int64]*Bullet),
		asteroids:  make(map[int64]*Asteroid),
		explosions: make(map[int64]*Explosion),
		bots:       make(map[string]*Bot),
		stats:      make(map[string]*PlayerStats),
		watchers:   make(map[string]Broadcaster),
	}
}

// Code returns the room's join code
func (r *Room) Code() string { return r.code }

// Tuning returns a copy of the room's physics tuning
func (r *Room) Tuning() Tuning {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tun
}

// LeaderID returns the current leader, or ""
func (r *Room) LeaderID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leaderID
}

// PlayerCount returns the number of member records
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Deserted reports whether nothing is attached to the room anymore:
// no connected players and no watching connections.
func (r *Room) Deserted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.watchers) > 0 {
		return false
	}
	for _, p := range r.players {
		if p.Connected {
			return false
		}
	}
	return true
}

// ---------- membership ----------

// AddPlayer admits a player and creates their live ship. Joining with a
// name already present (case-insensitive) evicts the stale session first:
// that is the reconnection path for a phone that dropped its link.
func (r *Room) AddPlayer(id, name string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for pid, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			r.evictLocked(pid)
			break
		}
	}

	if len(r.players) >= r.cfg.MaxPlayers {
		return nil, roomErr(ErrCodeRoomFull, "room %s is full", r.code)
	}

	color := ShipColors[r.colorIdx%len(ShipColors)]
	r.colorIdx++

	p := &Player{ID: id, Name: name, Color: color, Connected: true, JoinedAt: time.Now()}
	r.players[id] = p
	r.joinOrder = append(r.joinOrder, id)
	r.ships[id] = NewShip(id, name, color, r.tun)
	r.stats[id] = NewPlayerStats()

	if r.leaderID == "" {
		r.leaderID = id
	}
	r.emitInfoLocked()
	return p, nil
}

// RemovePlayer deletes the player and ship records and re-elects the
// leader if needed. Unknown ids are a no-op.
func (r *Room) RemovePlayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return
	}
	r.removePlayerLocked(id)
	r.emitInfoLocked()
}

// MarkDisconnected handles a dropped connection. In the lobby the member
// is removed outright; mid-match the records stay (the ship idles) so the
// player can rejoin by name, and the roster shows them as disconnected.
func (r *Room) MarkDisconnected(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return
	}
	if r.phase == PhaseLobby {
		r.removePlayerLocked(id)
	} else {
		p.Connected = false
		if r.leaderID == id {
			r.electLeaderLocked()
		}
	}
	r.emitInfoLocked()
}

// evictLocked kicks a stale session before its name is reused
func (r *Room) evictLocked(id string) {
	if w, ok := r.watchers[id]; ok {
		w.SendJSON(Envelope{T: MsgBye, Data: ByeMsg{Reason: "name rejoined from another device"}})
		delete(r.watchers, id)
	}
	r.removePlayerLocked(id)
}

func (r *Room) removePlayerLocked(id string) {
	delete(r.players, id)
	delete(r.ships, id)
	delete(r.stats, id)
	for i, pid := range r.joinOrder {
		if pid == id {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	if r.leaderID == id {
		r.electLeaderLocked()
	}
}

// electLeaderLocked promotes the earliest remaining member, preferring
// one that is still connected
func (r *Room) electLeaderLocked() {
	r.leaderID = ""
	for _, id := range r.joinOrder {
		if p, ok := r.players[id]; ok && p.Connected {
			r.leaderID = id
			return
		}
	}
	for _, id := range r.joinOrder {
		if _, ok := r.players[id]; ok {
			r.leaderID = id
			return
		}
	}
}

// ---------- watchers ----------

// AttachWatcher subscribes a connection to this room's broadcasts
func (r *Room) AttachWatcher(id string, w Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[id] = w
	if p, ok := r.players[id]; ok {
		p.Connected = true
	}
}

// DetachWatcher unsubscribes a connection
func (r *Room) DetachWatcher(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watchers, id)
}

// ---------- lifecycle commands ----------

// SetGameMode switches the rule set; only effective in the lobby
func (r *Room) SetGameMode(mode GameMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseLobby {
		return roomErr(ErrCodeBadPhase, "mode can only change in the lobby")
	}
	r.cfg = DefaultModeConfig(mode)
	r.emitInfoLocked()
	return nil
}

// StartGame moves lobby -> playing: resets the clock, seeds the asteroid
// field and fills empty roster slots with bots for modes that want a full
// field.
func (r *Room) StartGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return roomErr(ErrCodeBadPhase, "match already started")
	}
	if len(r.players) == 0 {
		return roomErr(ErrCodeNotEnough, "need at least one player to start")
	}

	r.phase = PhasePlaying
	r.tick = 0
	r.timeLeft = r.cfg.TimeLimit
	r.asteroidT = r.cfg.SpawnInterval
	r.startedAt = time.Now()

	if r.cfg.UseAsteroids {
		for i := 0; i < r.cfg.InitialAsteroids && len(r.asteroids) < r.cfg.AsteroidCap; i++ {
			r.spawnEdgeAsteroidLocked(AsteroidLarge)
		}
	}
	if r.cfg.FillBots {
		r.fillBotsLocked()
	}

	log.Printf("room %s: match started mode=%s players=%d bots=%d",
		r.code, r.cfg.Mode, len(r.players), len(r.bots))
	r.emitInfoLocked()
	return nil
}

// fillBotsLocked tops the roster up to the mode's size with bot ships
func (r *Room) fillBotsLocked() {
	for len(r.ships) < r.cfg.RosterSize {
		r.botSeq++
		id := fmt.Sprintf("%s-b%d", r.code, r.botSeq)
		color := ShipColors[r.colorIdx%len(ShipColors)]
		r.colorIdx++

		ship := NewShip(id, botName(r.botSeq), color, r.tun)
		ship.IsBot = true
		r.ships[id] = ship
		r.bots[id] = NewBot(id, ship.Rotation)
		r.stats[id] = NewPlayerStats()
	}
}

func (r *Room) spawnEdgeAsteroidLocked(size AsteroidSize) {
	r.entitySeq++
	a := NewEdgeAsteroid(r.entitySeq, size, r.tun)
	r.asteroids[a.ID] = a
}

// ---------- input ----------

// ApplyInput applies one intent message to a ship. Inputs for missing or
// dead ships are dropped silently: they race disconnects and respawns in
// normal operation.
func (r *Room) ApplyInput(playerID string, in PlayerInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyInputLocked(playerID, in)
}

func (r *Room) applyInputLocked(id string, in PlayerInput) {
	if r.phase != PhasePlaying {
		return
	}
	s, ok := r.ships[id]
	if !ok || !s.Alive {
		return
	}
	if in.Seq != 0 {
		if in.Seq < s.LastSeq {
			return // reordered packet, newer input already applied
		}
		s.LastSeq = in.Seq
	}

	// Tilt is a rotation rate, accumulated per fixed step
	s.Rotation += Clamp(in.Rotation, -1, 1) * ShipTurnSpeed * FixedDt
	s.Thrusting = in.Thrust

	if in.Fire && s.CanFire(r.tun) {
		r.fireLocked(s)
	}
}

// fireLocked spawns a bullet and starts the cooldown. At the bullet cap
// the shot is skipped silently and the cooldown is not consumed.
func (r *Room) fireLocked(s *Ship) {
	if len(r.bullets) >= MaxBullets {
		return
	}
	r.entitySeq++
	b := NewBullet(r.entitySeq, s)
	r.bullets[b.ID] = b
	s.FireCD = FireRate
	if st := r.stats[s.ID]; st != nil {
		st.Fired++
	}
}

// ---------- tick ----------

// Update advances the simulation one tick. No-op unless playing.
func (r *Room) Update(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlaying {
		return
	}

	r.tick++

	// 1. Win-condition clock. Timed modes count down; last-one-standing
	// checks the alive count before physics. Never both.
	if r.cfg.TimeLimit > 0 {
		r.timeLeft -= dt
		if r.timeLeft <= 0 {
			r.timeLeft = 0
			r.endMatchLocked()
			return
		}
	} else if r.aliveShipsLocked() < 2 {
		r.endMatchLocked()
		return
	}

	// 2. Ships
	for _, s := range r.ships {
		s.Update(dt, r.tun, r.cfg.Respawn)
	}

	// 3. Bullets
	for id, b := range r.bullets {
		b.Update(dt, r.tun)
		if !b.Alive {
			delete(r.bullets, id)
		}
	}

	// 4. Asteroids
	if r.cfg.UseAsteroids {
		for _, a := range r.asteroids {
			a.Update(dt, r.tun)
		}
		r.asteroidT -= dt
		if r.asteroidT <= 0 {
			r.asteroidT += r.cfg.SpawnInterval
			if len(r.asteroids) < r.cfg.AsteroidCap {
				r.spawnEdgeAsteroidLocked(AsteroidLarge)
			}
		}
	}

	// 5. Explosions
	for id, e := range r.explosions {
		e.Update(dt)
		if !e.Alive {
			delete(r.explosions, id)
		}
	}

	// 6. Bots decide before collisions so their fire joins the same pass
	// as human input this tick
	for id, bot := range r.bots {
		s, ok := r.ships[id]
		if !ok {
			delete(r.bots, id)
			continue
		}
		if !s.Alive {
			continue
		}
		r.applyInputLocked(id, bot.Decide(dt, s, r.ships, r.tun))
	}

	// 7. Collisions
	r.resolveCollisionsLocked()
}

func (r *Room) aliveShipsLocked() int {
	n := 0
	for _, s := range r.ships {
		if s.Alive {
			n++
		}
	}
	return n
}

// endMatchLocked enters the terminal gameover phase. The summary goes out
// before cleanup so it still includes the bots, then transient entities
// and all bot state are dropped to bound memory across matches; human
// ships stay for the summary screen.
func (r *Room) endMatchLocked() {
	r.phase = PhaseGameover
	r.endedAt = time.Now()

	duration := 0.0
	if !r.startedAt.IsZero() {
		duration = r.endedAt.Sub(r.startedAt).Seconds()
	}

	winnerID, winnerName := r.winnerLocked()
	rec := MatchRecord{
		Code:       r.code,
		Mode:       r.cfg.Mode,
		Duration:   duration,
		WinnerName: winnerName,
		EndedAt:    r.endedAt,
	}
	for id, st := range r.stats {
		s, ok := r.ships[id]
		if !ok {
			continue
		}
		rec.Players = append(rec.Players, MatchPlayerRecord{
			Name:      s.Name,
			IsBot:     s.IsBot,
			Score:     s.Score,
			Kills:     st.Kills,
			Deaths:    st.Deaths,
			Fired:     st.Fired,
			Hit:       st.Hit,
			Asteroids: st.Asteroids,
		})
	}

	r.emitLocked(Envelope{T: MsgGameOver, Data: GameOverMsg{
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Duration:   round1(duration),
		Standings:  r.statsStatesLocked(),
	}})

	r.bullets = make(map[int64]*Bullet)
	r.asteroids = make(map[int64]*Asteroid)
	r.explosions = make(map[int64]*Explosion)
	for id := range r.bots {
		delete(r.ships, id)
		delete(r.stats, id)
		delete(r.bots, id)
	}

	if r.onGameOver != nil {
		r.onGameOver(rec)
	}
	log.Printf("room %s: match over winner=%q duration=%.0fs", r.code, winnerName, duration)
	r.emitInfoLocked()
}

// winnerLocked picks the match winner: in last-one-standing a sole
// survivor wins outright, otherwise the top score takes it. Ties resolve
// by name for determinism.
func (r *Room) winnerLocked() (string, string) {
	if r.cfg.TimeLimit == 0 {
		var survivor *Ship
		alive := 0
		for _, s := range r.ships {
			if s.Alive {
				survivor = s
				alive++
			}
		}
		if alive == 1 {
			return survivor.ID, survivor.Name
		}
	}
	var best *Ship
	for _, s := range r.ships {
		if best == nil || s.Score > best.Score ||
			(s.Score == best.Score && s.Name < best.Name) {
			best = s
		}
	}
	if best == nil {
		return "", ""
	}
	return best.ID, best.Name
}

// ---------- snapshots ----------

// GetState returns a full self-contained snapshot of the room
func (r *Room) GetState() StateMsg {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() StateMsg {
	st := StateMsg{
		Tick:       r.tick,
		TS:         time.Now().UnixMilli(),
		Phase:      int(r.phase),
		Mode:       int(r.cfg.Mode),
		TimeLeft:   round1(r.timeLeft),
		W:          r.tun.WorldW,
		H:          r.tun.WorldH,
		Ships:      make([]ShipState, 0, len(r.ships)),
		Bullets:    make([]BulletState, 0, len(r.bullets)),
		Asteroids:  make([]AsteroidState, 0, len(r.asteroids)),
		Explosions: make([]ExplosionState, 0, len(r.explosions)),
	}
	for _, s := range r.ships {
		st.Ships = append(st.Ships, s.ToState())
	}
	for _, b := range r.bullets {
		st.Bullets = append(st.Bullets, b.ToState())
	}
	for _, a := range r.asteroids {
		st.Asteroids = append(st.Asteroids, a.ToState())
	}
	for _, e := range r.explosions {
		st.Explosions = append(st.Explosions, e.ToState())
	}
	st.Stats = r.statsStatesLocked()
	return st
}

func (r *Room) statsStatesLocked() []StatsState {
	out := make([]StatsState, 0, len(r.stats))
	for id, st := range r.stats {
		s, ok := r.ships[id]
		if !ok {
			continue
		}
		out = append(out, st.ToState(id, s.Name))
	}
	return out
}

// GetRoomInfo returns the lobby/roster summary
func (r *Room) GetRoomInfo() RoomInfoMsg {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roomInfoLocked()
}

func (r *Room) roomInfoLocked() RoomInfoMsg {
	info := RoomInfoMsg{
		Code:     r.code,
		Phase:    int(r.phase),
		Mode:     int(r.cfg.Mode),
		Leader:   r.leaderID,
		Capacity: r.cfg.MaxPlayers,
		Members:  make([]MemberInfo, 0, len(r.players)),
	}
	for _, id := range r.joinOrder {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		info.Members = append(info.Members, MemberInfo{
			ID:        p.ID,
			Name:      p.Name,
			Color:     p.Color,
			Connected: p.Connected,
		})
	}
	return info
}

// BroadcastState pushes the current snapshot to every watcher. JSON is
// marshaled once and shared; msgpack is only built when some watcher
// opted into binary frames.
func (r *Room) BroadcastState() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.watchers) == 0 {
		return
	}
	state := r.stateLocked()
	data, err := json.Marshal(Envelope{T: MsgState, Data: state})
	if err != nil {
		log.Printf("room %s: state marshal: %v", r.code, err)
		return
	}

	var packed []byte
	for _, w := range r.watchers {
		if w.WantsBinary() {
			if packed == nil {
				packed, err = msgpack.Marshal(state)
				if err != nil {
					log.Printf("room %s: msgpack marshal: %v", r.code, err)
					packed = []byte{}
				}
			}
			if len(packed) > 0 {
				w.SendPacked(packed)
				continue
			}
		}
		w.SendRaw(data)
	}
}

// emitLocked fans one event out to every watcher
func (r *Room) emitLocked(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	for _, w := range r.watchers {
		w.SendRaw(data)
	}
}

func (r *Room) emitInfoLocked() {
	r.emitLocked(Envelope{T: MsgInfo, Data: r.roomInfoLocked()})
}
