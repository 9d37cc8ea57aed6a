package main

import "math"

const (
	ShipRadius     = 16.0
	ShipAccel      = 480.0 // pixels/s²
	ShipMaxSpeed   = 520.0 // pixels/s, enforced only when Tuning.ClampSpeed is on
	ShipDrag       = 0.985 // velocity multiplier per tick
	ShipTurnSpeed  = 4.2   // radians/s at full stick deflection
	FireRate       = 0.22  // seconds between shots
	RespawnDelay   = 3.0   // seconds before respawn
	InvulnDuration = 3.0   // spawn protection seconds
	SpawnMargin    = 80.0  // inset from world edges for spawn points
	KillScore      = 150
)

// ShipColors is assigned round-robin as players and bots join
var ShipColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
	"#9b59b6", "#1abc9c", "#e67e22", "#e91e63",
	"#00bcd4", "#8bc34a", "#ff5722", "#607d8b",
}

// Ship is the simulated vessel for one player or bot. Its ID is the owning
// player/bot id and never changes while the ship is in the room.
type Ship struct {
	ID        string
	Name      string
	Color     string
	X, Y      float64
	VX, VY    float64
	Rotation  float64
	Thrusting bool
	Score     int
	Alive     bool
	RespawnT  float64 // seconds until auto-respawn, 0 while alive
	FireCD    float64 // seconds until next shot allowed
	InvulnT   float64 // spawn protection remaining
	IsBot     bool
	LastSeq   int // highest input sequence number seen
}

// NewShip creates a live ship at a random spawn point facing a random
// direction, with full spawn invulnerability.
func NewShip(id, name, color string, tun Tuning) *Ship {
	x, y := spawnPoint(tun)
	return &Ship{
		ID:       id,
		Name:     name,
		Color:    color,
		X:        x,
		Y:        y,
		Rotation: randFloat() * 2 * math.Pi,
		Alive:    true,
		InvulnT:  InvulnDuration,
	}
}

// spawnPoint picks a random position within the spawn margin
func spawnPoint(tun Tuning) (float64, float64) {
	x := SpawnMargin + randFloat()*(tun.WorldW-2*SpawnMargin)
	y := SpawnMargin + randFloat()*(tun.WorldH-2*SpawnMargin)
	return x, y
}

// Update advances the ship one tick. Dead ships count down their respawn
// timer and come back only when allowRespawn is set (last-one-standing
// keeps them dead).
func (s *Ship) Update(dt float64, tun Tuning, allowRespawn bool) {
	if !s.Alive {
		s.RespawnT -= dt
		if s.RespawnT <= 0 && allowRespawn {
			s.Respawn(tun)
		}
		return
	}

	s.FireCD -= dt
	if s.FireCD < 0 {
		s.FireCD = 0
	}
	s.InvulnT -= dt
	if s.InvulnT < 0 {
		s.InvulnT = 0
	}

	if s.Thrusting {
		s.VX += math.Cos(s.Rotation) * ShipAccel * dt
		s.VY += math.Sin(s.Rotation) * ShipAccel * dt
	}

	// Drag applies every tick regardless of thrust
	s.VX *= ShipDrag
	s.VY *= ShipDrag

	if tun.ClampSpeed {
		speed := math.Sqrt(s.VX*s.VX + s.VY*s.VY)
		if speed > ShipMaxSpeed {
			scale := ShipMaxSpeed / speed
			s.VX *= scale
			s.VY *= scale
		}
	}

	s.X = wrapCoord(s.X+s.VX*dt, tun.WorldW)
	s.Y = wrapCoord(s.Y+s.VY*dt, tun.WorldH)
}

// Respawn brings the ship back at a fresh spawn point
func (s *Ship) Respawn(tun Tuning) {
	s.X, s.Y = spawnPoint(tun)
	s.VX = 0
	s.VY = 0
	s.Rotation = randFloat() * 2 * math.Pi
	s.Alive = true
	s.FireCD = 0
	s.RespawnT = 0
	s.InvulnT = InvulnDuration
}

// Kill marks the ship dead and starts its respawn countdown
func (s *Ship) Kill() {
	s.Alive = false
	s.VX = 0
	s.VY = 0
	s.Thrusting = false
	s.RespawnT = RespawnDelay
}

// CanFire reports whether the fire gates are open. Spawn invulnerability
// blocks firing unless the tuning says otherwise.
func (s *Ship) CanFire(tun Tuning) bool {
	if !s.Alive || s.FireCD > 0 {
		return false
	}
	if tun.InvulnBlocksFire && s.InvulnT > 0 {
		return false
	}
	return true
}

// ToState converts to protocol state
func (s *Ship) ToState() ShipState {
	return ShipState{
		ID:       s.ID,
		Name:     s.Name,
		Color:    s.Color,
		X:        round1(s.X),
		Y:        round1(s.Y),
		VX:       round1(s.VX),
		VY:       round1(s.VY),
		R:        round1(s.Rotation),
		Thrust:   s.Thrusting,
		Score:    s.Score,
		Alive:    s.Alive,
		RespawnT: round1(s.RespawnT),
		InvulnT:  round1(s.InvulnT),
		Bot:      s.IsBot,
	}
}
