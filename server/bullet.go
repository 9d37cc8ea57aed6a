package main

import "math"

const (
	BulletSpeed    = 640.0 // pixels/s
	BulletRadius   = 3.0
	BulletLifetime = 0.9  // seconds
	BulletOffset   = 20.0 // muzzle distance from ship center
	MaxBullets     = 48   // per-room cap
)

// Bullet is a fired shot. OwnerID prevents self-hits and attributes score;
// Color is denormalized for rendering only.
type Bullet struct {
	ID      int64
	OwnerID string
	Color   string
	X, Y    float64
	VX, VY  float64
	Life    float64
	Alive   bool
}

// NewBullet spawns a bullet at the owner's muzzle, inheriting a fraction
// of the ship's velocity.
func NewBullet(id int64, owner *Ship) *Bullet {
	cos := math.Cos(owner.Rotation)
	sin := math.Sin(owner.Rotation)
	return &Bullet{
		ID:      id,
		OwnerID: owner.ID,
		Color:   owner.Color,
		X:       owner.X + cos*BulletOffset,
		Y:       owner.Y + sin*BulletOffset,
		VX:      cos*BulletSpeed + owner.VX*0.3,
		VY:      sin*BulletSpeed + owner.VY*0.3,
		Life:    BulletLifetime,
		Alive:   true,
	}
}

// Update moves the bullet one tick
func (b *Bullet) Update(dt float64, tun Tuning) {
	if !b.Alive {
		return
	}
	b.X = wrapCoord(b.X+b.VX*dt, tun.WorldW)
	b.Y = wrapCoord(b.Y+b.VY*dt, tun.WorldH)
	b.Life -= dt
	if b.Life <= 0 {
		b.Alive = false
	}
}

// ToState converts to protocol state
func (b *Bullet) ToState() BulletState {
	return BulletState{
		ID:    b.ID,
		Owner: b.OwnerID,
		Color: b.Color,
		X:     round1(b.X),
		Y:     round1(b.Y),
		VX:    round1(b.VX),
		VY:    round1(b.VY),
	}
}
