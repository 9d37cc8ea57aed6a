package main

// ExplosionSize picks the rendered blast scale
type ExplosionSize int

const (
	ExplosionSmall ExplosionSize = iota
	ExplosionMedium
	ExplosionLarge
)

// explosionLifetimes is the countdown per size class, in seconds
var explosionLifetimes = [...]float64{
	ExplosionSmall:  0.4,
	ExplosionMedium: 0.7,
	ExplosionLarge:  1.0,
}

// Explosion is purely cosmetic: it has no simulation effect and exists in
// the core only because its lifecycle is tick-driven and must be broadcast.
// MaxLife lets the renderer animate by progress.
type Explosion struct {
	ID      int64
	X, Y    float64
	Color   string
	Size    ExplosionSize
	Life    float64
	MaxLife float64
	Alive   bool
}

// NewExplosion spawns an explosion with the lifetime of its size class
func NewExplosion(id int64, x, y float64, color string, size ExplosionSize) *Explosion {
	life := explosionLifetimes[size]
	return &Explosion{
		ID:      id,
		X:       x,
		Y:       y,
		Color:   color,
		Size:    size,
		Life:    life,
		MaxLife: life,
		Alive:   true,
	}
}

// Update ticks down the explosion lifetime
func (e *Explosion) Update(dt float64) {
	if !e.Alive {
		return
	}
	e.Life -= dt
	if e.Life <= 0 {
		e.Alive = false
	}
}

// ToState converts to protocol state
func (e *Explosion) ToState() ExplosionState {
	return ExplosionState{
		ID:      e.ID,
		X:       round1(e.X),
		Y:       round1(e.Y),
		Color:   e.Color,
		Size:    int(e.Size),
		Life:    round1(e.Life),
		MaxLife: e.MaxLife,
	}
}
