package main

import "math"

const (
	AsteroidSpinMin = 0.3
	AsteroidSpinMax = 1.8
)

// AsteroidSize is the asteroid class. Each class has a fixed radius, speed
// range and score value; destroying a large or medium asteroid splits it
// into two of the next class down.
type AsteroidSize int

const (
	AsteroidLarge AsteroidSize = iota
	AsteroidMedium
	AsteroidSmall
)

// asteroidClasses holds per-class stats. Smaller rocks are faster and
// worth more.
var asteroidClasses = [...]struct {
	Radius   float64
	MinSpeed float64
	MaxSpeed float64
	Score    int
}{
	AsteroidLarge:  {Radius: 46, MinSpeed: 40, MaxSpeed: 90, Score: 20},
	AsteroidMedium: {Radius: 26, MinSpeed: 60, MaxSpeed: 130, Score: 50},
	AsteroidSmall:  {Radius: 13, MinSpeed: 90, MaxSpeed: 170, Score: 100},
}

// Radius returns the collision radius for the class
func (sz AsteroidSize) Radius() float64 { return asteroidClasses[sz].Radius }

// Score returns the points awarded for destroying this class
func (sz AsteroidSize) Score() int { return asteroidClasses[sz].Score }

// Child returns the class spawned on split, or false for small asteroids
// which simply disappear.
func (sz AsteroidSize) Child() (AsteroidSize, bool) {
	switch sz {
	case AsteroidLarge:
		return AsteroidMedium, true
	case AsteroidMedium:
		return AsteroidSmall, true
	default:
		return 0, false
	}
}

// Asteroid drifts in a straight line and wraps at the world edges
type Asteroid struct {
	ID       int64
	X, Y     float64
	VX, VY   float64
	Rotation float64
	Spin     float64
	Size     AsteroidSize
	Alive    bool
}

// randomSpin picks a spin rate in either direction
func randomSpin() float64 {
	spin := randRange(AsteroidSpinMin, AsteroidSpinMax)
	if randFloat() < 0.5 {
		spin = -spin
	}
	return spin
}

// NewEdgeAsteroid spawns an asteroid of the given class at a random world
// edge, heading toward a point in the inner half of the map.
func NewEdgeAsteroid(id int64, size AsteroidSize, tun Tuning) *Asteroid {
	a := &Asteroid{
		ID:       id,
		Size:     size,
		Rotation: randFloat() * 2 * math.Pi,
		Spin:     randomSpin(),
		Alive:    true,
	}

	class := asteroidClasses[size]
	speed := randRange(class.MinSpeed, class.MaxSpeed)
	w, h := tun.WorldW, tun.WorldH

	// Pick a random edge and aim inward
	var tx, ty float64
	switch int(randFloat() * 4) {
	case 0: // left
		a.X, a.Y = 0, randFloat()*h
		tx, ty = w/2+randFloat()*w/4, randFloat()*h
	case 1: // right
		a.X, a.Y = w, randFloat()*h
		tx, ty = w/4+randFloat()*w/4, randFloat()*h
	case 2: // top
		a.X, a.Y = randFloat()*w, 0
		tx, ty = randFloat()*w, h/2+randFloat()*h/4
	default: // bottom
		a.X, a.Y = randFloat()*w, h
		tx, ty = randFloat()*w, h/4+randFloat()*h/4
	}
	angle := math.Atan2(ty-a.Y, tx-a.X)
	a.VX = math.Cos(angle) * speed
	a.VY = math.Sin(angle) * speed

	a.X = wrapCoord(a.X, w)
	a.Y = wrapCoord(a.Y, h)
	return a
}

// NewChildAsteroid spawns a split fragment at the parent's position with a
// fresh random heading and a speed from the child class range.
func NewChildAsteroid(id int64, size AsteroidSize, x, y float64) *Asteroid {
	class := asteroidClasses[size]
	speed := randRange(class.MinSpeed, class.MaxSpeed)
	angle := randFloat() * 2 * math.Pi
	return &Asteroid{
		ID:       id,
		X:        x,
		Y:        y,
		VX:       math.Cos(angle) * speed,
		VY:       math.Sin(angle) * speed,
		Rotation: randFloat() * 2 * math.Pi,
		Spin:     randomSpin(),
		Size:     size,
		Alive:    true,
	}
}

// Update moves and rotates the asteroid one tick
func (a *Asteroid) Update(dt float64, tun Tuning) {
	if !a.Alive {
		return
	}
	a.X = wrapCoord(a.X+a.VX*dt, tun.WorldW)
	a.Y = wrapCoord(a.Y+a.VY*dt, tun.WorldH)
	a.Rotation += a.Spin * dt
}

// ToState converts to protocol state
func (a *Asteroid) ToState() AsteroidState {
	return AsteroidState{
		ID:   a.ID,
		X:    round1(a.X),
		Y:    round1(a.Y),
		R:    math.Round(a.Rotation*100) / 100,
		Size: int(a.Size),
	}
}
