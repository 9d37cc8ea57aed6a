package main

import (
	"math"
	"testing"
)

func shipSpeed(s *Ship) float64 {
	return math.Sqrt(s.VX*s.VX + s.VY*s.VY)
}

func TestShipThrustAcceleratesForward(t *testing.T) {
	tun := DefaultTuning()
	s := &Ship{ID: "p1", X: 800, Y: 450, Rotation: 0, Thrusting: true, Alive: true}

	s.Update(FixedDt, tun, true)

	if s.VX <= 0 {
		t.Errorf("expected forward velocity after thrust, got VX=%v", s.VX)
	}
	if math.Abs(s.VY) > 1e-9 {
		t.Errorf("expected no lateral velocity at rotation 0, got VY=%v", s.VY)
	}
	// One tick: (0 + accel*dt) * drag
	want := ShipAccel * FixedDt * ShipDrag
	if math.Abs(s.VX-want) > 1e-9 {
		t.Errorf("expected VX=%v after one tick, got %v", want, s.VX)
	}
}

func TestShipDragSlowsCoasting(t *testing.T) {
	tun := DefaultTuning()
	s := &Ship{ID: "p1", X: 800, Y: 450, VX: 100, Alive: true}

	s.Update(FixedDt, tun, true)
	if math.Abs(s.VX-100*ShipDrag) > 1e-9 {
		t.Errorf("expected VX=%v after one coasting tick, got %v", 100*ShipDrag, s.VX)
	}

	// Coasting for a while decays toward zero
	for i := 0; i < 600; i++ {
		s.Update(FixedDt, tun, true)
	}
	if s.VX > 1 {
		t.Errorf("expected near-zero velocity after coasting, got %v", s.VX)
	}
}

func TestShipWrapsAtWorldEdge(t *testing.T) {
	tun := DefaultTuning()
	s := &Ship{ID: "p1", X: tun.WorldW - 1, Y: tun.WorldH - 1, Rotation: 0, Thrusting: true, Alive: true}

	for i := 0; i < 600; i++ {
		s.Update(FixedDt, tun, true)
		if s.X < 0 || s.X >= tun.WorldW || s.Y < 0 || s.Y >= tun.WorldH {
			t.Fatalf("ship left the world at tick %d: (%v, %v)", i, s.X, s.Y)
		}
	}
}

func TestShipSpeedClampToggle(t *testing.T) {
	// With the clamp off, sustained thrust settles above the nominal
	// ceiling at the thrust/drag equilibrium.
	tun := DefaultTuning()
	tun.ClampSpeed = false
	s := &Ship{ID: "p1", X: 800, Y: 450, Rotation: 0, Thrusting: true, Alive: true, InvulnT: 0}
	for i := 0; i < 1200; i++ {
		s.Update(FixedDt, tun, true)
	}
	if shipSpeed(s) <= ShipMaxSpeed {
		t.Errorf("expected unclamped terminal speed above %v, got %v", float64(ShipMaxSpeed), shipSpeed(s))
	}

	tun.ClampSpeed = true
	s = &Ship{ID: "p2", X: 800, Y: 450, Rotation: 0, Thrusting: true, Alive: true}
	for i := 0; i < 1200; i++ {
		s.Update(FixedDt, tun, true)
		if shipSpeed(s) > ShipMaxSpeed+1e-6 {
			t.Fatalf("clamped ship exceeded max speed at tick %d: %v", i, shipSpeed(s))
		}
	}
}

func TestShipKill(t *testing.T) {
	s := &Ship{ID: "p1", X: 100, Y: 100, VX: 50, VY: -30, Thrusting: true, Alive: true}
	s.Kill()

	if s.Alive {
		t.Error("expected ship dead after Kill")
	}
	if s.VX != 0 || s.VY != 0 {
		t.Errorf("expected velocity zeroed, got (%v, %v)", s.VX, s.VY)
	}
	if s.Thrusting {
		t.Error("expected thrust cleared on death")
	}
	if s.RespawnT != RespawnDelay {
		t.Errorf("expected RespawnT=%v, got %v", float64(RespawnDelay), s.RespawnT)
	}
}

func TestShipRespawnTiming(t *testing.T) {
	tun := DefaultTuning()
	s := NewShip("p1", "Ace", "#e74c3c", tun)
	s.Kill()

	// 3.0s delay at dt=0.25 is exactly 12 ticks
	for i := 0; i < 11; i++ {
		s.Update(0.25, tun, true)
		if s.Alive {
			t.Fatalf("ship respawned early at tick %d", i)
		}
	}
	s.Update(0.25, tun, true)
	if !s.Alive {
		t.Fatal("expected ship alive after respawn delay")
	}
	if s.InvulnT != InvulnDuration {
		t.Errorf("expected fresh invulnerability %v, got %v", float64(InvulnDuration), s.InvulnT)
	}
	if s.VX != 0 || s.VY != 0 {
		t.Errorf("expected respawn at rest, got velocity (%v, %v)", s.VX, s.VY)
	}
}

func TestShipStaysDeadWithoutRespawn(t *testing.T) {
	tun := DefaultTuning()
	s := NewShip("p1", "Ace", "#e74c3c", tun)
	s.Kill()

	for i := 0; i < 40; i++ {
		s.Update(0.25, tun, false)
	}
	if s.Alive {
		t.Error("expected ship to stay dead when respawn is disabled")
	}
}

func TestShipCanFire(t *testing.T) {
	tun := DefaultTuning()
	tun.InvulnBlocksFire = true

	s := &Ship{ID: "p1", Alive: true}
	if !s.CanFire(tun) {
		t.Error("expected live ship with open gates to fire")
	}

	s.FireCD = 0.1
	if s.CanFire(tun) {
		t.Error("expected cooldown to block fire")
	}
	s.FireCD = 0

	s.Alive = false
	if s.CanFire(tun) {
		t.Error("expected dead ship not to fire")
	}
	s.Alive = true

	s.InvulnT = 1.0
	if s.CanFire(tun) {
		t.Error("expected spawn protection to block fire")
	}

	tun.InvulnBlocksFire = false
	if !s.CanFire(tun) {
		t.Error("expected invulnerable ship to fire when tuning allows it")
	}
}

func TestNewShipSpawn(t *testing.T) {
	tun := DefaultTuning()
	for i := 0; i < 50; i++ {
		s := NewShip("p1", "Ace", "#e74c3c", tun)
		if !s.Alive {
			t.Fatal("expected new ship alive")
		}
		if s.InvulnT != InvulnDuration {
			t.Fatalf("expected spawn invulnerability %v, got %v", float64(InvulnDuration), s.InvulnT)
		}
		if s.X < SpawnMargin || s.X > tun.WorldW-SpawnMargin {
			t.Fatalf("spawn X=%v outside margin", s.X)
		}
		if s.Y < SpawnMargin || s.Y > tun.WorldH-SpawnMargin {
			t.Fatalf("spawn Y=%v outside margin", s.Y)
		}
	}
}

func TestShipCooldownCountsDown(t *testing.T) {
	tun := DefaultTuning()
	s := &Ship{ID: "p1", Alive: true, FireCD: FireRate}

	ticks := 0
	for s.FireCD > 0 {
		s.Update(FixedDt, tun, true)
		ticks++
		if ticks > 100 {
			t.Fatal("cooldown never expired")
		}
	}
	// 0.22s at 60Hz is just over 13 ticks
	if ticks < 13 || ticks > 15 {
		t.Errorf("expected cooldown to clear in ~14 ticks, took %d", ticks)
	}
}

// ---------- bullets ----------

func TestNewBulletMuzzleAndVelocity(t *testing.T) {
	owner := &Ship{ID: "p1", Color: "#3498db", X: 100, Y: 100, VX: 40, VY: 0, Rotation: 0, Alive: true}
	b := NewBullet(7, owner)

	if b.ID != 7 || b.OwnerID != "p1" || b.Color != "#3498db" {
		t.Errorf("bullet identity wrong: %+v", b)
	}
	if math.Abs(b.X-120) > 1e-9 || math.Abs(b.Y-100) > 1e-9 {
		t.Errorf("expected muzzle at (120, 100), got (%v, %v)", b.X, b.Y)
	}
	wantVX := BulletSpeed + 0.3*40
	if math.Abs(b.VX-wantVX) > 1e-9 {
		t.Errorf("expected VX=%v with inherited velocity, got %v", wantVX, b.VX)
	}
	if math.Abs(b.VY) > 1e-9 {
		t.Errorf("expected VY=0 at rotation 0, got %v", b.VY)
	}
	if !b.Alive {
		t.Error("expected new bullet alive")
	}
}

func TestBulletExpires(t *testing.T) {
	tun := DefaultTuning()
	owner := &Ship{ID: "p1", X: 800, Y: 450, Alive: true}
	b := NewBullet(1, owner)

	// 0.9s lifetime at 60Hz is ~54 ticks
	for i := 0; i < 53; i++ {
		b.Update(FixedDt, tun)
		if !b.Alive {
			t.Fatalf("bullet expired early at tick %d", i)
		}
	}
	b.Update(FixedDt, tun)
	b.Update(FixedDt, tun)
	if b.Alive {
		t.Error("expected bullet expired after lifetime")
	}
}

func TestBulletWraps(t *testing.T) {
	tun := DefaultTuning()
	b := &Bullet{ID: 1, X: tun.WorldW - 5, Y: 450, VX: BulletSpeed, Life: BulletLifetime, Alive: true}

	b.Update(FixedDt, tun)
	if b.X >= tun.WorldW-5 {
		t.Errorf("expected bullet to wrap past the seam, got X=%v", b.X)
	}
	if b.X < 0 || b.X >= tun.WorldW {
		t.Errorf("bullet outside world after wrap: X=%v", b.X)
	}
}
