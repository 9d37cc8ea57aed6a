package main

import (
	"encoding/json"
	"testing"
)

// resolve runs one collision resolution under the room lock
func resolve(r *Room) {
	r.mu.Lock()
	r.resolveCollisionsLocked()
	r.mu.Unlock()
}

func addBullet(r *Room, id int64, owner string, x, y float64) {
	r.mu.Lock()
	r.bullets[id] = &Bullet{ID: id, OwnerID: owner, X: x, Y: y, Life: 1, Alive: true}
	r.mu.Unlock()
}

func addRock(r *Room, id int64, size AsteroidSize, x, y float64) {
	r.mu.Lock()
	r.asteroids[id] = &Asteroid{ID: id, X: x, Y: y, Size: size, Alive: true}
	r.mu.Unlock()
}

func countFrames(t *testing.T, m *mockBroadcaster, msgType string) int {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, raw := range m.raws {
		var env InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if env.T == msgType {
			n++
		}
	}
	return n
}

func TestCombatBulletKill(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	w := &mockBroadcaster{}
	r.AttachWatcher("disp1", w)
	alice, bob := r.ships["p1"], r.ships["p2"]

	addBullet(r, 99, "p1", bob.X, bob.Y)
	resolve(r)

	if bob.Alive {
		t.Fatal("expected the shot ship dead")
	}
	if bob.RespawnT != RespawnDelay {
		t.Errorf("expected respawn countdown %v, got %v", float64(RespawnDelay), bob.RespawnT)
	}
	if bob.VX != 0 || bob.VY != 0 {
		t.Error("expected dead ship velocity zeroed")
	}
	if alice.Score != KillScore {
		t.Errorf("expected killer score %d, got %d", KillScore, alice.Score)
	}

	r.mu.RLock()
	if _, ok := r.bullets[99]; ok {
		t.Error("expected the bullet spent")
	}
	if len(r.explosions) != 1 {
		t.Fatalf("expected 1 explosion, got %d", len(r.explosions))
	}
	for _, e := range r.explosions {
		if e.Color != bob.Color || e.Size != ExplosionMedium {
			t.Errorf("unexpected explosion %+v", e)
		}
	}
	ks, vs := r.stats["p1"], r.stats["p2"]
	r.mu.RUnlock()

	if ks.Kills != 1 || ks.Hit != 1 {
		t.Errorf("expected killer tallies 1/1, got kills=%d hit=%d", ks.Kills, ks.Hit)
	}
	if vs.Deaths != 1 {
		t.Errorf("expected victim death tallied, got %d", vs.Deaths)
	}
	if ks.Victim() != "Bob" || vs.Nemesis() != "Alice" {
		t.Errorf("expected pairwise tallies, got victim=%q nemesis=%q", ks.Victim(), vs.Nemesis())
	}

	env := w.lastEnvelope(t, MsgKill)
	if env == nil {
		t.Fatal("expected a kill feed frame")
	}
	var kill KillMsg
	if err := json.Unmarshal(env.D, &kill); err != nil {
		t.Fatalf("bad kill payload: %v", err)
	}
	if kill.KillerName != "Alice" || kill.VictimName != "Bob" {
		t.Errorf("unexpected kill feed: %+v", kill)
	}
}

func TestCombatOwnShotPassesThrough(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice")
	alice := r.ships["p1"]

	addBullet(r, 99, "p1", alice.X, alice.Y)
	resolve(r)

	if !alice.Alive {
		t.Fatal("expected a ship to survive its own bullet")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.bullets[99]; !ok {
		t.Error("expected the bullet to fly on, not be spent")
	}
	if len(r.explosions) != 0 {
		t.Error("expected no explosion")
	}
}

func TestCombatSpawnProtection(t *testing.T) {
	// Shots pass through a protected ship without being spent
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	bob := r.ships["p2"]
	bob.InvulnT = 2
	addBullet(r, 99, "p1", bob.X, bob.Y)
	resolve(r)
	if !bob.Alive {
		t.Fatal("expected protected ship to survive a shot")
	}
	r.mu.RLock()
	if _, ok := r.bullets[99]; !ok {
		t.Error("expected the bullet still flying")
	}
	r.mu.RUnlock()

	// Rocks pass through too
	r = newPlayingRoom(t, ModeDogfight, "Alice")
	alice := r.ships["p1"]
	alice.InvulnT = 2
	addRock(r, 500, AsteroidLarge, alice.X, alice.Y)
	resolve(r)
	if !alice.Alive {
		t.Fatal("expected protected ship to survive a rock")
	}

	// A ram pair with one protected ship does nothing to either
	r = newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	alice, bob = r.ships["p1"], r.ships["p2"]
	bob.X, bob.Y = alice.X, alice.Y
	bob.InvulnT = 2
	resolve(r)
	if !alice.Alive || !bob.Alive {
		t.Error("expected both ships to survive a protected ram")
	}
}

func TestCombatEnvironmentalDeath(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	w := &mockBroadcaster{}
	r.AttachWatcher("disp1", w)
	alice, bob := r.ships["p1"], r.ships["p2"]

	addRock(r, 500, AsteroidMedium, alice.X, alice.Y)
	resolve(r)

	if alice.Alive {
		t.Fatal("expected the rammed ship dead")
	}
	if bob.Score != 0 || alice.Score != 0 {
		t.Error("expected no score from an environmental death")
	}

	r.mu.RLock()
	if _, ok := r.asteroids[500]; !ok {
		t.Error("expected the rock to survive the ram")
	}
	vs := r.stats["p1"]
	r.mu.RUnlock()
	// Kill and death counters track pilot-versus-pilot results only
	if vs.Deaths != 0 {
		t.Errorf("expected no death tally for the environment, got %d", vs.Deaths)
	}

	env := w.lastEnvelope(t, MsgKill)
	if env == nil {
		t.Fatal("expected a kill feed frame")
	}
	var kill KillMsg
	if err := json.Unmarshal(env.D, &kill); err != nil {
		t.Fatalf("bad kill payload: %v", err)
	}
	if kill.KillerID != "" || kill.KillerName != "" {
		t.Errorf("expected no killer attribution, got %+v", kill)
	}
	if kill.VictimName != "Alice" {
		t.Errorf("expected victim Alice, got %q", kill.VictimName)
	}
}

func TestCombatMutualRam(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	w := &mockBroadcaster{}
	r.AttachWatcher("disp1", w)
	alice, bob := r.ships["p1"], r.ships["p2"]
	bob.X, bob.Y = alice.X, alice.Y

	resolve(r)

	if alice.Alive || bob.Alive {
		t.Fatal("expected both rammed ships dead")
	}
	if alice.Score != 0 || bob.Score != 0 {
		t.Error("expected no score from a mutual ram")
	}

	r.mu.RLock()
	ks, vs := r.stats["p1"], r.stats["p2"]
	explosions := len(r.explosions)
	r.mu.RUnlock()
	if ks.Kills != 0 || ks.Deaths != 0 || vs.Kills != 0 || vs.Deaths != 0 {
		t.Error("expected no combat tallies from a mutual ram")
	}
	if explosions != 2 {
		t.Errorf("expected 2 explosions, got %d", explosions)
	}
	if n := countFrames(t, w, MsgKill); n != 2 {
		t.Errorf("expected 2 kill feed frames, got %d", n)
	}
}

func TestCombatAsteroidSplit(t *testing.T) {
	tests := []struct {
		size      AsteroidSize
		score     int
		children  int
		childSize AsteroidSize
		blast     ExplosionSize
	}{
		{AsteroidLarge, 20, 2, AsteroidMedium, ExplosionLarge},
		{AsteroidMedium, 50, 2, AsteroidSmall, ExplosionMedium},
		{AsteroidSmall, 100, 0, 0, ExplosionSmall},
	}
	for _, tt := range tests {
		r := newPlayingRoom(t, ModeDogfight, "Alice")
		alice := r.ships["p1"]

		addRock(r, 500, tt.size, 1000, 200)
		addBullet(r, 99, "p1", 1000, 200)
		resolve(r)

		if alice.Score != tt.score {
			t.Errorf("size %d: expected score %d, got %d", tt.size, tt.score, alice.Score)
		}

		r.mu.RLock()
		if _, ok := r.asteroids[500]; ok {
			t.Errorf("size %d: expected the rock destroyed", tt.size)
		}
		if len(r.asteroids) != tt.children {
			t.Errorf("size %d: expected %d children, got %d", tt.size, tt.children, len(r.asteroids))
		}
		for _, child := range r.asteroids {
			if child.Size != tt.childSize {
				t.Errorf("size %d: expected child class %d, got %d", tt.size, tt.childSize, child.Size)
			}
			if child.X != 1000 || child.Y != 200 {
				t.Errorf("size %d: expected children at the parent position, got (%v, %v)", tt.size, child.X, child.Y)
			}
		}
		if len(r.explosions) != 1 {
			t.Errorf("size %d: expected 1 explosion, got %d", tt.size, len(r.explosions))
		}
		for _, e := range r.explosions {
			if e.Color != asteroidBlastColor || e.Size != tt.blast {
				t.Errorf("size %d: unexpected explosion %+v", tt.size, e)
			}
		}
		if _, ok := r.bullets[99]; ok {
			t.Errorf("size %d: expected the bullet spent", tt.size)
		}
		st := r.stats["p1"]
		r.mu.RUnlock()
		if st.Hit != 1 || st.Asteroids != 1 {
			t.Errorf("size %d: expected hit/asteroid tallies 1/1, got %d/%d", tt.size, st.Hit, st.Asteroids)
		}
	}
}

func TestCombatSplitCapSuppressesChildren(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice")
	alice := r.ships["p1"]

	// Room already at the asteroid cap once the destroyed rock is gone
	addRock(r, 500, AsteroidLarge, 1000, 200)
	addRock(r, 501, AsteroidLarge, 1200, 100)
	addRock(r, 502, AsteroidLarge, 1200, 800)
	addRock(r, 503, AsteroidLarge, 1400, 100)
	addRock(r, 504, AsteroidLarge, 1400, 800)
	addBullet(r, 99, "p1", 1000, 200)

	resolve(r)

	if alice.Score != AsteroidLarge.Score() {
		t.Errorf("expected the credit despite the cap, got score %d", alice.Score)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.asteroids) != 4 {
		t.Errorf("expected no children at the cap, got %d rocks", len(r.asteroids))
	}
	if r.stats["p1"].Asteroids != 1 {
		t.Error("expected the destruction tallied despite the cap")
	}
	if len(r.explosions) != 1 {
		t.Errorf("expected the blast despite the cap, got %d", len(r.explosions))
	}
}

func TestCombatKillDedupFirstPassWins(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	w := &mockBroadcaster{}
	r.AttachWatcher("disp1", w)
	alice, bob := r.ships["p1"], r.ships["p2"]

	// Bob is shot and rammed by a rock in the same tick. The rock sits
	// close enough to touch the ship but not the bullet, so the bullet
	// kill lands first and keeps the attribution.
	addBullet(r, 99, "p1", bob.X, bob.Y)
	addRock(r, 500, AsteroidLarge, bob.X+55, bob.Y)
	resolve(r)

	if bob.Alive {
		t.Fatal("expected the ship dead")
	}
	if alice.Score != KillScore {
		t.Errorf("expected the shot to keep the credit, got score %d", alice.Score)
	}
	r.mu.RLock()
	ks, vs := r.stats["p1"], r.stats["p2"]
	explosions := len(r.explosions)
	r.mu.RUnlock()
	if ks.Kills != 1 {
		t.Errorf("expected 1 kill, got %d", ks.Kills)
	}
	if vs.Deaths != 1 {
		t.Errorf("expected 1 death, got %d", vs.Deaths)
	}
	if explosions != 1 {
		t.Errorf("expected the deduplicated death to explode once, got %d", explosions)
	}
	if n := countFrames(t, w, MsgKill); n != 1 {
		t.Errorf("expected 1 kill feed frame, got %d", n)
	}
}

func TestCombatBulletSpentOnRockFirst(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	alice, bob := r.ships["p1"], r.ships["p2"]

	// Rock, bullet and ship in a line: the bullet overlaps both, the
	// rock and the ship don't touch. The rock claims the bullet, the
	// ship lives.
	addRock(r, 500, AsteroidSmall, 1000, 300)
	addBullet(r, 99, "p1", 1000, 314)
	bob.X, bob.Y = 1000, 332
	resolve(r)

	if !bob.Alive {
		t.Fatal("expected the ship to survive an already-spent bullet")
	}
	if alice.Score != AsteroidSmall.Score() {
		t.Errorf("expected only the rock credit, got score %d", alice.Score)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.bullets[99]; ok {
		t.Error("expected the bullet spent on the rock")
	}
	if r.stats["p2"].Deaths != 0 {
		t.Error("expected no death tallied")
	}
}

func TestCombatRockClaimedByOneBullet(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice")
	alice := r.ships["p1"]

	addRock(r, 500, AsteroidSmall, 1000, 300)
	addBullet(r, 98, "p1", 1000, 295)
	addBullet(r, 99, "p1", 1000, 305)
	resolve(r)

	if alice.Score != AsteroidSmall.Score() {
		t.Errorf("expected the rock scored once, got %d", alice.Score)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.bullets) != 1 {
		t.Errorf("expected one bullet to survive, got %d", len(r.bullets))
	}
	if len(r.asteroids) != 0 {
		t.Errorf("expected the rock gone without children, got %d", len(r.asteroids))
	}
	if st := r.stats["p1"]; st.Asteroids != 1 || st.Hit != 1 {
		t.Errorf("expected single rock tally, got asteroids=%d hit=%d", st.Asteroids, st.Hit)
	}
}

func TestCombatHitsCountOnDedupedKill(t *testing.T) {
	r := newPlayingRoom(t, ModeDogfight, "Alice", "Bob")
	w := &mockBroadcaster{}
	r.AttachWatcher("disp1", w)
	alice, bob := r.ships["p1"], r.ships["p2"]

	// Both shots land this tick: the kill applies once but every landed
	// shot counts toward accuracy.
	addBullet(r, 98, "p1", bob.X, bob.Y)
	addBullet(r, 99, "p1", bob.X, bob.Y)
	resolve(r)

	if bob.Alive {
		t.Fatal("expected the ship dead")
	}
	if alice.Score != KillScore {
		t.Errorf("expected a single kill score, got %d", alice.Score)
	}
	r.mu.RLock()
	ks := r.stats["p1"]
	bullets := len(r.bullets)
	explosions := len(r.explosions)
	r.mu.RUnlock()
	if ks.Hit != 2 {
		t.Errorf("expected both landed shots tallied, got %d", ks.Hit)
	}
	if ks.Kills != 1 {
		t.Errorf("expected 1 kill, got %d", ks.Kills)
	}
	if bullets != 0 {
		t.Errorf("expected both bullets spent, got %d", bullets)
	}
	if explosions != 1 {
		t.Errorf("expected one explosion, got %d", explosions)
	}
	if n := countFrames(t, w, MsgKill); n != 1 {
		t.Errorf("expected 1 kill feed frame, got %d", n)
	}
}
