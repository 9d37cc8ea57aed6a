package main

import "sort"

// asteroidBlastColor is the explosion tint for destroyed rocks
const asteroidBlastColor = "#cbb79b"

// pendingKill is a death scheduled during detection and applied after all
// passes ran
type pendingKill struct {
	victimID string
	killerID string // "" for environmental deaths
}

// pendingSplit captures an asteroid destruction at detection time: the
// position and class survive even though the asteroid itself is removed
// before splits are applied.
type pendingSplit struct {
	ownerID string
	size    AsteroidSize
	x, y    float64
}

// resolveCollisionsLocked runs the per-tick collision passes. All four
// passes observe the same pre-collision state; effects are collected and
// applied afterwards, so a ship shot in pass 2 still rams in pass 3 and 4,
// and two ships overlapping destroy each other symmetrically.
func (r *Room) resolveCollisionsLocked() {
	w, h := r.tun.WorldW, r.tun.WorldH

	var kills []pendingKill
	var splits []pendingSplit
	deadBullets := make(map[int64]bool)
	deadAsteroids := make(map[int64]bool)

	// Pass 1: bullets vs asteroids. A bullet is spent on its first hit
	// and each asteroid is claimed by at most one bullet.
	for bid, b := range r.bullets {
		for aid, a := range r.asteroids {
			if deadAsteroids[aid] {
				continue
			}
			if !CheckCollision(b.X, b.Y, BulletRadius, a.X, a.Y, a.Size.Radius(), w, h) {
				continue
			}
			deadBullets[bid] = true
			deadAsteroids[aid] = true
			splits = append(splits, pendingSplit{
				ownerID: b.OwnerID,
				size:    a.Size,
				x:       a.X,
				y:       a.Y,
			})
			break
		}
	}

	// Pass 2: bullets vs ships. Bullets spent on rocks are out; owners
	// never hit themselves and invulnerable ships shrug shots off. The
	// shooter's hit counter moves here, at detection: every landed shot
	// is a hit even when the kill itself is later deduplicated.
	for bid, b := range r.bullets {
		if deadBullets[bid] {
			continue
		}
		for sid, s := range r.ships {
			if !s.Alive || s.InvulnT > 0 || sid == b.OwnerID {
				continue
			}
			if !CheckCollision(b.X, b.Y, BulletRadius, s.X, s.Y, ShipRadius, w, h) {
				continue
			}
			deadBullets[bid] = true
			if st := r.stats[b.OwnerID]; st != nil {
				st.Hit++
			}
			kills = append(kills, pendingKill{victimID: sid, killerID: b.OwnerID})
			break
		}
	}

	// Pass 3: ships vs asteroids, checked against the full pre-collision
	// asteroid set: a rock shot apart this very tick still rams.
	for sid, s := range r.ships {
		if !s.Alive || s.InvulnT > 0 {
			continue
		}
		for _, a := range r.asteroids {
			if CheckCollision(s.X, s.Y, ShipRadius, a.X, a.Y, a.Size.Radius(), w, h) {
				kills = append(kills, pendingKill{victimID: sid})
				break
			}
		}
	}

	// Pass 4: ship vs ship rams are mutual and never one-sided: both go
	// down, nobody gets the credit. Pair order is sorted so earlier passes
	// always win the kill dedup deterministically.
	ids := make([]string, 0, len(r.ships))
	for sid := range r.ships {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	for i := 0; i < len(ids); i++ {
		a := r.ships[ids[i]]
		if !a.Alive || a.InvulnT > 0 {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := r.ships[ids[j]]
			if !b.Alive || b.InvulnT > 0 {
				continue
			}
			if CheckCollision(a.X, a.Y, ShipRadius, b.X, b.Y, ShipRadius, w, h) {
				kills = append(kills,
					pendingKill{victimID: a.ID},
					pendingKill{victimID: b.ID})
			}
		}
	}

	// Apply phase: removals first, then deaths (one per ship, earliest
	// pass wins attribution), then splits.
	for bid := range deadBullets {
		delete(r.bullets, bid)
	}
	for aid := range deadAsteroids {
		delete(r.asteroids, aid)
	}

	killed := make(map[string]bool)
	for _, k := range kills {
		if killed[k.victimID] {
			continue
		}
		killed[k.victimID] = true
		r.applyKillLocked(k)
	}

	for _, sp := range splits {
		r.applySplitLocked(sp)
	}
}

// applyKillLocked finalizes one ship death: kill the ship, leave an
// explosion, and on an attributed kill move the score, tallies and
// pairwise maps. Environmental deaths change no tallies — the death and
// kill counters track pilot-versus-pilot results only.
func (r *Room) applyKillLocked(k pendingKill) {
	victim, ok := r.ships[k.victimID]
	if !ok {
		return
	}
	ex, ey := victim.X, victim.Y
	victim.Kill()

	r.entitySeq++
	e := NewExplosion(r.entitySeq, ex, ey, victim.Color, ExplosionMedium)
	r.explosions[e.ID] = e

	var killer *Ship
	if k.killerID != "" && k.killerID != k.victimID {
		killer = r.ships[k.killerID]
	}
	if killer != nil {
		killer.Score += KillScore
		if ks := r.stats[k.killerID]; ks != nil {
			ks.Kills++
			ks.RecordKillOf(victim.Name)
		}
		if vs := r.stats[k.victimID]; vs != nil {
			vs.Deaths++
			vs.RecordDeathBy(killer.Name)
		}
	}

	kill := KillMsg{VictimID: victim.ID, VictimName: victim.Name}
	if killer != nil {
		kill.KillerID = killer.ID
		kill.KillerName = killer.Name
	}
	r.emitLocked(Envelope{T: MsgKill, Data: kill})
}

// applySplitLocked credits the shooter and breaks the rock apart. The
// split uses the position and class captured at detection time; a cap
// filled by earlier splits suppresses the children but never the credit.
func (r *Room) applySplitLocked(sp pendingSplit) {
	if owner, ok := r.ships[sp.ownerID]; ok {
		owner.Score += sp.size.Score()
		if st := r.stats[sp.ownerID]; st != nil {
			st.Hit++
			st.Asteroids++
		}
	}

	r.entitySeq++
	e := NewExplosion(r.entitySeq, sp.x, sp.y, asteroidBlastColor, blastFor(sp.size))
	r.explosions[e.ID] = e

	child, ok := sp.size.Child()
	if !ok {
		return
	}
	for i := 0; i < 2; i++ {
		if len(r.asteroids) >= r.cfg.AsteroidCap {
			return
		}
		r.entitySeq++
		a := NewChildAsteroid(r.entitySeq, child, sp.x, sp.y)
		r.asteroids[a.ID] = a
	}
}

// blastFor maps an asteroid class to its explosion scale
func blastFor(size AsteroidSize) ExplosionSize {
	switch size {
	case AsteroidLarge:
		return ExplosionLarge
	case AsteroidMedium:
		return ExplosionMedium
	default:
		return ExplosionSmall
	}
}
