package main

import "math"

const (
	BotThinkMin      = 0.5  // seconds between decisions
	BotThinkMax      = 1.5
	BotTargetChance  = 0.7  // probability a decision picks a target
	BotWanderPerturb = 0.9  // max radians of wander heading drift per decision
	BotLeadFactor    = 0.85 // scales lead prediction below perfect
	BotAimJitter     = 0.07 // max radians of random aim error
	BotTurnFraction  = 0.75 // fraction of the ship turn rate a bot uses
	BotFireTolerance = 0.18 // radians off-target within which a bot fires
	BotFireRate      = 0.45 // bot trigger interval, slower than a human's
	BotThrustTarget  = 0.85 // thrust probability while hunting
	BotThrustWander  = 0.5  // thrust probability while patrolling
)

// botNames is the callsign pool for roster-fill bots
var botNames = []string{
	"Vector", "Caliban", "Mynock", "Quasar", "Drifter", "Halcyon",
	"Krait", "Pulsar", "Osprey", "Vostok", "Tycho", "Nimbus",
}

// botName returns the n-th callsign, numbering repeats past the pool
func botName(n int) string {
	name := botNames[(n-1)%len(botNames)]
	if n > len(botNames) {
		return name + " II"
	}
	return name
}

// Bot is the scratch decision state for one AI ship. It lives alongside
// the ship record and is discarded with it when the match ends.
type Bot struct {
	ShipID   string
	ThinkT   float64 // countdown until the next decision
	Wander   float64 // patrol heading
	TargetID string  // "" while patrolling
	FireT    float64 // bot trigger cooldown, independent of the ship gate
}

// NewBot creates scratch state for a bot ship
func NewBot(shipID string, heading float64) *Bot {
	return &Bot{
		ShipID: shipID,
		Wander: heading,
	}
}

// Decide produces one tick of input for the bot's ship. The result goes
// through the same applyInput gates as a human message, so invulnerability
// and the ship fire cooldown still apply.
func (b *Bot) Decide(dt float64, self *Ship, ships map[string]*Ship, tun Tuning) PlayerInput {
	b.ThinkT -= dt
	b.FireT -= dt

	if b.ThinkT <= 0 {
		b.ThinkT = randRange(BotThinkMin, BotThinkMax)
		if randFloat() < BotTargetChance {
			b.TargetID = b.nearestTarget(self, ships, tun)
		} else {
			b.TargetID = ""
			b.Wander += (randFloat()*2 - 1) * BotWanderPerturb
		}
	}

	desired := b.Wander
	hasTarget := false
	if b.TargetID != "" {
		target, ok := ships[b.TargetID]
		if !ok || !target.Alive {
			b.TargetID = ""
		} else {
			desired = b.aimAt(self, target, tun)
			hasTarget = true
		}
	}

	// Turn toward the desired heading at a fraction of the ship's max
	// turn rate, expressed as stick deflection in [-1, 1].
	diff := NormalizeAngle(desired - self.Rotation)
	maxStep := ShipTurnSpeed * FixedDt
	rotation := Clamp(diff/maxStep, -1, 1) * BotTurnFraction

	thrustChance := BotThrustWander
	if hasTarget {
		thrustChance = BotThrustTarget
	}
	thrust := randFloat() < thrustChance

	fire := false
	if hasTarget && math.Abs(diff) < BotFireTolerance &&
		b.FireT <= 0 && self.FireCD <= 0 && self.InvulnT <= 0 {
		fire = true
		b.FireT = BotFireRate
	}

	return PlayerInput{Rotation: rotation, Thrust: thrust, Fire: fire}
}

// nearestTarget picks the closest living, non-invulnerable ship, or ""
func (b *Bot) nearestTarget(self *Ship, ships map[string]*Ship, tun Tuning) string {
	best := ""
	bestDist := math.MaxFloat64
	for id, s := range ships {
		if id == self.ID || !s.Alive || s.InvulnT > 0 {
			continue
		}
		d2 := WrapDistSq(self.X, self.Y, s.X, s.Y, tun.WorldW, tun.WorldH)
		if d2 < bestDist {
			bestDist = d2
			best = id
		}
	}
	return best
}

// aimAt leads the target by its velocity and the estimated bullet travel
// time, scaled below perfect and jittered so bots miss like people do.
func (b *Bot) aimAt(self, target *Ship, tun Tuning) float64 {
	dx := wrapDelta(target.X-self.X, tun.WorldW)
	dy := wrapDelta(target.Y-self.Y, tun.WorldH)
	travel := math.Sqrt(dx*dx+dy*dy) / BulletSpeed
	dx += target.VX * travel * BotLeadFactor
	dy += target.VY * travel * BotLeadFactor
	return math.Atan2(dy, dx) + (randFloat()*2-1)*BotAimJitter
}
