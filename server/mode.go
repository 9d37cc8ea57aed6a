package main

// Phase is the room lifecycle state machine. Gameover is terminal — a new
// room is required to play again.
type Phase int

const (
	PhaseLobby Phase = iota
	PhasePlaying
	PhaseGameover
)

// String returns the phase name for logs
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlaying:
		return "playing"
	case PhaseGameover:
		return "gameover"
	}
	return "unknown"
}

// GameMode selects the rule set for a match
type GameMode int

const (
	ModeDogfight GameMode = iota
	ModeRockstorm
	ModeLastShip
)

// String returns the mode name for logs and the history ledger
func (m GameMode) String() string {
	switch m {
	case ModeDogfight:
		return "dogfight"
	case ModeRockstorm:
		return "rockstorm"
	case ModeLastShip:
		return "lastship"
	}
	return "unknown"
}

// ModeConfig holds the per-mode rules. TimeLimit 0 means no countdown
// clock; such modes end when fewer than two ships remain alive.
type ModeConfig struct {
	Mode             GameMode
	TimeLimit        float64 // seconds, 0 = last-one-standing
	Respawn          bool    // dead ships come back after RespawnDelay
	UseAsteroids     bool
	InitialAsteroids int
	AsteroidCap      int
	SpawnInterval    float64 // seconds between edge spawns
	FillBots         bool    // fill empty roster slots with bots on start
	RosterSize       int
	MaxPlayers       int
}

// DefaultModeConfig returns the rules for the given mode
func DefaultModeConfig(mode GameMode) ModeConfig {
	switch mode {
	case ModeRockstorm:
		return ModeConfig{
			Mode:             ModeRockstorm,
			TimeLimit:        150,
			Respawn:          true,
			UseAsteroids:     true,
			InitialAsteroids: 8,
			AsteroidCap:      12,
			SpawnInterval:    2.5,
			FillBots:         false,
			RosterSize:       0,
			MaxPlayers:       8,
		}
	case ModeLastShip:
		return ModeConfig{
			Mode:             ModeLastShip,
			TimeLimit:        0,
			Respawn:          false,
			UseAsteroids:     true,
			InitialAsteroids: 4,
			AsteroidCap:      6,
			SpawnInterval:    5,
			FillBots:         true,
			RosterSize:       6,
			MaxPlayers:       8,
		}
	default:
		return ModeConfig{
			Mode:             ModeDogfight,
			TimeLimit:        180,
			Respawn:          true,
			UseAsteroids:     true,
			InitialAsteroids: 2,
			AsteroidCap:      4,
			SpawnInterval:    7,
			FillBots:         true,
			RosterSize:       6,
			MaxPlayers:       8,
		}
	}
}

// Tuning holds room-level physics switches. The two booleans resolve
// tuning ambiguities observed across revisions of the game: whether ships
// respect the nominal max-speed ceiling, and whether spawn invulnerability
// also blocks firing.
type Tuning struct {
	WorldW           float64
	WorldH           float64
	ClampSpeed       bool
	InvulnBlocksFire bool
}

// DefaultTuning returns the stock arena tuning
func DefaultTuning() Tuning {
	return Tuning{
		WorldW:           1600,
		WorldH:           900,
		ClampSpeed:       false,
		InvulnBlocksFire: true,
	}
}
