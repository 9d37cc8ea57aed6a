package main

import "math"

// PlayerStats accumulates per-ship combat numbers for one match. The
// pairwise tally maps are keyed by opponent display name, which survives
// respawns and name-based rejoins.
type PlayerStats struct {
	Kills     int
	Deaths    int
	Fired     int // shots fired
	Hit       int // shots landed
	Asteroids int // asteroids destroyed

	killed   map[string]int // victim name -> times this ship killed them
	killedBy map[string]int // killer name -> times they killed this ship
}

// NewPlayerStats creates an empty stats record
func NewPlayerStats() *PlayerStats {
	return &PlayerStats{
		killed:   make(map[string]int),
		killedBy: make(map[string]int),
	}
}

// RecordKillOf notes that this ship killed the named opponent
func (st *PlayerStats) RecordKillOf(name string) {
	st.killed[name]++
}

// RecordDeathBy notes that the named opponent killed this ship
func (st *PlayerStats) RecordDeathBy(name string) {
	st.killedBy[name]++
}

// Victim returns the opponent this ship killed most often, or ""
func (st *PlayerStats) Victim() string {
	return maxTally(st.killed)
}

// Nemesis returns the opponent who killed this ship most often, or ""
func (st *PlayerStats) Nemesis() string {
	return maxTally(st.killedBy)
}

// Accuracy returns shots landed over shots fired in [0, 1]
func (st *PlayerStats) Accuracy() float64 {
	if st.Fired == 0 {
		return 0
	}
	return float64(st.Hit) / float64(st.Fired)
}

// maxTally picks the name with the highest count. Ties resolve to the
// lexicographically smallest name so the derivation is deterministic.
func maxTally(m map[string]int) string {
	best := ""
	bestCount := 0
	for name, count := range m {
		if count > bestCount || (count == bestCount && count > 0 && name < best) {
			best = name
			bestCount = count
		}
	}
	return best
}

// ToState converts to protocol state for the given ship
func (st *PlayerStats) ToState(id, name string) StatsState {
	return StatsState{
		ID:        id,
		Name:      name,
		Kills:     st.Kills,
		Deaths:    st.Deaths,
		Fired:     st.Fired,
		Hit:       st.Hit,
		Asteroids: st.Asteroids,
		Accuracy:  math.Round(st.Accuracy()*100) / 100,
		Nemesis:   st.Nemesis(),
		Victim:    st.Victim(),
	}
}
