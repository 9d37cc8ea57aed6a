package main

import (
	"math"
	"math/rand"
)

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// round1 rounds to one decimal for compact wire encoding
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// randFloat returns a random float64 in [0, 1)
func randFloat() float64 {
	return rand.Float64()
}

// randRange returns a random float64 in [min, max)
func randRange(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
