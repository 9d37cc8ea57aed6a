package main

import "math"

// wrapCoord maps v into [0, size) for any overshoot, including positions
// more than one world-length out of range.
func wrapCoord(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// wrapDelta returns the shortest signed delta considering world wrapping
func wrapDelta(d, size float64) float64 {
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// WrapDistSq returns the squared toroidal distance between two points
func WrapDistSq(x1, y1, x2, y2, w, h float64) float64 {
	dx := wrapDelta(x2-x1, w)
	dy := wrapDelta(y2-y1, h)
	return dx*dx + dy*dy
}

// CheckCollision checks if two circles overlap under toroidal distance.
// A pair separated by exactly r1+r2 counts as colliding.
func CheckCollision(x1, y1, r1, x2, y2, r2, w, h float64) bool {
	radSum := r1 + r2
	return WrapDistSq(x1, y1, x2, y2, w, h) <= radSum*radSum
}
