package main

import (
	"sync"
	"time"
)

const (
	TickRate      = 60 // simulation steps per second
	BroadcastRate = 20 // state snapshots per second

	BroadcastEvery = TickRate / BroadcastRate
	FixedDt        = 1.0 / TickRate
	TickDuration   = time.Second / TickRate

	// maxAccum bounds catch-up after a stall: beyond this the backlog is
	// dropped and the simulation slows instead of spiraling.
	maxAccum = 0.25
)

// Loop drives one room: a fixed simulation rate with a coarser broadcast
// cadence layered on top. Each room gets its own Loop goroutine, so a slow
// room never stalls the others.
type Loop struct {
	onTick      func(dt float64)
	onBroadcast func()

	acc   float64
	ticks uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoop wires the tick and broadcast callbacks
func NewLoop(onTick func(dt float64), onBroadcast func()) *Loop {
	return &Loop{
		onTick:      onTick,
		onBroadcast: onBroadcast,
		stop:        make(chan struct{}),
	}
}

// advance consumes elapsed wall time, running whole fixed steps and
// interleaving broadcasts at their cadence. Fractional remainder stays in
// the accumulator for the next wakeup.
func (l *Loop) advance(elapsed float64) {
	l.acc += elapsed
	if l.acc > maxAccum {
		l.acc = maxAccum
	}
	for l.acc >= FixedDt {
		l.acc -= FixedDt
		l.ticks++
		l.onTick(FixedDt)
		if l.ticks%BroadcastEvery == 0 {
			l.onBroadcast()
		}
	}
}

// Run blocks until Stop, pacing the simulation off wall-clock time
func (l *Loop) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Stop terminates the loop. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
