package main

import (
	"crypto/rand"
	"log"
	"math/big"
	"strings"
	"sync"
)

const (
	// codeChars avoids look-alike characters so codes survive being read
	// off a screen across the room
	codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLen   = 4
	maxRooms  = 100
)

// generateRoomCode returns a short join code
func generateRoomCode() string {
	b := make([]byte, codeLen)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}

// roomEntry pairs a room with the loop goroutine driving it
type roomEntry struct {
	room *Room
	loop *Loop
}

// Registry tracks live rooms by code and owns their loops
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*roomEntry
	history *History
}

// NewRegistry creates an empty registry. history may be nil when match
// recording is disabled.
func NewRegistry(history *History) *Registry {
	return &Registry{
		rooms:   make(map[string]*roomEntry),
		history: history,
	}
}

// CreateRoom makes a room with a unique code and starts its loop
func (rg *Registry) CreateRoom(mode GameMode) (*Room, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	if len(rg.rooms) >= maxRooms {
		return nil, roomErr(ErrCodeTooManyRooms, "server is at room capacity")
	}

	var code string
	for {
		code = generateRoomCode()
		if _, exists := rg.rooms[code]; !exists {
			break
		}
	}

	room := NewRoom(code, mode)
	if rg.history != nil {
		room.onGameOver = rg.history.Record
	}
	loop := NewLoop(room.Update, room.BroadcastState)
	rg.rooms[code] = &roomEntry{room: room, loop: loop}
	go loop.Run()

	log.Printf("room %s: created mode=%s rooms=%d", code, mode, len(rg.rooms))
	return room, nil
}

// Get returns the room for a code, case-insensitively, or nil
func (rg *Registry) Get(code string) *Room {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	if e, ok := rg.rooms[strings.ToUpper(code)]; ok {
		return e.room
	}
	return nil
}

// Remove stops a room's loop and deletes it
func (rg *Registry) Remove(code string) {
	rg.mu.Lock()
	e, ok := rg.rooms[code]
	if ok {
		delete(rg.rooms, code)
	}
	rg.mu.Unlock()
	if ok {
		e.loop.Stop()
		log.Printf("room %s: removed", code)
	}
}

// Reap removes the room if nothing is attached to it anymore
func (rg *Registry) Reap(code string) {
	rg.mu.RLock()
	e, ok := rg.rooms[code]
	rg.mu.RUnlock()
	if ok && e.room.Deserted() {
		rg.Remove(code)
	}
}

// RoomCount returns the number of live rooms
func (rg *Registry) RoomCount() int {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return len(rg.rooms)
}
