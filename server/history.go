package main

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const historyQueueSize = 64

// MatchPlayerRecord is one roster row of a finished match
type MatchPlayerRecord struct {
	Name      string `json:"name"`
	IsBot     bool   `json:"bot"`
	Score     int    `json:"score"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	Fired     int    `json:"fired"`
	Hit       int    `json:"hit"`
	Asteroids int    `json:"asteroids"`
}

// MatchRecord is a finished match headed for the history ledger
type MatchRecord struct {
	ID         int64               `json:"id"`
	Code       string              `json:"code"`
	Mode       GameMode            `json:"mode"`
	Duration   float64             `json:"duration"`
	WinnerName string              `json:"winner"`
	EndedAt    time.Time           `json:"ended_at"`
	Players    []MatchPlayerRecord `json:"players"`
}

// History is the SQLite match ledger. Records pass through a buffered
// channel to a single writer goroutine, so a finishing room never waits
// on disk.
type History struct {
	conn     *sql.DB
	records  chan MatchRecord
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// OpenHistory opens (or creates) the ledger database and starts the writer
func OpenHistory(path string) (*History, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	h := &History{
		conn:    conn,
		records: make(chan MatchRecord, historyQueueSize),
		done:    make(chan struct{}),
	}
	if err := h.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	h.wg.Add(1)
	go h.writer()
	return h, nil
}

// migrate creates tables if they don't exist
func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		mode INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		winner TEXT NOT NULL DEFAULT '',
		ended_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		name TEXT NOT NULL,
		is_bot INTEGER NOT NULL DEFAULT 0,
		score INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		fired INTEGER NOT NULL DEFAULT 0,
		hit INTEGER NOT NULL DEFAULT 0,
		asteroids INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_matches_ended ON matches(ended_at);
	CREATE INDEX IF NOT EXISTS idx_match_players_match ON match_players(match_id);
	`
	_, err := h.conn.Exec(schema)
	if err != nil {
		log.Printf("history migration error: %v", err)
	}
	return err
}

// Record queues a finished match. Never blocks: if the queue is full the
// record is dropped with a log line.
func (h *History) Record(rec MatchRecord) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.records <- rec:
	default:
		log.Printf("history: queue full, dropping match %s", rec.Code)
	}
}

func (h *History) writer() {
	defer h.wg.Done()
	for {
		select {
		case rec := <-h.records:
			h.insert(rec)
		case <-h.done:
			for {
				select {
				case rec := <-h.records:
					h.insert(rec)
				default:
					return
				}
			}
		}
	}
}

// insert writes one match and its roster in a transaction
func (h *History) insert(rec MatchRecord) {
	tx, err := h.conn.Begin()
	if err != nil {
		log.Printf("history: begin: %v", err)
		return
	}
	res, err := tx.Exec(
		"INSERT INTO matches (code, mode, duration, winner, ended_at) VALUES (?, ?, ?, ?, ?)",
		rec.Code, int(rec.Mode), rec.Duration, rec.WinnerName, rec.EndedAt,
	)
	if err != nil {
		tx.Rollback()
		log.Printf("history: insert match: %v", err)
		return
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		log.Printf("history: match id: %v", err)
		return
	}
	for _, p := range rec.Players {
		if _, err := tx.Exec(
			`INSERT INTO match_players (match_id, name, is_bot, score, kills, deaths, fired, hit, asteroids)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			matchID, p.Name, p.IsBot, p.Score, p.Kills, p.Deaths, p.Fired, p.Hit, p.Asteroids,
		); err != nil {
			tx.Rollback()
			log.Printf("history: insert player: %v", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("history: commit: %v", err)
	}
}

// Recent returns the latest matches with their rosters, newest first
func (h *History) Recent(limit int) ([]MatchRecord, error) {
	rows, err := h.conn.Query(`
		SELECT id, code, mode, duration, winner, ended_at
		FROM matches ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		var mode int
		if err := rows.Scan(&rec.ID, &rec.Code, &mode, &rec.Duration, &rec.WinnerName, &rec.EndedAt); err != nil {
			return nil, err
		}
		rec.Mode = GameMode(mode)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		players, err := h.matchPlayers(result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Players = players
	}
	return result, nil
}

func (h *History) matchPlayers(matchID int64) ([]MatchPlayerRecord, error) {
	rows, err := h.conn.Query(`
		SELECT name, is_bot, score, kills, deaths, fired, hit, asteroids
		FROM match_players WHERE match_id = ? ORDER BY score DESC`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchPlayerRecord
	for rows.Next() {
		var p MatchPlayerRecord
		var isBot int
		if err := rows.Scan(&p.Name, &isBot, &p.Score, &p.Kills, &p.Deaths, &p.Fired, &p.Hit, &p.Asteroids); err != nil {
			return nil, err
		}
		p.IsBot = isBot != 0
		result = append(result, p)
	}
	return result, rows.Err()
}

// Close stops the writer after draining queued records
func (h *History) Close() error {
	h.stopOnce.Do(func() { close(h.done) })
	h.wg.Wait()
	return h.conn.Close()
}
