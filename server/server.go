package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

var (
	codeRe     = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}$`)
	codePathRe = regexp.MustCompile(`^/[A-HJ-NP-Z2-9]{4}$`)
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes. publicURL is the base address baked
// into QR join links, since phones scan them from another device.
func SetupRoutes(hub *Hub, history *History, clientDir, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		// SPA: serve index.html for root and room-code paths
		if r.URL.Path == "/" || codePathRe.MatchString(strings.ToUpper(r.URL.Path)) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// QR join link for a live room, rendered as PNG for the lobby screen
	mux.HandleFunc("/qr/", func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/qr/"))
		if !codeRe.MatchString(code) {
			http.Error(w, "bad room code", http.StatusBadRequest)
			return
		}
		if hub.registry.Get(code) == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(publicURL+"/"+code, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Recent match results from the history ledger
	mux.HandleFunc("/matches", func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			http.Error(w, "history disabled", http.StatusNotFound)
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		recent, err := history.Recent(limit)
		if err != nil {
			log.Printf("matches query: %v", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		if recent == nil {
			recent = []MatchRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recent)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"rooms":%d,"clients":%d}`,
			hub.registry.RoomCount(), hub.ClientCount())
	})

	return mux
}
