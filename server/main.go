package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
)

// envOr reads an environment variable with a fallback, so flags can take
// their defaults from .env
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	godotenv.Load()

	addr := flag.String("addr", envOr("ADDR", ":8080"), "HTTP listen address")
	clientDir := flag.String("client", envOr("CLIENT_DIR", ""), "Path to client directory (default: ../client)")
	dbPath := flag.String("db", envOr("DB_PATH", "gamezero.db"), "SQLite match history path (empty disables)")
	publicURL := flag.String("public-url", envOr("PUBLIC_URL", ""), "Base URL for QR join links (default derived from addr)")
	flag.Parse()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}
	if *publicURL == "" {
		if strings.HasPrefix(*addr, ":") {
			*publicURL = "http://localhost" + *addr
		} else {
			*publicURL = "http://" + *addr
		}
	}

	var history *History
	if *dbPath != "" {
		var err error
		history, err = OpenHistory(*dbPath)
		if err != nil {
			log.Fatalf("history: %v", err)
		}
		defer history.Close()
	}

	registry := NewRegistry(history)
	hub := NewHub(registry)
	go hub.Run()

	mux := SetupRoutes(hub, history, *clientDir, *publicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("server starting on %s", *addr)
		log.Printf("serving client files from %s", *clientDir)
		log.Printf("QR join links point at %s", *publicURL)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")
	server.Close()
}
