package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/thunderderder/echo/internal/api"
	"github.com/thunderderder/echo/internal/cache"
	"github.com/thunderderder/echo/internal/db"
	"github.com/thunderderder/echo/internal/echoes"
	"github.com/thunderderder/echo/internal/mcp"
	"github.com/thunderderder/echo/internal/remote"
)

func main() {
	// Local development keeps its settings in a .env file; absence is fine.
	godotenv.Load()

	// Get configuration from environment
	dbPath := os.Getenv("DUCKDB_PATH")
	if dbPath == "" {
		// Default to current directory
		dbPath = filepath.Join(".", "echo.duckdb")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	remoteURL := os.Getenv("REMOTE_BASE_URL")
	if remoteURL == "" {
		remoteURL = "http://localhost:3000"
	}
	remoteKey := os.Getenv("REMOTE_API_KEY")

	// Initialize database
	store, err := db.NewStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// The vector cache persists in the store's key/value table.
	vecCache := cache.New(store)

	client := remote.NewClient(remoteURL, remoteKey)

	// ECHO_LOCAL_MATCH=1 ranks echoes from cached vectors only, with no
	// remote matching call. Useful offline; it cannot backfill vectors.
	var matcher echoes.Matcher = client
	if os.Getenv("ECHO_LOCAL_MATCH") == "1" {
		matcher = echoes.NewLocalMatcher(vecCache)
	}
	coordinator := echoes.NewCoordinator(vecCache, matcher)

	mcpServer := mcp.NewServer(store, coordinator, client)

	fmt.Fprintf(os.Stderr, "===================================\n")
	fmt.Fprintf(os.Stderr, "Echo journal starting...\n")
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Assistant backend: %s\n", remoteURL)
	fmt.Fprintf(os.Stderr, "===================================\n")

	// ECHO_MODE=stdio serves MCP over stdio only, for desktop clients.
	if os.Getenv("ECHO_MODE") == "stdio" {
		if err := mcpServer.Serve(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	httpServer := api.NewServer(store, vecCache, coordinator, client, client, client, port)
	httpServer.AddMCPServer(mcpServer.GetMCPServer())

	if err := httpServer.Serve(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
