// Package config loads server settings from the environment, with an
// optional .env file picked up from the working directory.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults used when neither the environment nor flags say otherwise.
const (
	DefaultPort     = 4001
	DefaultHTTPPort = 4002
	DefaultDBPath   = "arena.db"
)

// Load reads .env if present. Missing files are fine, the environment
// alone is a valid configuration.
func Load() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: .env load error: %v", err)
		}
		return
	}
	log.Println("config: loaded .env")
}

// Port returns the TCP game port (GAME_PORT).
func Port() int {
	return intVar("GAME_PORT", DefaultPort)
}

// HTTPPort returns the diagnostics/spectator HTTP port (GAME_HTTP).
func HTTPPort() int {
	return intVar("GAME_HTTP", DefaultHTTPPort)
}

// DBPath returns the stats database path (GAME_DB).
func DBPath() string {
	if v := os.Getenv("GAME_DB"); v != "" {
		return v
	}
	return DefaultDBPath
}

func intVar(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: bad %s value %q, using %d", name, v, def)
		return def
	}
	return n
}
