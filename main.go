// The arena ships as one binary: `server` hosts a world over TCP plus
// the spectator and stats endpoints, `client` joins a world in the
// terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/burbokop/fast-pased-mp-game/client"
	"github.com/burbokop/fast-pased-mp-game/config"
	"github.com/burbokop/fast-pased-mp-game/server"
	"github.com/burbokop/fast-pased-mp-game/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "server":
		runServer(os.Args[2:])
	case "client":
		runClient(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fast-pased-mp-game server [--port N] [--http N] [--db PATH]")
	fmt.Fprintln(os.Stderr, "       fast-pased-mp-game client --address HOST:PORT")
}

func runServer(args []string) {
	config.Load()

	fs := flag.NewFlagSet("server", flag.ExitOnError)
	port := fs.Int("port", config.Port(), "TCP game port")
	httpPort := fs.Int("http", config.HTTPPort(), "HTTP port for /watch, /stats and /join.png")
	dbPath := fs.String("db", config.DBPath(), "sqlite path for frag stats")
	fs.Parse(args)

	db, err := server.OpenStatsDB(*dbPath)
	if err != nil {
		log.Fatalf("Open stats db: %v", err)
	}
	defer db.Close()

	rec := server.NewRecorder(db)
	hub := server.NewSpectatorHub()
	go hub.Run()

	srv := server.New(rec, hub)
	if err := srv.Start(*port); err != nil {
		log.Fatalf("Start game server: %v", err)
	}

	web := &http.Server{
		Addr:    fmt.Sprintf(":%d", *httpPort),
		Handler: server.Routes(hub, db, gameAddr(*port)),
	}
	go func() {
		log.Printf("Spectator and stats endpoints on %s", web.Addr)
		if err := web.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")
	web.Close()
	srv.Close()
	rec.Stop()
}

// gameAddr is the address players dial, as printed in the logs and
// encoded in the join QR code.
func gameAddr(port int) string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func runClient(args []string) {
	fs := flag.NewFlagSet("client", flag.ExitOnError)
	address := fs.String("address", "", "server address as HOST:PORT")
	fs.Parse(args)

	if *address == "" {
		fmt.Fprintln(os.Stderr, "client: --address is required")
		os.Exit(2)
	}

	cl, err := client.Dial(*address)
	if err != nil {
		log.Fatalf("Connect to %s: %v", *address, err)
	}
	defer cl.Close()

	log.Printf("Connected to %s as player %d", *address, cl.PlayerID)
	if err := term.Run(cl); err != nil {
		log.Fatalf("Session ended: %v", err)
	}
}
