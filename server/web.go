package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/skip2/go-qrcode"
)

const leaderboardLimit = 10

type statsResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Weapons     map[string]int     `json:"weapons"`
	Spectators  int                `json:"spectators"`
}

// Routes wires the spectator and diagnostics endpoints. gameAddr is the
// address players connect their game clients to; db may be nil when
// stats are disabled.
func Routes(hub *SpectatorHub, db *StatsDB, gameAddr string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/watch", hub.ServeWS)

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		resp := statsResponse{
			Leaderboard: []LeaderboardEntry{},
			Weapons:     map[string]int{},
			Spectators:  hub.SpectatorCount(),
		}
		if db != nil {
			board, err := db.Leaderboard(leaderboardLimit)
			if err != nil {
				log.Printf("stats: leaderboard error: %v", err)
				http.Error(w, "stats unavailable", http.StatusInternalServerError)
				return
			}
			if board != nil {
				resp.Leaderboard = board
			}
			usage, err := db.WeaponUsage()
			if err != nil {
				log.Printf("stats: weapon usage error: %v", err)
				http.Error(w, "stats unavailable", http.StatusInternalServerError)
				return
			}
			resp.Weapons = usage
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	// A phone can scan the lobby screen instead of typing the address.
	mux.HandleFunc("/join.png", func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode("tcp://"+gameAddr, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	return mux
}
