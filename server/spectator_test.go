package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/burbokop/fast-pased-mp-game/game"
	"github.com/burbokop/fast-pased-mp-game/geom"
)

func startWeb(t *testing.T, db *StatsDB) (*SpectatorHub, *httptest.Server) {
	t.Helper()
	hub := NewSpectatorHub()
	go hub.Run()
	srv := httptest.NewServer(Routes(hub, db, "127.0.0.1:4001"))
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestSpectatorReceivesSnapshots(t *testing.T) {
	hub, srv := startWeb(t, nil)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/watch"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	defer conn.Close()

	registered := false
	for i := 0; i < 100; i++ {
		if hub.SpectatorCount() == 1 {
			registered = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !registered {
		t.Fatal("spectator never registered")
	}

	now := time.Now()
	st := game.NewState()
	shield := game.WeaponForKind(game.WeaponShield)
	st.Create(game.CreateInfo{
		Pos:    geom.Point{X: 100, Y: 120},
		Rot:    geom.NoRot(),
		Color:  game.Color{A: 255, R: 250},
		Weapon: &shield,
	}, 1, now)
	ray := game.WeaponForKind(game.WeaponRayGun)
	st.Create(game.CreateInfo{
		Pos:   geom.Point{X: 300, Y: 300},
		Rot:   geom.NoRot(),
		Color: game.Color{A: 255, B: 250},
		Proj:  ray.Projectile,
		Tail: &game.Tail{
			End:              geom.Point{X: 200, Y: 200},
			Rot:              geom.NoRot(),
			ReflectionPoints: []geom.Point{{X: 250, Y: 260}},
		},
	}, 2, now)
	hub.PublishState(st)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", msgType)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if snap.Bounds != st.WorldBounds {
		t.Errorf("bounds = %+v, want %+v", snap.Bounds, st.WorldBounds)
	}
	if len(snap.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(snap.Entities))
	}
	if snap.Entities[0].Kind != string(game.WeaponShield) {
		t.Errorf("first kind = %s, want %s", snap.Entities[0].Kind, game.WeaponShield)
	}
	if snap.Entities[1].Kind != string(game.ProjectileRay) {
		t.Errorf("second kind = %s, want %s", snap.Entities[1].Kind, game.ProjectileRay)
	}
	trail := snap.Entities[1].Trail
	if len(trail) != 3 {
		t.Fatalf("trail length = %d, want 3 (tail, bend, head)", len(trail))
	}
	if trail[0] != (geom.Point{X: 200, Y: 200}) || trail[2] != (geom.Point{X: 300, Y: 300}) {
		t.Errorf("trail endpoints wrong: %+v", trail)
	}
}

func TestStatsEndpoint(t *testing.T) {
	db := openTestDB(t)
	frags := []game.Frag{
		{KillerID: 1, VictimID: 2, Weapon: game.ProjectileBall, At: time.Now()},
		{KillerID: 1, VictimID: 2, Weapon: game.ProjectileRay, At: time.Now()},
	}
	if err := db.InsertFrags(frags); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, srv := startWeb(t, db)

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stats.Leaderboard) != 1 {
		t.Fatalf("leaderboard rows = %d, want 1", len(stats.Leaderboard))
	}
	if stats.Leaderboard[0].PlayerID != 1 || stats.Leaderboard[0].Kills != 2 {
		t.Errorf("leaderboard[0] = %+v, want player 1 with 2 kills", stats.Leaderboard[0])
	}
	if stats.Weapons[string(game.ProjectileBall)] != 1 {
		t.Errorf("ball frags = %d, want 1", stats.Weapons[string(game.ProjectileBall)])
	}
}

func TestJoinQRCode(t *testing.T) {
	_, srv := startWeb(t, nil)

	resp, err := http.Get(srv.URL + "/join.png")
	if err != nil {
		t.Fatalf("get join.png: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %s, want image/png", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}
