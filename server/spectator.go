package server

import (
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/burbokop/fast-pased-mp-game/game"
	"github.com/burbokop/fast-pased-mp-game/geom"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	sendBufSize   = 16
	maxSpectators = 64
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

// SpectatorHub fans world snapshots out to websocket watchers. The feed
// is one way: spectators receive binary msgpack frames and send
// nothing.
type SpectatorHub struct {
	mu         sync.RWMutex
	clients    map[*spectator]bool
	register   chan *spectator
	unregister chan *spectator
}

func NewSpectatorHub() *SpectatorHub {
	return &SpectatorHub{
		clients:    make(map[*spectator]bool),
		register:   make(chan *spectator, 8),
		unregister: make(chan *spectator, 8),
	}
}

// Run processes register/unregister events.
func (h *SpectatorHub) Run() {
	for {
		select {
		case sp := <-h.register:
			h.mu.Lock()
			h.clients[sp] = true
			h.mu.Unlock()
		case sp := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sp]; ok {
				delete(h.clients, sp)
				close(sp.send)
			}
			h.mu.Unlock()
		}
	}
}

// SpectatorCount returns the number of connected watchers.
func (h *SpectatorHub) SpectatorCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishState encodes the snapshot once and hands it to every watcher.
// Slow watchers drop frames instead of backing up the tick loop.
func (h *SpectatorHub) PublishState(st *game.State) {
	data, err := msgpack.Marshal(BuildSnapshot(st))
	if err != nil {
		log.Printf("spectator: encode error: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sp := range h.clients {
		select {
		case sp.send <- data:
		default:
		}
	}
}

// ServeWS upgrades an HTTP request into a spectator connection.
func (h *SpectatorHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.SpectatorCount() >= maxSpectators {
		http.Error(w, "too many spectators", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("spectator: upgrade error: %v", err)
		return
	}
	sp := &spectator{hub: h, conn: conn, send: make(chan []byte, sendBufSize)}
	h.register <- sp
	go sp.writePump()
	go sp.readPump()
}

// spectator is one websocket watcher.
type spectator struct {
	hub  *SpectatorHub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards anything the watcher sends. It exists to service
// control frames and to notice the connection going away.
func (sp *spectator) readPump() {
	defer func() {
		sp.hub.unregister <- sp
		sp.conn.Close()
	}()
	sp.conn.SetReadLimit(512)
	sp.conn.SetReadDeadline(time.Now().Add(pongWait))
	sp.conn.SetPongHandler(func(string) error {
		sp.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := sp.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (sp *spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sp.conn.Close()
	}()
	for {
		select {
		case data, ok := <-sp.send:
			sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sp.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sp.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sp.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Snapshot is the spectator view of one tick, flat enough to decode
// without the game types.
type Snapshot struct {
	Bounds   geom.Rect        `msgpack:"bounds"`
	Entities []SnapshotEntity `msgpack:"entities"`
}

// SnapshotEntity is one drawable thing. Kind is the weapon kind for
// characters and the projectile kind otherwise. Trail is populated for
// rays only: tail end, every bend, then the head.
type SnapshotEntity struct {
	ID     uint32       `msgpack:"id"`
	Kind   string       `msgpack:"kind"`
	Pos    geom.Point   `msgpack:"pos"`
	Rot    geom.Complex `msgpack:"rot"`
	Color  game.Color   `msgpack:"color"`
	Health int          `msgpack:"hp"`
	Trail  []geom.Point `msgpack:"trail,omitempty"`
}

// BuildSnapshot flattens a world state for the spectator feed.
func BuildSnapshot(st *game.State) Snapshot {
	snap := Snapshot{
		Bounds:   st.WorldBounds,
		Entities: make([]SnapshotEntity, 0, len(st.Entities)),
	}
	for i := range st.Entities {
		e := &st.Entities[i]
		se := SnapshotEntity{
			ID:     e.ID,
			Pos:    e.Pos,
			Rot:    e.Rot,
			Color:  e.Color,
			Health: e.Health,
		}
		switch {
		case e.IsCharacter():
			se.Kind = string(e.Weapon.Kind)
		default:
			se.Kind = string(e.Proj.Kind)
		}
		if e.Tail != nil {
			se.Trail = append(se.Trail, e.Tail.End)
			se.Trail = append(se.Trail, e.Tail.ReflectionPoints...)
			se.Trail = append(se.Trail, e.Pos)
		}
		snap.Entities = append(snap.Entities, se)
	}
	return snap
}
