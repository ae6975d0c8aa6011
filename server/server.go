// Package server runs the authoritative side of the arena: a TCP
// listener with one goroutine per player connection, a simulation tick
// goroutine, and a single mutex-guarded world they all share. The
// spectator hub and the stats recorder hang off the tick loop.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/burbokop/fast-pased-mp-game/game"
	"github.com/burbokop/fast-pased-mp-game/geom"
	"github.com/burbokop/fast-pased-mp-game/packet"
	"github.com/burbokop/fast-pased-mp-game/protocol"
)

const (
	tickInterval      = 33 * time.Millisecond  // simulation step target
	broadcastInterval = 33 * time.Millisecond  // per-connection snapshot rate
	pollInterval      = time.Millisecond       // socket poll pacing
	fireCheckInterval = 100 * time.Millisecond // held-button recheck floor
	burstBallCount    = 32                     // shield self destruct spread
)

// Server owns the world and everything feeding it. Recorder and hub may
// be nil, the game runs fine without stats or spectators.
type Server struct {
	mu    sync.Mutex
	state *game.State

	nextPlayerID uint64 // atomic

	rec *Recorder
	hub *SpectatorHub

	ln   net.Listener
	stop chan struct{}
	wg   sync.WaitGroup
}

func New(rec *Recorder, hub *SpectatorHub) *Server {
	return &Server{
		state: game.NewState(),
		rec:   rec,
		hub:   hub,
		stop:  make(chan struct{}),
	}
}

// Start binds the game port and launches the accept and tick loops. It
// returns once the listener is bound; pass port 0 to pick a free one.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	s.ln = ln
	log.Printf("game server listening on %s", ln.Addr())
	s.wg.Add(2)
	go s.acceptLoop()
	go s.tickLoop()
	return nil
}

// Addr returns the bound game address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops the accept and tick loops. Connection handlers wind down
// on their own once their sockets die.
func (s *Server) Close() {
	close(s.stop)
	s.ln.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
			default:
				log.Printf("accept error: %v", err)
			}
			return
		}
		go s.handle(conn)
	}
}

// tickLoop advances the world at a fixed cadence, compensating the
// sleep for however long the step itself took.
func (s *Server) tickLoop() {
	defer s.wg.Done()
	last := time.Now()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		now := time.Now()
		s.mu.Lock()
		s.state.Proceed(now, now.Sub(last))
		frags := s.state.DrainFrags()
		var snap *game.State
		if s.hub != nil && s.hub.SpectatorCount() > 0 {
			snap = s.state.Clone()
		}
		s.mu.Unlock()
		last = now

		if s.rec != nil {
			for _, f := range frags {
				s.rec.Record(f)
			}
		}
		if snap != nil {
			s.hub.PublishState(snap)
		}
		if d := tickInterval - time.Since(now); d > 0 {
			time.Sleep(d)
		}
	}
}

// session is the connection-local player state. It never enters the
// world snapshot and dies with the connection.
type session struct {
	color         game.Color
	killed        bool
	pressed       bool
	pressedAt     time.Time // when the fire button went down
	lastShot      time.Time // when the last projectile left the barrel
	ackedSeq      uint32
	lastBroadcast time.Time
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	playerID := atomic.AddUint64(&s.nextPlayerID, 1)
	err := s.serve(conn, playerID)
	s.mu.Lock()
	s.state.RemovePlayer(playerID)
	s.mu.Unlock()
	log.Printf("player %d disconnected: %v", playerID, err)
}

// serve owns one connection from handshake to disconnect. The socket is
// polled with a short read deadline, which doubles as the loop pacing.
func (s *Server) serve(conn net.Conn, playerID uint64) error {
	r := packet.NewReader(conn)
	w := packet.NewWriter(conn)

	if err := sendMsg(w, protocol.MsgInit, protocol.InitMsg{PlayerID: playerID}); err != nil {
		return err
	}
	sess, err := s.awaitJoin(conn, r, playerID)
	if err != nil {
		return err
	}

	for {
		conn.SetReadDeadline(time.Now().Add(pollInterval))
		if err := r.Poll(); err != nil {
			return err
		}
		for {
			frame, ok := r.Next()
			if !ok {
				break
			}
			if err := s.dispatch(frame, playerID, sess); err != nil {
				return err
			}
		}
		if r.Closed() {
			return fmt.Errorf("stream closed by peer")
		}

		now := time.Now()
		s.fire(playerID, sess, now)
		if s.checkKilled(playerID, sess) {
			if err := sendMsg(w, protocol.MsgKill, protocol.KillMsg{}); err != nil {
				return err
			}
		}
		if now.Sub(sess.lastBroadcast) > broadcastInterval {
			if err := s.broadcast(w, playerID, sess, now); err != nil {
				return err
			}
		}
	}
}

// awaitJoin polls for the first client message. Anything except a join
// is a fatal protocol violation.
func (s *Server) awaitJoin(conn net.Conn, r *packet.Reader, playerID uint64) (*session, error) {
	for {
		conn.SetReadDeadline(time.Now().Add(pollInterval))
		if err := r.Poll(); err != nil {
			return nil, err
		}
		frame, ok := r.Next()
		if !ok {
			if r.Closed() {
				return nil, fmt.Errorf("stream closed before join")
			}
			continue
		}
		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			log.Panicf("player %d sent garbage: %v", playerID, err)
		}
		if env.T != protocol.MsgJoin {
			panic("First package must be init package")
		}
		var msg protocol.JoinMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			log.Panicf("player %d sent a bad join: %v", playerID, err)
		}
		weapon := game.WeaponForKind(game.WeaponBallGun)
		s.mu.Lock()
		s.state.Create(game.CreateInfo{
			Pos:    s.state.RandomPointInside(),
			Rot:    geom.NoRot(),
			Color:  msg.Color,
			Weapon: &weapon,
		}, playerID, time.Now())
		s.mu.Unlock()
		log.Printf("player %d joined", playerID)
		return &session{color: msg.Color}, nil
	}
}

func (s *Server) dispatch(frame []byte, playerID uint64, sess *session) error {
	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		log.Panicf("player %d sent garbage: %v", playerID, err)
	}
	switch env.T {
	case protocol.MsgJoin:
		panic("Double init")
	case protocol.MsgInput:
		var msg protocol.InputMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			log.Panicf("player %d sent a bad input: %v", playerID, err)
		}
		s.applyInput(playerID, sess, msg)
	case protocol.MsgRespawn:
		var msg protocol.RespawnMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			log.Panicf("player %d sent a bad respawn: %v", playerID, err)
		}
		s.respawn(playerID, sess, msg)
	default:
		log.Panicf("player %d sent unexpected message %q", playerID, env.T)
	}
	return nil
}

// applyInput moves the character by the client's delta and adopts the
// client's facing, then pushes the box back off bounds and shields. The
// sequence number is echoed only once the input actually applied to a
// live character.
func (s *Server) applyInput(playerID uint64, sess *session, msg protocol.InputMsg) {
	s.mu.Lock()
	if ch := s.state.FindCharacter(playerID); ch != nil {
		ch.Pos = ch.Pos.Add(msg.Movement)
		ch.Rot = msg.Rotation
		s.state.CorrectCharacter(ch)
		sess.ackedSeq = msg.SequenceNumber
	}
	s.mu.Unlock()

	if !sess.pressed && msg.LeftMousePressed {
		sess.pressedAt = time.Now()
	}
	sess.pressed = msg.LeftMousePressed
}

// respawn brings a dead player back with the weapon of their choice.
// Requests from the living are ignored.
func (s *Server) respawn(playerID uint64, sess *session, msg protocol.RespawnMsg) {
	if !sess.killed {
		return
	}
	sess.killed = false
	weapon := game.WeaponForKind(msg.Weapon)
	s.mu.Lock()
	s.state.Create(game.CreateInfo{
		Pos:    s.state.RandomPointInside(),
		Rot:    geom.NoRot(),
		Color:  sess.color,
		Weapon: &weapon,
	}, playerID, time.Now())
	s.mu.Unlock()
}

// fire spawns projectiles while the button is held, throttled by the
// wielded weapon's own interval. The shield does not shoot: holding the
// button past its self destruct window detonates the wielder into a
// ring of balls with staggered lifetimes.
func (s *Server) fire(playerID uint64, sess *session, now time.Time) {
	if !sess.pressed || now.Sub(sess.lastShot) <= fireCheckInterval {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.state.FindCharacter(playerID)
	if ch == nil {
		return
	}
	weapon := ch.Weapon
	if weapon.Shield != nil {
		if now.Sub(sess.pressedAt) > weapon.Shield.SelfDestruct {
			s.selfDestruct(ch, now)
		}
		return
	}
	if now.Sub(sess.lastShot) <= weapon.FireInterval {
		return
	}
	info := game.CreateInfo{
		Pos:   ch.Pos,
		Rot:   ch.Rot,
		Color: ch.Color,
		Proj:  weapon.Projectile,
	}
	if weapon.Projectile.Kind == game.ProjectileRay {
		info.Tail = &game.Tail{End: ch.Pos, Rot: ch.Rot}
	}
	s.state.Create(info, playerID, now)
	sess.lastShot = now
}

// selfDestruct condemns the shield wielder and scatters balls in a full
// circle. Ball i lives i seconds, so the ring collapses from the inside
// out. Caller holds the lock.
func (s *Server) selfDestruct(ch *game.Entity, now time.Time) {
	s.state.RegisterKill(ch.ID)
	for i := 0; i < burstBallCount; i++ {
		s.state.Create(game.CreateInfo{
			Pos:   ch.Pos,
			Rot:   geom.FromRad(float64(i) / burstBallCount * 2 * math.Pi),
			Color: ch.Color,
			Proj: &game.ProjectileSpec{
				Kind:               game.ProjectileBall,
				Life:               time.Duration(i) * time.Second,
				OwnerInvincibility: 1000 * time.Second,
				Velocity:           500,
				Health:             1,
				Radius:             4,
			},
		}, ch.PlayerID, now)
	}
}

// checkKilled consumes a pending kill of this player's character and
// flips the session into the dead state.
func (s *Server) checkKilled(playerID uint64, sess *session) bool {
	s.mu.Lock()
	dead := s.state.AccountKill(playerID)
	s.mu.Unlock()
	if dead {
		sess.killed = true
		sess.pressed = false
	}
	return dead
}

func (s *Server) broadcast(w *packet.Writer, playerID uint64, sess *session, now time.Time) error {
	s.mu.Lock()
	snap := s.state.Clone()
	s.mu.Unlock()
	frame, err := protocol.Encode(protocol.MsgBroadcast, protocol.BroadcastMsg{
		SequenceNumber: sess.ackedSeq,
		GameState:      snap,
		PlayerState:    game.PlayerState{Color: sess.color, Killed: sess.killed},
	})
	if err != nil {
		return err
	}
	sess.lastBroadcast = now
	return w.WritePacket(frame)
}

func sendMsg(w *packet.Writer, t string, data interface{}) error {
	frame, err := protocol.Encode(t, data)
	if err != nil {
		return err
	}
	return w.WritePacket(frame)
}
