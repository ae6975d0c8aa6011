// Package client implements the network side of a player: dialing and
// handshake, local movement prediction, reconciliation against server
// broadcasts and the interpolated view handed to the renderer.
package client

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/burbokop/fast-pased-mp-game/game"
	"github.com/burbokop/fast-pased-mp-game/geom"
	"github.com/burbokop/fast-pased-mp-game/packet"
	"github.com/burbokop/fast-pased-mp-game/protocol"
)

const (
	pollWindow       = time.Millisecond
	handshakeTimeout = 5 * time.Second
)

// GameStateQueue holds the three snapshots driving the rendered world:
// what we predict right now and the last two server broadcasts to
// interpolate the others between.
type GameStateQueue struct {
	Prediction          *game.State
	LastReceived        *game.State
	PenultimateReceived *game.State
}

// Input is one frame of local intent, as deltas: Movement is applied on
// top of the current position, Rotation replaces the facing.
type Input struct {
	Movement geom.Vector
	Rotation geom.Complex
	Fire     bool
}

// Client talks to one server and owns the predicted world.
type Client struct {
	conn net.Conn
	r    *packet.Reader
	w    *packet.Writer

	PlayerID uint64
	color    game.Color

	queue  GameStateQueue
	seq    uint32 // highest sequence number sent
	killed bool

	lastRot  geom.Complex
	lastFire bool

	lastBroadcastAt time.Time
	prevInterval    time.Duration
}

// Dial connects, waits for the server's init and announces the player
// with a random color.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := newClient(conn)
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(conn net.Conn) *Client {
	return &Client{
		conn:  conn,
		r:     packet.NewReader(conn),
		w:     packet.NewWriter(conn),
		color: game.RandomColor(),
	}
}

func (c *Client) Close() error { return c.conn.Close() }

// Color returns the color this player announced on join.
func (c *Client) Color() game.Color { return c.color }

// Killed reports whether the player is currently dead and waiting to
// respawn.
func (c *Client) Killed() bool { return c.killed }

func (c *Client) handshake() error {
	deadline := time.Now().Add(handshakeTimeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("handshake timeout")
		}
		c.conn.SetReadDeadline(deadline)
		if err := c.r.Poll(); err != nil {
			return err
		}
		frame, ok := c.r.Next()
		if !ok {
			if c.r.Closed() {
				return fmt.Errorf("server closed during handshake")
			}
			continue
		}
		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			return fmt.Errorf("decode handshake: %w", err)
		}
		if env.T != protocol.MsgInit {
			return fmt.Errorf("expected init, got %q", env.T)
		}
		var msg protocol.InitMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return fmt.Errorf("decode init: %w", err)
		}
		c.PlayerID = msg.PlayerID
		break
	}
	return c.sendMsg(protocol.MsgJoin, protocol.JoinMsg{Color: c.color})
}

// Poll ingests everything the server has sent so far. Call once per
// frame; it waits at most a millisecond when nothing is pending.
func (c *Client) Poll(now time.Time) error {
	c.conn.SetReadDeadline(now.Add(pollWindow))
	if err := c.r.Poll(); err != nil {
		return err
	}
	for {
		frame, ok := c.r.Next()
		if !ok {
			break
		}
		if err := c.handleFrame(frame, now); err != nil {
			return err
		}
	}
	if c.r.Closed() {
		return fmt.Errorf("server closed the connection")
	}
	return nil
}

func (c *Client) handleFrame(frame []byte, now time.Time) error {
	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		return fmt.Errorf("decode server frame: %w", err)
	}
	switch env.T {
	case protocol.MsgBroadcast:
		var msg protocol.BroadcastMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			return fmt.Errorf("decode broadcast: %w", err)
		}
		c.applyBroadcast(msg, now)
	case protocol.MsgKill:
		c.killed = true
	default:
		return fmt.Errorf("unexpected server message %q", env.T)
	}
	return nil
}

// applyBroadcast installs a fresh snapshot. If the server has not yet
// caught up to inputs we already applied locally, our own predicted
// entity is spliced back in so the local player never snaps backward.
func (c *Client) applyBroadcast(msg protocol.BroadcastMsg, now time.Time) {
	var saved *game.Entity
	if p := c.queue.Prediction; p != nil {
		if ch := p.FindCharacter(c.PlayerID); ch != nil {
			cp := *ch
			saved = &cp
		}
	}

	c.queue.PenultimateReceived = c.queue.LastReceived
	c.queue.LastReceived = msg.GameState
	c.queue.Prediction = msg.GameState.Clone()
	c.killed = msg.PlayerState.Killed

	if saved != nil && msg.SequenceNumber < c.seq && !c.killed {
		c.queue.Prediction.AddOrReplaceCharacter(c.PlayerID, *saved)
	}

	if !c.lastBroadcastAt.IsZero() {
		c.prevInterval = now.Sub(c.lastBroadcastAt)
	}
	c.lastBroadcastAt = now
}

// ApplyInput predicts the effect of one frame of input locally and
// reports it to the server. Frames with nothing new are not sent.
func (c *Client) ApplyInput(in Input) error {
	moved := in.Movement != (geom.Vector{})
	if !moved && in.Rotation == c.lastRot && in.Fire == c.lastFire {
		return nil
	}
	c.lastRot = in.Rotation
	c.lastFire = in.Fire

	if p := c.queue.Prediction; p != nil {
		if ch := p.FindCharacter(c.PlayerID); ch != nil {
			ch.Pos = ch.Pos.Add(in.Movement)
			ch.Rot = in.Rotation
			p.CorrectCharacter(ch)
		}
	}

	c.seq++
	return c.sendMsg(protocol.MsgInput, protocol.InputMsg{
		SequenceNumber:   c.seq,
		Movement:         in.Movement,
		Rotation:         in.Rotation,
		LeftMousePressed: in.Fire,
	})
}

// Respawn asks for a new life with the chosen weapon. Ignored while the
// player is still alive.
func (c *Client) Respawn(kind game.WeaponKind) error {
	if !c.killed {
		return nil
	}
	c.killed = false
	return c.sendMsg(protocol.MsgRespawn, protocol.RespawnMsg{Weapon: kind})
}

// View returns the state to draw this frame: our own entity at full
// prediction fidelity, everyone else interpolated between the last two
// broadcasts by how far we are into the current broadcast gap.
func (c *Client) View(now time.Time) *game.State {
	p := c.queue.Prediction
	if p == nil {
		return nil
	}
	if c.queue.PenultimateReceived != nil && c.queue.LastReceived != nil && c.prevInterval > 0 {
		t := float64(now.Sub(c.lastBroadcastAt)) / float64(c.prevInterval)
		game.LerpMerge(p, c.queue.PenultimateReceived, c.queue.LastReceived, t, c.PlayerID)
	}
	return p
}

func (c *Client) sendMsg(t string, data interface{}) error {
	frame, err := protocol.Encode(t, data)
	if err != nil {
		return err
	}
	return c.w.WritePacket(frame)
}
