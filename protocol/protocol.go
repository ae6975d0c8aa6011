// Package protocol defines the JSON messages exchanged between client
// and server inside length-prefixed frames. Every message is an
// envelope with a type tag and a payload.
package protocol

import (
	"encoding/json"

	"github.com/burbokop/fast-pased-mp-game/game"
	"github.com/burbokop/fast-pased-mp-game/geom"
)

// Server -> client message types
const (
	MsgInit      = "init"
	MsgBroadcast = "broadcast"
	MsgKill      = "kill"
)

// Client -> server message types
const (
	MsgJoin    = "join"
	MsgInput   = "input"
	MsgRespawn = "respawn"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is the receiving side of Envelope. The payload stays raw
// until the type tag has picked a concrete message to decode into.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InitMsg is the first message on a fresh connection and assigns the
// player id used for entity ownership.
type InitMsg struct {
	PlayerID uint64 `json:"pid"`
}

// BroadcastMsg carries a full world snapshot plus the session view of
// the receiving player. The sequence number echoes the latest input the
// server has applied for that player.
type BroadcastMsg struct {
	SequenceNumber uint32           `json:"seq"`
	GameState      *game.State      `json:"state"`
	PlayerState    game.PlayerState `json:"player"`
}

// KillMsg tells the client its character died and a respawn request is
// now expected.
type KillMsg struct{}

// JoinMsg must be the first client message after Init.
type JoinMsg struct {
	Color game.Color `json:"color"`
}

// InputMsg reports a movement delta, the current facing and the fire
// button level for one client frame.
type InputMsg struct {
	SequenceNumber   uint32       `json:"seq"`
	Movement         geom.Vector  `json:"mov"`
	Rotation         geom.Complex `json:"rot"`
	LeftMousePressed bool         `json:"fire"`
}

// RespawnMsg picks the weapon for the next life. Only valid while the
// player is dead.
type RespawnMsg struct {
	Weapon game.WeaponKind `json:"weapon"`
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(t string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{T: t, Data: data})
}

// DecodeEnvelope splits a frame into its type tag and raw payload.
func DecodeEnvelope(frame []byte) (InEnvelope, error) {
	var env InEnvelope
	err := json.Unmarshal(frame, &env)
	return env, err
}
