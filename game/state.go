package game

import (
	"math/rand"
	"time"

	"github.com/burbokop/fast-pased-mp-game/geom"
)

// PlayerState is the per-connection session view sent along with every
// broadcast: the color the player joined with and whether the character
// is currently dead and awaiting a respawn request.
type PlayerState struct {
	Color  Color `json:"color"`
	Killed bool  `json:"killed"`
}

// Frag records one lethal hit for the stats log.
type Frag struct {
	KillerID uint64
	VictimID uint64
	Weapon   ProjectileKind
	At       time.Time
}

// State is the authoritative world: every entity, the playfield bounds
// and the queue of ids condemned this tick. The kills queue is how the
// simulation hands character deaths over to the connection handlers.
type State struct {
	Entities     []Entity  `json:"entities"`
	WorldBounds  geom.Rect `json:"bounds"`
	NextEntityID uint32    `json:"next_id"`
	Kills        []uint32  `json:"kills"`

	frags []Frag
}

func NewState() *State {
	return &State{
		WorldBounds: geom.Rect{X: 32, Y: 48, W: 736, H: 536},
	}
}

// CreateInfo describes an entity to materialize. Exactly one of Weapon
// and Proj must be set.
type CreateInfo struct {
	Pos    geom.Point
	Rot    geom.Complex
	Color  Color
	Weapon *Weapon
	Proj   *ProjectileSpec
	Tail   *Tail
}

// Create materializes an entity, assigning it the next id and its
// kind's starting health. Mines spawn with zero health: they never take
// damage, they detonate.
func (s *State) Create(info CreateInfo, playerID uint64, now time.Time) uint32 {
	health := characterHealth
	velocity := 0.0
	if info.Proj != nil {
		velocity = info.Proj.Velocity
		switch info.Proj.Kind {
		case ProjectileMine:
			health = 0
		default:
			health = info.Proj.Health
		}
	}
	id := s.NextEntityID
	s.Entities = append(s.Entities, Entity{
		ID:       id,
		PlayerID: playerID,
		Pos:      info.Pos,
		Rot:      info.Rot,
		Color:    info.Color,
		Health:   health,
		Velocity: velocity,
		Weapon:   info.Weapon,
		Proj:     info.Proj,
		Tail:     info.Tail,
		Born:     now,
	})
	s.NextEntityID++
	return id
}

// RandomPointInside picks a uniform random point within the world
// bounds, used for character spawns.
func (s *State) RandomPointInside() geom.Point {
	return geom.Point{
		X: s.WorldBounds.X + rand.Float64()*s.WorldBounds.W,
		Y: s.WorldBounds.Y + rand.Float64()*s.WorldBounds.H,
	}
}

// FindCharacter returns the character entity owned by the player, or
// nil. The pointer is only valid until the entity slice next changes.
func (s *State) FindCharacter(playerID uint64) *Entity {
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.IsCharacter() && e.PlayerID == playerID {
			return e
		}
	}
	return nil
}

// FindByID returns a copy of the entity with the given id.
func (s *State) FindByID(id uint32) (Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].ID == id {
			return s.Entities[i], true
		}
	}
	return Entity{}, false
}

// AddOrReplace stores the entity, replacing any existing entity with
// the same id.
func (s *State) AddOrReplace(e Entity) {
	for i := range s.Entities {
		if s.Entities[i].ID == e.ID {
			s.Entities[i] = e
			return
		}
	}
	s.Entities = append(s.Entities, e)
}

// AddOrReplaceCharacter stores the entity in place of the player's
// current character, or appends it when the player has none.
func (s *State) AddOrReplaceCharacter(playerID uint64, e Entity) {
	if c := s.FindCharacter(playerID); c != nil {
		*c = e
		return
	}
	s.Entities = append(s.Entities, e)
}

// RegisterKill queues an entity for removal. Queuing the same id twice
// is a logic bug and panics.
func (s *State) RegisterKill(id uint32) {
	if s.killIndex(id) >= 0 {
		panic("game: kill already registered")
	}
	s.Kills = append(s.Kills, id)
}

// AccountKill removes the player's character if it has been condemned,
// consuming the kill record. It reports whether a removal happened; on
// true the caller owns the session-side consequences.
func (s *State) AccountKill(playerID uint64) bool {
	for i := range s.Entities {
		e := &s.Entities[i]
		if !e.IsCharacter() || e.PlayerID != playerID {
			continue
		}
		idx := s.killIndex(e.ID)
		if idx < 0 {
			continue
		}
		s.Kills = append(s.Kills[:idx], s.Kills[idx+1:]...)
		s.Entities = append(s.Entities[:i], s.Entities[i+1:]...)
		return true
	}
	return false
}

func (s *State) killIndex(id uint32) int {
	for i, k := range s.Kills {
		if k == id {
			return i
		}
	}
	return -1
}

// RemovePlayer drops the player's character when its connection goes
// away, consuming any kill record still pending for it.
func (s *State) RemovePlayer(playerID uint64) {
	for i := range s.Entities {
		e := &s.Entities[i]
		if !e.IsCharacter() || e.PlayerID != playerID {
			continue
		}
		if idx := s.killIndex(e.ID); idx >= 0 {
			s.Kills = append(s.Kills[:idx], s.Kills[idx+1:]...)
		}
		s.Entities = append(s.Entities[:i], s.Entities[i+1:]...)
		return
	}
}

// DrainFrags hands out the lethal hits recorded since the last drain.
func (s *State) DrainFrags() []Frag {
	f := s.frags
	s.frags = nil
	return f
}

// Clone deep-copies the state so the copy can be read or serialized
// without holding the lock that guards the original.
func (s *State) Clone() *State {
	c := *s
	c.Entities = make([]Entity, len(s.Entities))
	for i, e := range s.Entities {
		c.Entities[i] = e.clone()
	}
	c.Kills = append([]uint32(nil), s.Kills...)
	c.frags = nil
	return &c
}

// CorrectCharacter pushes a character's box back inside the world and
// off other players' shields after a movement, edge by edge.
func (s *State) CorrectCharacter(e *Entity) {
	for _, edge := range s.WorldBounds.Edges() {
		verts := e.Vertices()
		if exit, ok := geom.Collide(verts[:], []geom.Point{edge.P0, edge.P1}); ok {
			e.Pos = e.Pos.Add(exit)
		}
	}
	for _, sh := range s.shieldSegments(e.PlayerID) {
		verts := e.Vertices()
		if exit, ok := geom.Collide(verts[:], []geom.Point{sh.P0, sh.P1}); ok {
			e.Pos = e.Pos.Add(exit)
		}
	}
}

// shieldSegments collects the barrier segment of every character
// currently wielding a shield, skipping the given player.
func (s *State) shieldSegments(exceptPlayerID uint64) []geom.Segment {
	var segs []geom.Segment
	for i := range s.Entities {
		e := &s.Entities[i]
		if !e.IsCharacter() || e.PlayerID == exceptPlayerID {
			continue
		}
		if e.Weapon.Shield != nil {
			segs = append(segs, e.Weapon.Shield.Segment(e.Pos, e.Rot))
		}
	}
	return segs
}

// LerpMerge blends the entities of two snapshots into result: for every
// entity in b (except those owned by the ignored player), interpolate
// from its counterpart in a when one exists, otherwise take it as is.
// Entities only present in result are left untouched.
func LerpMerge(result, a, b *State, t float64, ignorePlayerID uint64) {
	for _, eb := range b.Entities {
		if eb.PlayerID == ignorePlayerID {
			continue
		}
		if ea, ok := a.FindByID(eb.ID); ok {
			result.AddOrReplace(ea.Lerp(eb, t))
		} else {
			result.AddOrReplace(eb)
		}
	}
}
