package game

import (
	"time"

	"github.com/burbokop/fast-pased-mp-game/geom"
)

// WeaponKind identifies a selectable character weapon.
type WeaponKind string

const (
	WeaponBallGun  WeaponKind = "ball_gun"
	WeaponPulseGun WeaponKind = "pulse_gun"
	WeaponRayGun   WeaponKind = "ray_gun"
	WeaponShield   WeaponKind = "shield"
	WeaponMineGun  WeaponKind = "mine_gun"
)

// WeaponKinds lists every selectable weapon in menu order.
var WeaponKinds = []WeaponKind{
	WeaponBallGun,
	WeaponPulseGun,
	WeaponRayGun,
	WeaponShield,
	WeaponMineGun,
}

// ProjectileKind identifies the behavior family of a projectile.
type ProjectileKind string

const (
	ProjectileBall ProjectileKind = "ball"
	ProjectileRay  ProjectileKind = "ray"
	ProjectileMine ProjectileKind = "mine"
)

// ProjectileSpec carries the tuning of one projectile kind. Only the
// fields meaningful for the kind are set; mines nest the spec of the
// debris they burst into.
type ProjectileSpec struct {
	Kind               ProjectileKind  `json:"kind"`
	Life               time.Duration   `json:"life"`
	OwnerInvincibility time.Duration   `json:"invinc"`
	Velocity           float64         `json:"vel"`
	Health             int             `json:"hp,omitempty"`
	Radius             float64         `json:"radius,omitempty"`
	TailFreeze         time.Duration   `json:"freeze,omitempty"`
	Activation         time.Duration   `json:"act,omitempty"`
	Acceleration       float64         `json:"accel,omitempty"`
	DetectionRadius    float64         `json:"detect,omitempty"`
	ExplosionRadius    float64         `json:"explode,omitempty"`
	DebrisCount        int             `json:"debris_count,omitempty"`
	Debris             *ProjectileSpec `json:"debris,omitempty"`
}

// ShieldSpec is the barrier geometry of the shield weapon plus the
// timeout after which holding the fire button detonates the wielder.
type ShieldSpec struct {
	Width            float64       `json:"width"`
	DstFromCharacter float64       `json:"dst"`
	SelfDestruct     time.Duration `json:"self_destruct"`
}

// Segment places the shield in front of a character: a bar of the
// configured width held perpendicular to the facing direction at the
// configured distance.
func (s ShieldSpec) Segment(pos geom.Point, rot geom.Complex) geom.Segment {
	c := pos.Add(geom.Polar(rot, s.DstFromCharacter))
	half := s.Width / 2
	return geom.Segment{
		P0: c.Add(geom.Polar(rot.Mul(geom.Complex{R: 0, I: -1}), half)),
		P1: c.Add(geom.Polar(rot.Mul(geom.Complex{R: 0, I: 1}), half)),
	}
}

// Weapon is the armament configuration attached to a character entity.
// Gun weapons describe the projectile they emit; the shield weapon
// carries barrier geometry instead.
type Weapon struct {
	Kind         WeaponKind      `json:"kind"`
	FireInterval time.Duration   `json:"fire,omitempty"`
	Projectile   *ProjectileSpec `json:"proj,omitempty"`
	Shield       *ShieldSpec     `json:"shield,omitempty"`
}

// WeaponForKind builds a fresh weapon configuration. The pulse gun and
// ray gun share the ray projectile family with different tuning: pulse
// shots are slow short bursts, ray shots are near-instant piercing
// beams with a long lingering tail.
func WeaponForKind(kind WeaponKind) Weapon {
	switch kind {
	case WeaponBallGun:
		return Weapon{
			Kind:         WeaponBallGun,
			FireInterval: 1000 / 10 * time.Millisecond,
			Projectile: &ProjectileSpec{
				Kind:               ProjectileBall,
				Life:               60 * time.Second,
				OwnerInvincibility: 200 * time.Millisecond,
				Velocity:           200,
				Health:             1,
				Radius:             4,
			},
		}
	case WeaponPulseGun:
		return Weapon{
			Kind:         WeaponPulseGun,
			FireInterval: 1000 * time.Millisecond,
			Projectile: &ProjectileSpec{
				Kind:               ProjectileRay,
				Life:               4000 * time.Millisecond,
				OwnerInvincibility: 500 * time.Millisecond,
				TailFreeze:         100 * time.Millisecond,
				Velocity:           1000,
				Health:             1,
			},
		}
	case WeaponRayGun:
		return Weapon{
			Kind:         WeaponRayGun,
			FireInterval: 2000 * time.Millisecond,
			Projectile: &ProjectileSpec{
				Kind:               ProjectileRay,
				Life:               1000 * time.Millisecond,
				OwnerInvincibility: 500 * time.Millisecond,
				TailFreeze:         1000 * time.Millisecond,
				Velocity:           2000,
				Health:             16,
			},
		}
	case WeaponShield:
		return Weapon{
			Kind: WeaponShield,
			Shield: &ShieldSpec{
				Width:            48,
				DstFromCharacter: 32,
				SelfDestruct:     2 * time.Second,
			},
		}
	case WeaponMineGun:
		return Weapon{
			Kind:         WeaponMineGun,
			FireInterval: 8 * time.Second,
			Projectile: &ProjectileSpec{
				Kind:               ProjectileMine,
				Life:               32 * time.Second,
				OwnerInvincibility: 1000 * time.Second,
				Activation:         2 * time.Second,
				Velocity:           500,
				Acceleration:       -100,
				Radius:             6,
				DetectionRadius:    200,
				ExplosionRadius:    100,
				DebrisCount:        6,
				Debris: &ProjectileSpec{
					Kind:               ProjectileMine,
					Life:               16 * time.Second,
					OwnerInvincibility: 2 * time.Second,
					Activation:         1 * time.Second,
					Velocity:           500,
					Acceleration:       -100,
					Radius:             4,
					DetectionRadius:    100,
					ExplosionRadius:    50,
					DebrisCount:        12,
					Debris: &ProjectileSpec{
						Kind:               ProjectileRay,
						Life:               4000 * time.Millisecond,
						OwnerInvincibility: 500 * time.Millisecond,
						TailFreeze:         100 * time.Millisecond,
						Velocity:           200,
						Health:             1,
					},
				},
			},
		}
	default:
		panic("game: unknown weapon kind " + string(kind))
	}
}
