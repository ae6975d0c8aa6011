package game

import "math/rand"

// Color is an ARGB color picked by the player at join time. Everything
// a player fires inherits it.
type Color struct {
	A uint8 `json:"a"`
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RandomColor returns a fully opaque color with random channels.
func RandomColor() Color {
	return Color{
		A: 255,
		R: uint8(rand.Intn(256)),
		G: uint8(rand.Intn(256)),
		B: uint8(rand.Intn(256)),
	}
}
