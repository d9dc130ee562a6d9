package entity

import "fmt"

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// FallbackColor is handed out when the palette runs dry. It is never
// returned to the pool.
var FallbackColor = Color{R: 0, G: 0, B: 0}

// DefaultPalette returns the reference four-color palette.
func DefaultPalette() []Color {
	return []Color{
		{R: 255, G: 0, B: 0},
		{R: 0, G: 255, B: 0},
		{R: 0, G: 0, B: 255},
		{R: 255, G: 255, B: 0},
	}
}

// Player is one connected participant. IDs are arrival ordinals and are
// never reused after a disconnect.
type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// DisplayName returns the handshake name, or the "P<id>" default when the
// player never sent one.
func (that *Player) DisplayName() string {
	if that.Name == "" {
		return fmt.Sprintf("P%d", that.ID)
	}

	return that.Name
}
