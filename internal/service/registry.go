package service

import (
	"sync"

	"github.com/gridhold/gridhold-backend/internal/entity"
)

// Registry owns the roster of connected players: ordinal ids, display
// names, and the color pool. Transport handles live in the dispatcher,
// keyed by the same ids.
type Registry struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*entity.Player
	palette []entity.Color
	used    map[entity.Color]bool
}

func NewRegistry(palette []entity.Color) *Registry {
	return &Registry{
		players: make(map[int]*entity.Player),
		palette: palette,
		used:    make(map[entity.Color]bool),
	}
}

// Join creates a player with the next ordinal id and the first free palette
// color. When the palette is exhausted the fallback color is assigned
// instead; that is a soft degradation, not an error.
func (that *Registry) Join() *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := &entity.Player{
		ID:    that.nextID,
		Color: that.takeColor(),
	}
	that.nextID++
	that.players[player.ID] = player

	return player
}

// Leave removes the player and returns its color to the pool. Ids are
// never reused.
func (that *Registry) Leave(id int) (entity.Player, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return entity.Player{}, false
	}

	delete(that.players, id)
	if player.Color != entity.FallbackColor {
		delete(that.used, player.Color)
	}

	return *player, true
}

func (that *Registry) SetName(id int, name string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return false
	}

	player.Name = name

	return true
}

// Get returns a copy of the player record.
func (that *Registry) Get(id int) (entity.Player, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return entity.Player{}, false
	}

	return *player, true
}

func (that *Registry) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.players)
}

// Others returns copies of every player except the given one, ordered by
// id. Used to replay existing assignments to a late joiner.
func (that *Registry) Others(exclude int) []entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	others := make([]entity.Player, 0, len(that.players))
	for id := 0; id < that.nextID; id++ {
		if id == exclude {
			continue
		}
		if player, ok := that.players[id]; ok {
			others = append(others, *player)
		}
	}

	return others
}

// takeColor picks the first palette color not in use, in palette order.
// Callers must hold the registry lock.
func (that *Registry) takeColor() entity.Color {
	for _, color := range that.palette {
		if !that.used[color] {
			that.used[color] = true
			return color
		}
	}

	return entity.FallbackColor
}
