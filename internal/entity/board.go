package entity

// NoPlayer marks a cell slot with no player assigned.
const NoPlayer = -1

// Cell is one square of the grid. At most one of Owner/Locker is set at any
// instant: a locked cell is mid-hold, an owned cell is terminal.
type Cell struct {
	Owner  int
	Locker int
}

func (that *Cell) IsFree() bool {
	return that.Owner == NoPlayer && that.Locker == NoPlayer
}

func (that *Cell) IsOwned() bool {
	return that.Owner != NoPlayer
}

func (that *Cell) IsLockedBy(player int) bool {
	return that.Locker == player
}

// Lock marks the cell as mid-hold by the given player.
func (that *Cell) Lock(player int) {
	that.Locker = player
}

// Unlock clears an in-progress hold without granting ownership.
func (that *Cell) Unlock() {
	that.Locker = NoPlayer
}

// Claim grants the cell to the given player. Ownership is terminal: a
// claimed cell is never released.
func (that *Cell) Claim(player int) {
	that.Owner = player
	that.Locker = NoPlayer
}

// Board is the fixed-size grid of cells plus a running count of claimed
// cells. It carries no synchronization of its own; callers serialize access
// per cell.
type Board struct {
	Size    int
	Cells   [][]Cell
	claimed int
}

func NewBoard(size int) *Board {
	cells := make([][]Cell, size)
	for row := range cells {
		cells[row] = make([]Cell, size)
		for col := range cells[row] {
			cells[row][col] = Cell{Owner: NoPlayer, Locker: NoPlayer}
		}
	}

	return &Board{
		Size:  size,
		Cells: cells,
	}
}

func (that *Board) Cell(row, col int) *Cell {
	return &that.Cells[row][col]
}

func (that *Board) InBounds(row, col int) bool {
	return row >= 0 && row < that.Size && col >= 0 && col < that.Size
}

func (that *Board) TotalCells() int {
	return that.Size * that.Size
}

// MarkClaimed bumps the claimed-cell counter after a successful claim.
func (that *Board) MarkClaimed() {
	that.claimed++
}

func (that *Board) ClaimedCells() int {
	return that.claimed
}

func (that *Board) IsFull() bool {
	return that.claimed == that.TotalCells()
}

// MajorityScore is the score a player must exceed to win outright.
func (that *Board) MajorityScore() int {
	return that.TotalCells() / 2
}
