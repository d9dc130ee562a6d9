package protocol

import (
	"fmt"
	"time"

	"github.com/gridhold/gridhold-backend/internal/entity"
)

// Outbound event encoders. Each returns one protocol line without the
// trailing newline; transports add their own framing.

func IDAndColor(id int, color entity.Color) string {
	return fmt.Sprintf("id_and_color,%d,%d,%d,%d", id, color.R, color.G, color.B)
}

func PlayerColor(id int, color entity.Color) string {
	return fmt.Sprintf("player_color,%d,%d,%d,%d", id, color.R, color.G, color.B)
}

func PlayerName(id int, name string) string {
	return fmt.Sprintf("player_name,%d,%s", id, name)
}

func StartTime(deadline time.Time) string {
	return "start_time," + epoch(deadline)
}

func HoldStatus(row, col, id int, startedAt time.Time) string {
	return fmt.Sprintf("hold_status,%d,%d,%d,%s", row, col, id, epoch(startedAt))
}

func Claim(row, col, id int, color entity.Color) string {
	return fmt.Sprintf("claim,%d,%d,%d,%d,%d,%d", row, col, id, color.R, color.G, color.B)
}

func Void(row, col int) string {
	return fmt.Sprintf("void,%d,%d", row, col)
}

func PlayerScore(id, score int) string {
	return fmt.Sprintf("player_score,%d,%d", id, score)
}

func PlayerWon(id int, name string) string {
	return fmt.Sprintf("player_won,%d,%s", id, name)
}
