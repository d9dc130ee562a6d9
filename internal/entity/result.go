package entity

import "time"

// Winner is one entry of a match's final winner set. Ties on a full board
// produce more than one.
type Winner struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// MatchResult is the archived outcome of a finished match.
type MatchResult struct {
	ID           string      `json:"id"`
	FinishedAt   time.Time   `json:"finished_at"`
	Winners      []Winner    `json:"winners"`
	Scores       map[int]int `json:"scores"`
	ClaimedCells int         `json:"claimed_cells"`
}
