package apperror

import "errors"

var (
	ErrGameNotStarted = errors.New("game is not started")
	ErrGameFinished   = errors.New("game is already finished")
	ErrCellOccupied   = errors.New("cell is already owned or locked")
	ErrNotCellLocker  = errors.New("player is not the cell locker")
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrJoinAfterStart = errors.New("game already started, no new players")
)
