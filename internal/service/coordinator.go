package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gridhold/gridhold-backend/internal/apperror"
	"github.com/gridhold/gridhold-backend/internal/config"
	"github.com/gridhold/gridhold-backend/internal/entity"
	"github.com/gridhold/gridhold-backend/internal/protocol"
)

const archiveTimeout = 5 * time.Second

type broadcaster interface {
	Attach(id int, sender Sender)
	Detach(id int)
	Broadcast(line string)
	SendTo(id int, line string)
}

type resultArchive interface {
	Save(ctx context.Context, result *entity.MatchResult) error
}

// Status is the operational snapshot served by the HTTP status endpoint.
type Status struct {
	Phase        string      `json:"phase"`
	Players      int         `json:"players"`
	ClaimedCells int         `json:"claimed_cells"`
	TotalCells   int         `json:"total_cells"`
	Scores       map[int]int `json:"scores"`
}

// Coordinator is the claim state machine. Per-cell mutexes serialize the
// read-modify-write of each cell's owner/locker, and one aggregate mutex
// guards the score map plus the win check-and-set. Broadcast events for a
// cell are queued while its lock is held, so all clients observe the same
// per-cell order; the actual sends happen on dispatcher goroutines.
type Coordinator struct {
	logger *slog.Logger
	conf   config.Game

	session     *Session
	registry    *Registry
	broadcaster broadcaster
	results     resultArchive

	board *entity.Board
	locks [][]sync.Mutex
	// heldSince records the server-observed hold-start per cell, guarded by
	// that cell's lock.
	heldSince [][]time.Time

	// mu is the aggregate exclusion: scores, claimed count, win evaluation.
	mu     sync.Mutex
	scores map[int]int

	minHold float64
}

func NewCoordinator(
	logger *slog.Logger,
	conf config.Game,
	session *Session,
	registry *Registry,
	broadcaster broadcaster,
	results resultArchive,
) *Coordinator {
	locks := make([][]sync.Mutex, conf.BoardSize)
	heldSince := make([][]time.Time, conf.BoardSize)
	for row := range locks {
		locks[row] = make([]sync.Mutex, conf.BoardSize)
		heldSince[row] = make([]time.Time, conf.BoardSize)
	}

	return &Coordinator{
		logger:      logger.With("component", "coordinator"),
		conf:        conf,
		session:     session,
		registry:    registry,
		broadcaster: broadcaster,
		results:     results,
		board:       entity.NewBoard(conf.BoardSize),
		locks:       locks,
		heldSince:   heldSince,
		scores:      make(map[int]int),
		minHold:     conf.MinHoldSeconds(),
	}
}

func (that *Coordinator) BoardSize() int {
	return that.conf.BoardSize
}

// Join registers a new connection: ordinal id, palette color, broadcast of
// the assignment, and a replay of every earlier player's identity so the
// newcomer sees the full roster before its first claim.
func (that *Coordinator) Join(sender Sender) (*entity.Player, error) {
	if phase := that.session.Phase(); phase != PhaseWaiting && phase != PhaseCountdown {
		return nil, apperror.ErrJoinAfterStart
	}

	player := that.registry.Join()

	that.mu.Lock()
	that.scores[player.ID] = 0
	that.mu.Unlock()

	that.broadcaster.Attach(player.ID, sender)
	that.broadcaster.SendTo(player.ID, protocol.IDAndColor(player.ID, player.Color))

	for _, other := range that.registry.Others(player.ID) {
		that.broadcaster.SendTo(player.ID, protocol.PlayerColor(other.ID, other.Color))
		if other.Name != "" {
			that.broadcaster.SendTo(player.ID, protocol.PlayerName(other.ID, other.Name))
		}
	}

	that.broadcaster.Broadcast(protocol.PlayerColor(player.ID, player.Color))

	that.logger.Info("player joined", "id", player.ID)

	that.maybeArmCountdown()

	return player, nil
}

// Leave tears the player down: color back to the pool, out of the roster
// and score map. A cell the player was still holding stays locked; there is
// no hold timeout.
func (that *Coordinator) Leave(id int) {
	that.broadcaster.Detach(id)

	if _, ok := that.registry.Leave(id); !ok {
		return
	}

	that.mu.Lock()
	delete(that.scores, id)
	that.mu.Unlock()

	that.logger.Info("player left", "id", id)
}

// SetName handles the name handshake. Accepted in any phase.
func (that *Coordinator) SetName(id int, name string) error {
	name = sanitizeName(name)
	if name == "" {
		return apperror.ErrUnknownPlayer
	}

	if !that.registry.SetName(id, name) {
		return apperror.ErrUnknownPlayer
	}

	that.broadcaster.Broadcast(protocol.PlayerName(id, name))

	return nil
}

// HoldStart begins a claim attempt. Only the first request to observe a
// free cell wins; everything else is reported as a state conflict for the
// transport to drop silently.
func (that *Coordinator) HoldStart(id, row, col int) error {
	if err := that.confirmRunning(); err != nil {
		return err
	}

	lock := &that.locks[row][col]
	lock.Lock()
	defer lock.Unlock()

	cell := that.board.Cell(row, col)
	if !cell.IsFree() {
		return apperror.ErrCellOccupied
	}

	cell.Lock(id)
	startedAt := time.Now()
	that.heldSince[row][col] = startedAt

	// Queued under the cell lock so per-cell event order matches state order.
	that.broadcaster.Broadcast(protocol.HoldStatus(row, col, id, startedAt))

	return nil
}

// HoldEnd resolves a claim attempt with the client-measured hold duration.
// The duration is trusted up to the threshold check; that is the contract,
// not an oversight.
func (that *Coordinator) HoldEnd(id, row, col int, duration float64) error {
	if err := that.confirmRunning(); err != nil {
		return err
	}

	lock := &that.locks[row][col]
	lock.Lock()

	cell := that.board.Cell(row, col)
	if !cell.IsLockedBy(id) {
		lock.Unlock()
		return apperror.ErrNotCellLocker
	}

	that.heldSince[row][col] = time.Time{}

	if duration < that.minHold {
		cell.Unlock()
		that.broadcaster.Broadcast(protocol.Void(row, col))
		lock.Unlock()
		return nil
	}

	cell.Claim(id)
	player, _ := that.registry.Get(id)
	that.broadcaster.Broadcast(protocol.Claim(row, col, id, player.Color))
	lock.Unlock()

	that.recordClaim(id)

	return nil
}

// Snapshot reports the current phase, roster size, and tallies.
func (that *Coordinator) Snapshot() Status {
	that.mu.Lock()
	scores := make(map[int]int, len(that.scores))
	for id, score := range that.scores {
		scores[id] = score
	}
	claimed := that.board.ClaimedCells()
	that.mu.Unlock()

	return Status{
		Phase:        that.session.Phase(),
		Players:      that.registry.Count(),
		ClaimedCells: claimed,
		TotalCells:   that.board.TotalCells(),
		Scores:       scores,
	}
}

func (that *Coordinator) confirmRunning() error {
	switch that.session.Phase() {
	case PhaseRunning:
		return nil
	case PhaseWon:
		return apperror.ErrGameFinished
	default:
		return apperror.ErrGameNotStarted
	}
}

// maybeArmCountdown arms the start gate the first time the roster reaches
// quorum. The countdown runs on a single timer; it fires regardless of how
// many players remain at the deadline.
func (that *Coordinator) maybeArmCountdown() {
	if that.registry.Count() < that.conf.StartQuorum {
		return
	}

	deadline := time.Now().Add(that.conf.Countdown())
	if !that.session.Arm(deadline) {
		return
	}

	that.broadcaster.Broadcast(protocol.StartTime(deadline))
	that.logger.Info("countdown armed", "deadline", deadline)

	time.AfterFunc(that.conf.Countdown(), func() {
		if that.session.Start() {
			that.logger.Info("game started", "players", that.registry.Count())
		}
	})
}

// recordClaim runs under the aggregate lock: bump the score, update the
// claimed count, and evaluate the win rules exactly once.
func (that *Coordinator) recordClaim(id int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.scores[id]++
	that.board.MarkClaimed()

	that.broadcaster.Broadcast(protocol.PlayerScore(id, that.scores[id]))

	winners := that.evaluateWinners()
	if len(winners) == 0 {
		return
	}

	if !that.session.MarkWon() {
		return
	}

	for _, winner := range winners {
		that.broadcaster.Broadcast(protocol.PlayerWon(winner.ID, winner.Name))
	}

	that.logger.Info("game won", "winners", len(winners))

	that.archiveResult(winners)
}

// evaluateWinners applies the win rules in order: outright majority first,
// then the full-board tiebreak. Callers must hold the aggregate lock.
func (that *Coordinator) evaluateWinners() []entity.Winner {
	majority := that.board.MajorityScore()
	for id, score := range that.scores {
		if score > majority {
			return []entity.Winner{that.winnerRecord(id, score)}
		}
	}

	if !that.board.IsFull() {
		return nil
	}

	maxScore := 0
	for _, score := range that.scores {
		if score > maxScore {
			maxScore = score
		}
	}

	ids := make([]int, 0, len(that.scores))
	for id, score := range that.scores {
		if score == maxScore {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	winners := make([]entity.Winner, 0, len(ids))
	for _, id := range ids {
		winners = append(winners, that.winnerRecord(id, maxScore))
	}

	return winners
}

func (that *Coordinator) winnerRecord(id, score int) entity.Winner {
	player, _ := that.registry.Get(id)
	player.ID = id

	return entity.Winner{ID: id, Name: player.DisplayName(), Score: score}
}

// archiveResult writes the final tally to the result archive off the hot
// path. Failures are logged and never affect the session. Callers must
// hold the aggregate lock.
func (that *Coordinator) archiveResult(winners []entity.Winner) {
	if that.results == nil {
		return
	}

	scores := make(map[int]int, len(that.scores))
	for id, score := range that.scores {
		scores[id] = score
	}

	result := &entity.MatchResult{
		ID:           newMatchID(),
		FinishedAt:   time.Now(),
		Winners:      winners,
		Scores:       scores,
		ClaimedCells: that.board.ClaimedCells(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := that.results.Save(ctx, result); err != nil {
			that.logger.Error("failed to archive match result", "error", err)
		}
	}()
}

// newMatchID - generates a unique id for the archived result.
func newMatchID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-match-id"
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

// sanitizeName keeps names printable on the wire: commas and line breaks
// would corrupt the protocol framing.
func sanitizeName(name string) string {
	name = strings.NewReplacer(",", " ", "\n", " ", "\r", " ").Replace(name)

	return strings.TrimSpace(name)
}
