package service

import (
	"sync"
	"time"
)

const (
	PhaseWaiting   = "waiting"
	PhaseCountdown = "countdown"
	PhaseRunning   = "running"
	PhaseWon       = "won"
)

// Session is the one-way lifecycle of the match:
// waiting → countdown → running → won. Transitions fire at most once and
// are observed through channels rather than polling.
type Session struct {
	mu       sync.Mutex
	phase    string
	deadline time.Time
	started  chan struct{}
	done     chan struct{}
}

func NewSession() *Session {
	return &Session{
		phase:   PhaseWaiting,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Arm moves the session from waiting to countdown with the given start
// deadline. Only the first call succeeds; the gate never rearms.
func (that *Session) Arm(deadline time.Time) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != PhaseWaiting {
		return false
	}

	that.phase = PhaseCountdown
	that.deadline = deadline

	return true
}

// Start fires the countdown-to-running transition.
func (that *Session) Start() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != PhaseCountdown {
		return false
	}

	that.phase = PhaseRunning
	close(that.started)

	return true
}

// MarkWon moves the running session to its terminal won phase. Returns
// true only for the first caller, so winner announcements fire once.
func (that *Session) MarkWon() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != PhaseRunning {
		return false
	}

	that.phase = PhaseWon
	close(that.done)

	return true
}

func (that *Session) Phase() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.phase
}

func (that *Session) IsRunning() bool {
	return that.Phase() == PhaseRunning
}

// Deadline returns the armed start deadline, if any.
func (that *Session) Deadline() (time.Time, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.deadline, that.phase != PhaseWaiting
}

// Started is closed when the game begins.
func (that *Session) Started() <-chan struct{} {
	return that.started
}

// Done is closed when a winner set has been declared.
func (that *Session) Done() <-chan struct{} {
	return that.done
}
