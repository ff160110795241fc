package session

import (
	"errors"
	"time"

	"github.com/vytor/templemind/internal/models"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrNotFound      = errors.New("session not found")
	ErrNotOwner      = errors.New("session belongs to another player")
	ErrNotPlaying    = errors.New("session is not accepting answers yet")
	ErrInvalidInput  = errors.New("invalid input")
)

// Input actions understood by the games.
const (
	ActionReady  = "ready"
	ActionFlip   = "flip"
	ActionPlace  = "place"
	ActionTap    = "tap"
	ActionPress  = "press"
	ActionSwap   = "swap"
	ActionSubmit = "submit"
	ActionAnswer = "answer"
)

// Input is one player action. Which fields matter depends on Action.
type Input struct {
	Action string `json:"action"`
	A      int    `json:"a,omitempty"`
	B      int    `json:"b,omitempty"`
	Order  []int  `json:"order,omitempty"`
	Choice int    `json:"choice,omitempty"`
	// AtMS is the client's play-relative time of a tap. It is trusted only
	// within MaxClientLag of the server clock and never earlier than the
	// previous input.
	AtMS *int64 `json:"at_ms,omitempty"`
}

// Step is the effect of an input or a timeout on the running score.
type Step struct {
	Delta   int
	Final   *int
	Done    bool
	Reason  string
	Correct bool
	// Rearm restarts the play timer with a new budget.
	Rearm time.Duration
}

// Set returns a pointer to score, for Step.Final.
func Set(score int) *int { return &score }

// Game is the rule set of one game type. Sessions serialize every call, so
// implementations need no locking of their own.
type Game interface {
	Type() models.GameType
	MaxScore() int
	// Watch is the length of the memorize phase; zero skips it.
	Watch() time.Duration
	// Budget is the play time budget; zero means input-bounded.
	Budget() time.Duration
	// View renders client-visible state. It must not alias internal slices.
	View(phase Phase) any
	Apply(in Input, elapsed time.Duration) (Step, error)
	// Expire runs when the play timer fires.
	Expire() Step
}
