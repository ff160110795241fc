package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/scoring"
)

// Phase is a step of the session lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseMemorize Phase = "memorize"
	PhasePlay     Phase = "play"
	PhaseComplete Phase = "complete"
)

// Completion reasons.
const (
	ReasonCompleted = "completed"
	ReasonTimeUp    = "time_up"
	ReasonMistake   = "mistake"
)

// MaxClientLag bounds how far a client-reported input time may trail the
// server clock.
const MaxClientLag = time.Second

// SaveStatus tracks persistence of a completed session's result.
type SaveStatus string

const (
	SaveNone    SaveStatus = ""
	SavePending SaveStatus = "pending"
	SaveSaved   SaveStatus = "saved"
	SaveFailed  SaveStatus = "failed"
	SaveSkipped SaveStatus = "skipped"
)

// Outcome is emitted exactly once when a session completes.
type Outcome struct {
	SessionID   string
	Owner       models.Identity
	GameType    models.GameType
	Level       int
	Score       int
	MaxScore    int
	Stars       int
	Reason      string
	CompletedAt time.Time
}

// Result converts the outcome into the record persisted for the owner.
func (o Outcome) Result() models.GameResult {
	return models.GameResult{
		ProfileID:   o.Owner.ProfileID,
		GameType:    o.GameType,
		Level:       o.Level,
		Score:       o.Score,
		MaxScore:    o.MaxScore,
		Stars:       o.Stars,
		CompletedAt: o.CompletedAt,
	}
}

// Snapshot is the client-visible state of a session.
type Snapshot struct {
	ID          string          `json:"id"`
	Level       int             `json:"level"`
	Chapter     int             `json:"chapter"`
	GameType    models.GameType `json:"game_type"`
	Phase       Phase           `json:"phase"`
	Score       int             `json:"score"`
	MaxScore    int             `json:"max_score"`
	Stars       int             `json:"stars"`
	RemainingMS *int64          `json:"remaining_ms,omitempty"`
	Inputs      int             `json:"inputs"`
	LastCorrect *bool           `json:"last_correct,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	SaveStatus  SaveStatus      `json:"save_status,omitempty"`
	View        any             `json:"view"`
}

// Session runs one playthrough of a game. Every input and timer callback is
// applied under the session lock, one at a time.
type Session struct {
	mu sync.Mutex

	id    string
	owner models.Identity
	level difficulty.Level
	game  Game
	clock Clock
	log   *logger.Logger

	phase       Phase
	score       int
	stars       int
	inputs      int
	lastCorrect *bool
	reason      string
	saveStatus  SaveStatus

	timer     Timer
	gen       uint64
	playStart time.Time
	deadline  time.Time
	touched   time.Time
	closed    bool

	// lastInputAt is the play-relative time of the last applied input.
	lastInputAt time.Duration

	onComplete func(*Session, Outcome)
}

// New creates an idle session. onComplete may be nil.
func New(owner models.Identity, level difficulty.Level, game Game, clock Clock, onComplete func(*Session, Outcome)) *Session {
	if clock == nil {
		clock = SystemClock()
	}
	id := uuid.NewString()
	return &Session{
		id:    id,
		owner: owner,
		level: level,
		game:  game,
		clock: clock,
		log: logger.Default().WithPrefix("session").WithFields(map[string]any{
			"session_id": id,
			"game_type":  game.Type(),
			"level":      level.Level,
		}),
		phase:      PhaseIdle,
		touched:    clock.Now(),
		onComplete: onComplete,
	}
}

// ID, Owner, Level and GameType are fixed at creation.
func (s *Session) ID() string { return s.id }
func (s *Session) Owner() models.Identity { return s.owner }
func (s *Session) Level() difficulty.Level { return s.level }
func (s *Session) GameType() models.GameType { return s.game.Type() }

// Start leaves idle for the memorize phase, or straight for play when the
// game has none. Starting twice is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return nil
	}
	s.touched = s.clock.Now()
	if w := s.game.Watch(); w > 0 {
		s.phase = PhaseMemorize
		s.deadline = s.clock.Now().Add(w)
		s.arm(w)
		s.log.Debug("memorize phase for %s", w)
	} else {
		s.enterPlay()
	}
	s.mu.Unlock()
	return nil
}

// Submit applies one input and returns the resulting snapshot. Inputs to a
// completed session are ignored.
func (s *Session) Submit(in Input) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	now := s.clock.Now()
	s.touched = now

	var out *Outcome
	switch s.phase {
	case PhaseComplete:
		s.log.Debug("ignoring %q input after completion", in.Action)
	case PhaseIdle:
		s.mu.Unlock()
		return Snapshot{}, ErrNotPlaying
	case PhaseMemorize:
		if in.Action != ActionReady {
			s.mu.Unlock()
			return Snapshot{}, ErrNotPlaying
		}
		s.stopTimer()
		s.enterPlay()
	case PhasePlay:
		if in.Action == ActionReady {
			break
		}
		elapsed := s.inputTime(in, now.Sub(s.playStart))
		step, err := s.game.Apply(in, elapsed)
		if err != nil {
			s.mu.Unlock()
			return Snapshot{}, err
		}
		s.lastInputAt = elapsed
		s.inputs++
		correct := step.Correct
		s.lastCorrect = &correct
		out = s.apply(step, ReasonCompleted)
	}
	snap := s.snapshot(now)
	s.mu.Unlock()
	if out != nil {
		s.emit(out)
		// the completion handler may have set the save status
		return s.Snapshot(), nil
	}
	return snap, nil
}

// inputTime picks the play-relative time an input is scored at. The
// client's AtMS is used only when it lies at most MaxClientLag behind the
// server clock and not before the previous input; otherwise the server's
// own elapsed time wins.
func (s *Session) inputTime(in Input, elapsed time.Duration) time.Duration {
	if in.AtMS == nil {
		return elapsed
	}
	at := time.Duration(*in.AtMS) * time.Millisecond
	if at < s.lastInputAt || at > elapsed || elapsed-at > MaxClientLag {
		return elapsed
	}
	return at
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.clock.Now())
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Dispose cancels any pending timer and closes the session. A session
// disposed before completion never emits an outcome.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimer()
	s.log.Debug("disposed in phase %s", s.phase)
}

// Closed reports whether Dispose has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetSaveStatus records what happened to the persisted result.
func (s *Session) SetSaveStatus(status SaveStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveStatus = status
}

// IdleSince is the time of the last start or input.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) enterPlay() {
	s.phase = PhasePlay
	s.playStart = s.clock.Now()
	s.lastInputAt = 0
	s.deadline = time.Time{}
	if b := s.game.Budget(); b > 0 {
		s.deadline = s.playStart.Add(b)
		s.arm(b)
	}
}

// arm replaces the pending timer. Callbacks carry the generation they were
// armed with so a timer that fires after being replaced does nothing.
func (s *Session) arm(d time.Duration) {
	s.stopTimer()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { s.fire(gen) })
}

func (s *Session) stopTimer() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire ends the memorize phase or the current play budget.
func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	var out *Outcome
	switch s.phase {
	case PhaseMemorize:
		s.enterPlay()
	case PhasePlay:
		out = s.apply(s.game.Expire(), ReasonTimeUp)
	}
	s.mu.Unlock()
	s.emit(out)
}

// apply folds a step into the score and completes the session when the
// step says so. It returns the outcome to emit after unlocking.
func (s *Session) apply(step Step, defaultReason string) *Outcome {
	if step.Final != nil {
		s.score = *step.Final
	} else {
		s.score += step.Delta
	}
	s.score = scoring.Clamp(s.score)
	if maxScore := s.game.MaxScore(); s.score > maxScore {
		s.score = maxScore
	}

	if step.Done {
		reason := step.Reason
		if reason == "" {
			reason = defaultReason
		}
		return s.complete(reason)
	}
	if step.Rearm > 0 {
		s.deadline = s.clock.Now().Add(step.Rearm)
		s.arm(step.Rearm)
	}
	return nil
}

func (s *Session) complete(reason string) *Outcome {
	s.stopTimer()
	now := s.clock.Now()
	s.phase = PhaseComplete
	s.reason = reason
	s.deadline = time.Time{}
	s.stars = scoring.Stars(s.score, s.game.MaxScore())
	s.log.Info("completed (%s): score %d/%d, %d stars", reason, s.score, s.game.MaxScore(), s.stars)
	return &Outcome{
		SessionID:   s.id,
		Owner:       s.owner,
		GameType:    s.game.Type(),
		Level:       s.level.Level,
		Score:       s.score,
		MaxScore:    s.game.MaxScore(),
		Stars:       s.stars,
		Reason:      reason,
		CompletedAt: now,
	}
}

func (s *Session) emit(out *Outcome) {
	if out == nil || s.onComplete == nil {
		return
	}
	s.onComplete(s, *out)
}

func (s *Session) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		ID:          s.id,
		Level:       s.level.Level,
		Chapter:     s.level.Chapter,
		GameType:    s.game.Type(),
		Phase:       s.phase,
		Score:       s.score,
		MaxScore:    s.game.MaxScore(),
		Stars:       s.stars,
		Inputs:      s.inputs,
		LastCorrect: s.lastCorrect,
		Reason:      s.reason,
		SaveStatus:  s.saveStatus,
		View:        s.game.View(s.phase),
	}
	if !s.deadline.IsZero() {
		left := s.deadline.Sub(now).Milliseconds()
		if left < 0 {
			left = 0
		}
		snap.RemainingMS = &left
	}
	return snap
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s level %d)", s.id, s.game.Type(), s.level.Level)
}
