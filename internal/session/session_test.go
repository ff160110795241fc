package session_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/session"
	"github.com/vytor/templemind/internal/testutil"
)

// stubGame awards Delta for "hit", penalizes "miss", ends on "finish" and
// scores 7 on expiry.
type stubGame struct {
	watch, budget time.Duration
	max           int
	expires       int
	rearm         time.Duration
}

func (g *stubGame) Type() models.GameType { return models.MemoryTemple }
func (g *stubGame) MaxScore() int { return g.max }
func (g *stubGame) Watch() time.Duration { return g.watch }
func (g *stubGame) Budget() time.Duration { return g.budget }
func (g *stubGame) View(session.Phase) any { return map[string]int{"expires": g.expires} }

func (g *stubGame) Apply(in session.Input, _ time.Duration) (session.Step, error) {
	switch in.Action {
	case "hit":
		return session.Step{Delta: 20, Correct: true}, nil
	case "miss":
		return session.Step{Delta: -5}, nil
	case "finish":
		return session.Step{Done: true, Correct: true}, nil
	}
	return session.Step{}, fmt.Errorf("%w: %q", session.ErrInvalidInput, in.Action)
}

func (g *stubGame) Expire() session.Step {
	g.expires++
	if g.rearm > 0 && g.expires < 3 {
		return session.Step{Rearm: g.rearm}
	}
	return session.Step{Final: session.Set(7), Done: true}
}

type recorder struct {
	mu       sync.Mutex
	outcomes []session.Outcome
}

func (r *recorder) handle(_ *session.Session, o session.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

func newSession(t *testing.T, g session.Game) (*session.Session, *testutil.FakeClock, *recorder) {
	t.Helper()
	clock := testutil.NewFakeClock()
	rec := &recorder{}
	owner := models.Identity{ProfileID: 1, Religion: models.Buddhism}
	s := session.New(owner, difficulty.Resolve(2), g, clock, rec.handle)
	require.NoError(t, s.Start())
	return s, clock, rec
}

func TestSession_MemorizeThenPlay(t *testing.T) {
	s, clock, _ := newSession(t, &stubGame{watch: 10 * time.Second, budget: 15 * time.Second, max: 60})
	assert.Equal(t, session.PhaseMemorize, s.Phase())

	_, err := s.Submit(session.Input{Action: "hit"})
	assert.ErrorIs(t, err, session.ErrNotPlaying)

	clock.Advance(9 * time.Second)
	assert.Equal(t, session.PhaseMemorize, s.Phase())
	clock.Advance(time.Second)
	assert.Equal(t, session.PhasePlay, s.Phase())

	snap := s.Snapshot()
	require.NotNil(t, snap.RemainingMS)
	assert.Equal(t, int64(15000), *snap.RemainingMS)
}

func TestSession_ReadySkipsMemorize(t *testing.T) {
	s, clock, _ := newSession(t, &stubGame{watch: 10 * time.Second, budget: 15 * time.Second, max: 60})

	snap, err := s.Submit(session.Input{Action: session.ActionReady})
	require.NoError(t, err)
	assert.Equal(t, session.PhasePlay, snap.Phase)

	// the memorize timer must not restart play when it would have fired
	clock.Advance(10 * time.Second)
	snap = s.Snapshot()
	assert.Equal(t, session.PhasePlay, snap.Phase)
	assert.Equal(t, int64(5000), *snap.RemainingMS)
	assert.Equal(t, 1, clock.Pending())
}

// clockedGame records the play time every input was scored at.
type clockedGame struct {
	stubGame
	at []time.Duration
}

func (g *clockedGame) Apply(in session.Input, elapsed time.Duration) (session.Step, error) {
	g.at = append(g.at, elapsed)
	return g.stubGame.Apply(in, elapsed)
}

func TestSession_ClientTimeTrustedWithinLag(t *testing.T) {
	g := &clockedGame{stubGame: stubGame{budget: 20 * time.Second, max: 100}}
	s, clock, _ := newSession(t, g)
	ms := func(v int64) *int64 { return &v }

	clock.Advance(2100 * time.Millisecond)
	_, err := s.Submit(session.Input{Action: "hit", AtMS: ms(2000)})
	require.NoError(t, err)

	clock.Advance(100 * time.Millisecond)
	_, err = s.Submit(session.Input{Action: "hit", AtMS: ms(5000)})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{2000 * time.Millisecond, 2200 * time.Millisecond}, g.at,
		"future client times fall back to the server clock")
}

func TestSession_StaleOrReorderedClientTimeIgnored(t *testing.T) {
	g := &clockedGame{stubGame: stubGame{budget: 20 * time.Second, max: 100}}
	s, clock, _ := newSession(t, g)
	ms := func(v int64) *int64 { return &v }

	clock.Advance(10 * time.Second)
	_, err := s.Submit(session.Input{Action: "hit", AtMS: ms(3000)})
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	_, err = s.Submit(session.Input{Action: "hit", AtMS: ms(10200)})
	require.NoError(t, err)
	_, err = s.Submit(session.Input{Action: "hit", AtMS: ms(10100)})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{
		10 * time.Second,
		10200 * time.Millisecond,
		10500 * time.Millisecond,
	}, g.at)
}

func TestSession_ScoreNeverNegative(t *testing.T) {
	s, _, _ := newSession(t, &stubGame{max: 60})

	for i := 0; i < 3; i++ {
		snap, err := s.Submit(session.Input{Action: "miss"})
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Score)
	}
	snap, err := s.Submit(session.Input{Action: "hit"})
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Score)
	snap, err = s.Submit(session.Input{Action: "miss"})
	require.NoError(t, err)
	assert.Equal(t, 15, snap.Score)
	require.NotNil(t, snap.LastCorrect)
	assert.False(t, *snap.LastCorrect)
}

func TestSession_ScoreCappedAtMax(t *testing.T) {
	s, _, _ := newSession(t, &stubGame{max: 30})
	_, _ = s.Submit(session.Input{Action: "hit"})
	snap, err := s.Submit(session.Input{Action: "hit"})
	require.NoError(t, err)
	assert.Equal(t, 30, snap.Score)
}

func TestSession_InvalidInputDoesNotCount(t *testing.T) {
	s, _, _ := newSession(t, &stubGame{max: 60})
	_, err := s.Submit(session.Input{Action: "dance"})
	assert.ErrorIs(t, err, session.ErrInvalidInput)
	assert.Equal(t, 0, s.Snapshot().Inputs)
}

func TestSession_CompleteIsTerminal(t *testing.T) {
	s, clock, rec := newSession(t, &stubGame{budget: 15 * time.Second, max: 60})

	_, _ = s.Submit(session.Input{Action: "hit"})
	_, _ = s.Submit(session.Input{Action: "hit"})
	snap, err := s.Submit(session.Input{Action: "finish"})
	require.NoError(t, err)
	assert.Equal(t, session.PhaseComplete, snap.Phase)
	assert.Equal(t, 40, snap.Score)
	assert.Equal(t, 2, snap.Stars)
	assert.Nil(t, snap.RemainingMS)
	assert.Equal(t, 0, clock.Pending(), "play timer cancelled on completion")

	// further answers are ignored without error
	after, err := s.Submit(session.Input{Action: "hit"})
	require.NoError(t, err)
	assert.Equal(t, snap.Score, after.Score)
	assert.Equal(t, snap.Stars, after.Stars)
	assert.Equal(t, snap.Inputs, after.Inputs)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, rec.count(), "exactly one completion")
	assert.Equal(t, session.ReasonCompleted, rec.outcomes[0].Reason)
	assert.Equal(t, 40, rec.outcomes[0].Score)
}

func TestSession_TimeUp(t *testing.T) {
	s, clock, rec := newSession(t, &stubGame{budget: 15 * time.Second, max: 10})

	clock.Advance(15 * time.Second)
	snap := s.Snapshot()
	assert.Equal(t, session.PhaseComplete, snap.Phase)
	assert.Equal(t, session.ReasonTimeUp, snap.Reason)
	assert.Equal(t, 7, snap.Score)
	assert.Equal(t, 2, snap.Stars)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, clock.Now(), rec.outcomes[0].CompletedAt)
}

func TestSession_Rearm(t *testing.T) {
	g := &stubGame{budget: 30 * time.Second, rearm: 30 * time.Second, max: 10}
	s, clock, rec := newSession(t, g)

	clock.Advance(30 * time.Second)
	assert.Equal(t, session.PhasePlay, s.Phase())
	clock.Advance(30 * time.Second)
	assert.Equal(t, session.PhasePlay, s.Phase())
	clock.Advance(30 * time.Second)
	assert.Equal(t, session.PhaseComplete, s.Phase())
	assert.Equal(t, 3, g.expires)
	assert.Equal(t, 1, rec.count())
}

func TestSession_DisposeCancelsTimers(t *testing.T) {
	g := &stubGame{watch: 5 * time.Second, budget: 15 * time.Second, max: 10}
	s, clock, rec := newSession(t, g)

	s.Dispose()
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Hour)

	assert.Equal(t, session.PhaseMemorize, s.Phase())
	assert.Equal(t, 0, g.expires)
	assert.Equal(t, 0, rec.count(), "disposed sessions never complete")

	_, err := s.Submit(session.Input{Action: "hit"})
	assert.ErrorIs(t, err, session.ErrSessionClosed)
	assert.ErrorIs(t, s.Start(), session.ErrSessionClosed)
}

func TestSession_SaveStatusVisibleAfterCompletion(t *testing.T) {
	clock := testutil.NewFakeClock()
	s := session.New(models.GuestIdentity(models.Mazu), difficulty.Resolve(1), &stubGame{max: 20}, clock,
		func(s *session.Session, _ session.Outcome) { s.SetSaveStatus(session.SaveSkipped) })
	require.NoError(t, s.Start())

	snap, err := s.Submit(session.Input{Action: "finish"})
	require.NoError(t, err)
	assert.Equal(t, session.SaveSkipped, snap.SaveStatus)
}

func TestSession_ConcurrentInputsCompleteOnce(t *testing.T) {
	s, clock, rec := newSession(t, &stubGame{budget: time.Second, max: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := "hit"
			if i%5 == 0 {
				action = "finish"
			}
			_, _ = s.Submit(session.Input{Action: action})
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		clock.Advance(time.Second)
	}()
	wg.Wait()

	assert.Equal(t, 1, rec.count())
}

func TestOutcome_Result(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	o := session.Outcome{
		Owner: models.Identity{ProfileID: 9}, GameType: models.LogicSequence,
		Level: 6, Score: 50, MaxScore: 75, Stars: 2, CompletedAt: at,
	}
	assert.Equal(t, models.GameResult{
		ProfileID: 9, GameType: models.LogicSequence, Level: 6,
		Score: 50, MaxScore: 75, Stars: 2, CompletedAt: at,
	}, o.Result())
}

func stubFactory(g func() session.Game) session.Factory {
	return func(difficulty.Level, models.Religion, *rand.Rand) (session.Game, error) {
		return g(), nil
	}
}
