package minigame

import (
	"math"
	"time"

	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

// rhythmGame is reaction-rhythm: tap along with a drum whose tempo follows
// the chapter's speed multiplier. A tap within half a reaction window of an
// unclaimed beat is a hit; anything else is a stray that cancels one hit.
type rhythmGame struct {
	base
	interval  time.Duration
	tolerance time.Duration
	beats     int
	hit       []bool
	hits      int
	strays    int
}

// RhythmView carries the tempo the client plays the drum at.
type RhythmView struct {
	IntervalMS  int64 `json:"interval_ms"`
	ToleranceMS int64 `json:"tolerance_ms"`
	DurationMS  int64 `json:"duration_ms"`
	Beats       int   `json:"beats"`
	Hits        int   `json:"hits"`
	Strays      int   `json:"strays"`
}

func newRhythm(b base) *rhythmGame {
	speed := b.profile.SpeedMultiplier
	if speed <= 0 {
		speed = 1
	}
	interval := time.Duration(float64(time.Second) / speed)
	beats := int(b.Budget() / interval)
	return &rhythmGame{
		base:      b,
		interval:  interval,
		tolerance: b.profile.ReactionDuration() / 2,
		beats:     beats,
		hit:       make([]bool, beats),
	}
}

func (g *rhythmGame) Apply(in session.Input, elapsed time.Duration) (session.Step, error) {
	if in.Action != session.ActionTap {
		return session.Step{}, unknownAction(in.Action)
	}

	// beat k sounds at k*interval, k = 1..beats
	k := int(math.Round(float64(elapsed) / float64(g.interval)))
	off := elapsed - time.Duration(k)*g.interval
	if off < 0 {
		off = -off
	}
	correct := k >= 1 && k <= g.beats && !g.hit[k-1] && off <= g.tolerance
	if correct {
		g.hit[k-1] = true
		g.hits++
	} else {
		g.strays++
	}
	return session.Step{Final: session.Set(g.score()), Correct: correct}, nil
}

func (g *rhythmGame) score() int {
	net := g.hits - g.strays
	if net < 0 {
		net = 0
	}
	return scoring.Percent(net, g.beats, g.MaxScore())
}

func (g *rhythmGame) Expire() session.Step {
	return session.Step{Final: session.Set(g.score()), Done: true}
}

func (g *rhythmGame) View(session.Phase) any {
	return RhythmView{
		IntervalMS:  g.interval.Milliseconds(),
		ToleranceMS: g.tolerance.Milliseconds(),
		DurationMS:  g.Budget().Milliseconds(),
		Beats:       g.beats,
		Hits:        g.hits,
		Strays:      g.strays,
	}
}
