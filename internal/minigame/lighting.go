package minigame

import (
	"math/rand"
	"time"

	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

// Lamps is the number of lamps on the lighting board.
const Lamps = 9

// lightingGame is reaction-lighting: watch a sequence of lamps light up one
// reaction window each, then press them back in order. One wrong lamp ends
// the attempt.
type lightingGame struct {
	base
	sequence []int
	pos      int
}

// LightingView shows the lamp sequence while memorizing and progress while
// repeating it.
type LightingView struct {
	Lamps    int   `json:"lamps"`
	StepMS   int64 `json:"step_ms"`
	Length   int   `json:"length"`
	Sequence []int `json:"sequence,omitempty"`
	Pressed  int   `json:"pressed"`
}

func newLighting(b base, rng *rand.Rand) *lightingGame {
	seq := make([]int, b.profile.ElementCount)
	for i := range seq {
		lamp := rng.Intn(Lamps)
		for i > 0 && lamp == seq[i-1] {
			lamp = rng.Intn(Lamps)
		}
		seq[i] = lamp
	}
	return &lightingGame{base: b, sequence: seq}
}

// Watch is the time the whole sequence takes to show.
func (g *lightingGame) Watch() time.Duration { return g.spec.Duration(g.profile) }

// Budget is unbounded; pressing back the sequence ends the game.
func (g *lightingGame) Budget() time.Duration { return 0 }

func (g *lightingGame) Apply(in session.Input, _ time.Duration) (session.Step, error) {
	if in.Action != session.ActionPress {
		return session.Step{}, unknownAction(in.Action)
	}
	if !inRange(in.A, Lamps) {
		return session.Step{}, invalid("lamp %d out of range", in.A)
	}
	if g.sequence[g.pos] != in.A {
		return session.Step{Done: true, Reason: session.ReasonMistake}, nil
	}
	g.pos++
	return session.Step{Delta: scoring.LampPoints, Correct: true, Done: g.pos == len(g.sequence)}, nil
}

func (g *lightingGame) Expire() session.Step {
	return session.Step{Done: true}
}

func (g *lightingGame) View(phase session.Phase) any {
	v := LightingView{
		Lamps:   Lamps,
		StepMS:  g.profile.ReactionDuration().Milliseconds(),
		Length:  len(g.sequence),
		Pressed: g.pos,
	}
	if phase == session.PhaseMemorize || phase == session.PhaseComplete {
		v.Sequence = append([]int(nil), g.sequence...)
	}
	return v
}
