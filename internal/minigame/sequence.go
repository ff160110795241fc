package minigame

import (
	"math/rand"
	"time"

	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

const sequenceOptions = 4

type patternQuestion struct {
	shown   []string
	options []string
	answer  int
}

// sequenceGame is logic-sequence: name the symbol that continues a repeating
// pattern. Each question has its own time budget; a wrong answer or a
// timeout moves on to the next question.
type sequenceGame struct {
	base
	questions []patternQuestion
	current   int
	correct   int
}

// SequenceView is the current sequence question.
type SequenceView struct {
	Question int      `json:"question"`
	Total    int      `json:"total"`
	Correct  int      `json:"correct"`
	Shown    []string `json:"shown,omitempty"`
	Options  []string `json:"options,omitempty"`
}

func newSequence(b base, bank *content.Bank, rng *rand.Rand) *sequenceGame {
	n := scoring.Questions(b.profile)
	g := &sequenceGame{base: b, questions: make([]patternQuestion, n)}
	for i := range g.questions {
		g.questions[i] = buildPattern(rng, bank.Symbols, b.profile.Chapter)
	}
	return g
}

// buildPattern repeats a unit of 2 to 4 symbols, longer units unlocking in
// later chapters, and asks for the symbol that comes next.
func buildPattern(rng *rand.Rand, symbols []string, chapter int) patternQuestion {
	spread := chapter
	if spread > 3 {
		spread = 3
	}
	unitLen := 2 + rng.Intn(spread)
	if unitLen > len(symbols)-1 {
		unitLen = len(symbols) - 1
	}

	idx := rng.Perm(len(symbols))
	unit := make([]string, unitLen)
	for i := range unit {
		unit[i] = symbols[idx[i]]
	}

	length := unitLen*2 + rng.Intn(unitLen)
	shown := make([]string, length)
	for i := range shown {
		shown[i] = unit[i%unitLen]
	}
	answer := unit[length%unitLen]

	// correct option first, then distractors, then a non-trivial shuffle
	opts := []string{answer}
	for _, j := range idx {
		if len(opts) == sequenceOptions {
			break
		}
		if symbols[j] != answer {
			opts = append(opts, symbols[j])
		}
	}
	perm := content.Permutation(rng, len(opts))
	q := patternQuestion{shown: shown, options: content.Arrange(opts, perm)}
	for pos, src := range perm {
		if src == 0 {
			q.answer = pos
		}
	}
	return q
}

// Budget is the time allowed for a single question.
func (g *sequenceGame) Budget() time.Duration { return scoring.QuestionTime }

func (g *sequenceGame) Apply(in session.Input, _ time.Duration) (session.Step, error) {
	if in.Action != session.ActionAnswer {
		return session.Step{}, unknownAction(in.Action)
	}
	q := g.questions[g.current]
	if !inRange(in.Choice, len(q.options)) {
		return session.Step{}, invalid("choice %d out of range", in.Choice)
	}
	step := g.advance()
	if in.Choice == q.answer {
		g.correct++
		step.Delta = scoring.QuestionPoints
		step.Correct = true
	}
	return step, nil
}

func (g *sequenceGame) Expire() session.Step {
	return g.advance()
}

func (g *sequenceGame) advance() session.Step {
	g.current++
	if g.current >= len(g.questions) {
		return session.Step{Done: true}
	}
	return session.Step{Rearm: scoring.QuestionTime}
}

func (g *sequenceGame) View(phase session.Phase) any {
	v := SequenceView{Question: g.current + 1, Total: len(g.questions), Correct: g.correct}
	if phase == session.PhaseComplete || g.current >= len(g.questions) {
		v.Question = len(g.questions)
		return v
	}
	q := g.questions[g.current]
	v.Shown = append([]string(nil), q.shown...)
	v.Options = append([]string(nil), q.options...)
	return v
}
