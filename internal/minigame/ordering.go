package minigame

import (
	"math/rand"
	"time"

	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

// orderingGame is logic-scripture: restore the order of a shuffled passage.
// Each line in its place is worth LinePoints, counted at submit or when time
// runs out.
type orderingGame struct {
	base
	title string
	lines []string
	// order[pos] is the index of the line currently at pos.
	order []int
}

// OrderingView is the scrambled passage; Order is revealed once complete.
type OrderingView struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
	// Order holds the original index of each displayed line once the game is
	// over.
	Order []int `json:"order,omitempty"`
}

func newOrdering(b base, bank *content.Bank, rng *rand.Rand) *orderingGame {
	title, lines := bank.PickPassage(rng, b.profile.ElementCount)
	return &orderingGame{
		base:  b,
		title: title,
		lines: lines,
		order: content.Permutation(rng, len(lines)),
	}
}

func (g *orderingGame) Apply(in session.Input, _ time.Duration) (session.Step, error) {
	switch in.Action {
	case session.ActionSwap:
		if !inRange(in.A, len(g.order)) || !inRange(in.B, len(g.order)) {
			return session.Step{}, invalid("swap %d and %d out of range", in.A, in.B)
		}
		g.order[in.A], g.order[in.B] = g.order[in.B], g.order[in.A]
		return session.Step{Correct: g.order[in.A] == in.A || g.order[in.B] == in.B}, nil

	case session.ActionSubmit:
		if len(in.Order) > 0 {
			if err := g.rearrange(in.Order); err != nil {
				return session.Step{}, err
			}
		}
		placed := g.inPlace()
		return session.Step{
			Final:   session.Set(placed * scoring.LinePoints),
			Correct: placed == len(g.order),
			Done:    true,
		}, nil
	}
	return session.Step{}, unknownAction(in.Action)
}

// rearrange applies a client arrangement given as positions into the
// currently displayed lines.
func (g *orderingGame) rearrange(positions []int) error {
	if len(positions) != len(g.order) {
		return invalid("order must list %d lines, got %d", len(g.order), len(positions))
	}
	seen := make([]bool, len(g.order))
	next := make([]int, len(g.order))
	for i, p := range positions {
		if !inRange(p, len(g.order)) || seen[p] {
			return invalid("order is not a permutation")
		}
		seen[p] = true
		next[i] = g.order[p]
	}
	g.order = next
	return nil
}

func (g *orderingGame) inPlace() int {
	n := 0
	for pos, line := range g.order {
		if pos == line {
			n++
		}
	}
	return n
}

func (g *orderingGame) Expire() session.Step {
	return session.Step{Final: session.Set(g.inPlace() * scoring.LinePoints), Done: true}
}

func (g *orderingGame) View(phase session.Phase) any {
	v := OrderingView{Title: g.title, Lines: content.Arrange(g.lines, g.order)}
	if phase == session.PhaseComplete {
		v.Order = append([]int(nil), g.order...)
	}
	return v
}
