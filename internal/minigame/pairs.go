package minigame

import (
	"math/rand"
	"time"

	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

const (
	cardTerm    = "term"
	cardMeaning = "meaning"
)

type card struct {
	kind string
	text string
	pair int
}

// pairsGame is memory-scripture: flip two cards at a time to match each
// concept with its meaning. Untimed; ends when every pair is matched.
type pairsGame struct {
	base
	cards   []card
	matched []bool
	open    int
	shown   []int
	pairs   int
	found   int
}

// CardView is one card; Text is hidden while the card is face down.
type CardView struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	FaceUp  bool   `json:"face_up"`
	Matched bool   `json:"matched"`
}

// PairsView is the card grid of a pairs game.
type PairsView struct {
	Cards   []CardView `json:"cards"`
	Pairs   int        `json:"pairs"`
	Matched int        `json:"matched"`
}

func newPairs(b base, bank *content.Bank, rng *rand.Rand) *pairsGame {
	pairs := bank.PickPairs(rng, b.profile.ElementCount)
	cards := make([]card, 0, len(pairs)*2)
	for i, p := range pairs {
		cards = append(cards,
			card{kind: cardTerm, text: p.Term, pair: i},
			card{kind: cardMeaning, text: p.Meaning, pair: i},
		)
	}
	cards = content.Arrange(cards, content.Permutation(rng, len(cards)))
	return &pairsGame{
		base:    b,
		cards:   cards,
		matched: make([]bool, len(cards)),
		open:    -1,
		pairs:   len(pairs),
	}
}

// Budget is unbounded; the board is finished by play, not by time.
func (g *pairsGame) Budget() time.Duration { return 0 }

func (g *pairsGame) Apply(in session.Input, _ time.Duration) (session.Step, error) {
	if in.Action != session.ActionFlip {
		return session.Step{}, unknownAction(in.Action)
	}
	i := in.A
	if !inRange(i, len(g.cards)) {
		return session.Step{}, invalid("card %d out of range", i)
	}
	if g.matched[i] {
		return session.Step{}, invalid("card %d is already matched", i)
	}
	if g.open == i {
		return session.Step{}, invalid("card %d is already face up", i)
	}

	if g.open < 0 {
		g.open = i
		g.shown = nil
		return session.Step{Correct: true}, nil
	}

	first := g.open
	g.open = -1
	g.shown = []int{first, i}
	if g.cards[first].pair != g.cards[i].pair {
		return session.Step{Delta: -scoring.WrongPenalty}, nil
	}
	g.matched[first], g.matched[i] = true, true
	g.found++
	return session.Step{Delta: scoring.MatchPoints, Correct: true, Done: g.found == g.pairs}, nil
}

func (g *pairsGame) Expire() session.Step {
	return session.Step{Done: true}
}

func (g *pairsGame) View(phase session.Phase) any {
	v := PairsView{Cards: make([]CardView, len(g.cards)), Pairs: g.pairs, Matched: g.found}
	for i, c := range g.cards {
		up := g.matched[i] || g.open == i || phase == session.PhaseComplete
		for _, s := range g.shown {
			up = up || s == i
		}
		cv := CardView{Index: i, Kind: c.kind, FaceUp: up, Matched: g.matched[i]}
		if up {
			cv.Text = c.text
		}
		v.Cards[i] = cv
	}
	return v
}
