package minigame

import (
	"math/rand"
	"time"

	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

// templeGame is memory-temple: memorize where each building stands, then
// rebuild the layout from a shuffled palette before the budget runs out.
type templeGame struct {
	base
	layout  []content.Building
	palette []content.Building
	placed  []bool
	used    []bool
	filled  int
}

// SlotView is one layout slot; Building is set while memorizing or once placed.
type SlotView struct {
	Slot     int               `json:"slot"`
	Building *content.Building `json:"building,omitempty"`
}

// PaletteItem is a building the player can place.
type PaletteItem struct {
	Index    int              `json:"index"`
	Building content.Building `json:"building"`
	Used     bool             `json:"used"`
}

// TempleView is the temple layout and the palette to rebuild it from.
type TempleView struct {
	Slots   []SlotView    `json:"slots"`
	Palette []PaletteItem `json:"palette,omitempty"`
}

func newTemple(b base, bank *content.Bank, rng *rand.Rand) *templeGame {
	layout := bank.PickBuildings(rng, b.profile.ElementCount)
	return &templeGame{
		base:    b,
		layout:  layout,
		palette: content.Arrange(layout, content.Permutation(rng, len(layout))),
		placed:  make([]bool, len(layout)),
		used:    make([]bool, len(layout)),
	}
}

func (g *templeGame) Watch() time.Duration { return g.profile.MemoryDuration() }

// Budget is what remains of the game's duration after memorizing.
func (g *templeGame) Budget() time.Duration {
	return g.spec.Duration(g.profile) - g.Watch()
}

func (g *templeGame) Apply(in session.Input, _ time.Duration) (session.Step, error) {
	if in.Action != session.ActionPlace {
		return session.Step{}, unknownAction(in.Action)
	}
	slot, pick := in.A, in.B
	if !inRange(slot, len(g.layout)) {
		return session.Step{}, invalid("slot %d out of range", slot)
	}
	if !inRange(pick, len(g.palette)) {
		return session.Step{}, invalid("palette item %d out of range", pick)
	}
	if g.placed[slot] {
		return session.Step{}, invalid("slot %d is already built", slot)
	}
	if g.used[pick] {
		return session.Step{}, invalid("palette item %d is already placed", pick)
	}

	if g.palette[pick].Name != g.layout[slot].Name {
		return session.Step{Delta: -scoring.WrongPenalty}, nil
	}
	g.placed[slot], g.used[pick] = true, true
	g.filled++
	return session.Step{Delta: scoring.MatchPoints, Correct: true, Done: g.filled == len(g.layout)}, nil
}

func (g *templeGame) Expire() session.Step {
	return session.Step{Done: true}
}

func (g *templeGame) View(phase session.Phase) any {
	v := TempleView{Slots: make([]SlotView, len(g.layout))}
	reveal := phase == session.PhaseMemorize || phase == session.PhaseComplete
	for i := range g.layout {
		v.Slots[i] = SlotView{Slot: i}
		if reveal || g.placed[i] {
			b := g.layout[i]
			v.Slots[i].Building = &b
		}
	}
	if phase == session.PhasePlay {
		v.Palette = make([]PaletteItem, len(g.palette))
		for i, b := range g.palette {
			v.Palette[i] = PaletteItem{Index: i, Building: b, Used: g.used[i]}
		}
	}
	return v
}
