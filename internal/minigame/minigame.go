// Package minigame implements the rule sets of the six game types on top of
// the session engine.
package minigame

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

// New builds the game that level plays, drawing content from bank.
func New(level difficulty.Level, bank *content.Bank, rng *rand.Rand) (session.Game, error) {
	spec, ok := scoring.SpecFor(level.GameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type %q", level.GameType)
	}
	b := base{spec: spec, profile: level.Profile}

	switch level.GameType {
	case models.MemoryScripture:
		return newPairs(b, bank, rng), nil
	case models.MemoryTemple:
		return newTemple(b, bank, rng), nil
	case models.ReactionRhythm:
		return newRhythm(b), nil
	case models.ReactionLighting:
		return newLighting(b, rng), nil
	case models.LogicScripture:
		return newOrdering(b, bank, rng), nil
	case models.LogicSequence:
		return newSequence(b, bank, rng), nil
	}
	return nil, fmt.Errorf("no rules for game type %q", level.GameType)
}

// NewFactory adapts New for the session manager.
func NewFactory(lib *content.Library) session.Factory {
	return func(level difficulty.Level, religion models.Religion, rng *rand.Rand) (session.Game, error) {
		return New(level, lib.Bank(religion), rng)
	}
}

type base struct {
	spec    scoring.GameTypeSpec
	profile difficulty.Profile
}

func (b base) Type() models.GameType { return b.spec.Type }

func (b base) MaxScore() int { return b.spec.MaxScore(b.profile) }

func (b base) Watch() time.Duration { return 0 }

func (b base) Budget() time.Duration { return b.spec.Duration(b.profile) }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", session.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

func unknownAction(action string) error {
	return invalid("action %q not supported by this game", action)
}
