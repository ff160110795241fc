// Package scoring holds the per game type score and duration formulas and the
// star classifier.
package scoring

import (
	"math"
	"time"

	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/models"
)

// Point awards shared by the game rules.
const (
	MatchPoints    = 20
	WrongPenalty   = 5
	LampPoints     = 15
	LinePoints     = 10
	QuestionPoints = 25

	rhythmPointsPerSecond = 5
)

// QuestionTime is the answer budget of every logic-sequence question.
const QuestionTime = 30 * time.Second

// WrongInputPolicy declares what a wrong input does to a session.
type WrongInputPolicy string

const (
	// Penalize deducts points and play continues.
	Penalize WrongInputPolicy = "penalize"
	// EndAttempt completes the session immediately.
	EndAttempt WrongInputPolicy = "end_attempt"
	// ConsumeRound awards nothing and moves to the next round.
	ConsumeRound WrongInputPolicy = "consume_round"
	// ScoreAtSubmit has no per-input judgement; the final answer is scored.
	ScoreAtSubmit WrongInputPolicy = "score_at_submit"
)

// GameTypeSpec is the static configuration of one game type. Duration and
// MaxScore depend on the difficulty profile only.
type GameTypeSpec struct {
	Type       models.GameType  `json:"type"`
	Category   models.Category  `json:"category"`
	WrongInput WrongInputPolicy `json:"wrong_input"`

	duration func(difficulty.Profile) time.Duration
	maxScore func(difficulty.Profile) int
}

// Duration is the time budget of a session; zero means unbounded.
func (s GameTypeSpec) Duration(p difficulty.Profile) time.Duration {
	return s.duration(p)
}

// MaxScore is the best achievable score for the profile.
func (s GameTypeSpec) MaxScore(p difficulty.Profile) int {
	return s.maxScore(p)
}

// Questions is the number of rounds of a logic-sequence session.
func Questions(p difficulty.Profile) int {
	return p.Chapter + 2
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func rhythmDuration(p difficulty.Profile) time.Duration {
	return seconds(20 + float64(p.Chapter-1)*3.75)
}

var specs = map[models.GameType]GameTypeSpec{
	models.MemoryScripture: {
		Type:       models.MemoryScripture,
		Category:   models.CategoryMemory,
		WrongInput: Penalize,
		duration:   func(difficulty.Profile) time.Duration { return 0 },
		maxScore:   func(p difficulty.Profile) int { return p.ElementCount * MatchPoints },
	},
	models.MemoryTemple: {
		Type:       models.MemoryTemple,
		Category:   models.CategoryMemory,
		WrongInput: Penalize,
		duration:   func(p difficulty.Profile) time.Duration { return seconds(p.MemoryTime + 15) },
		maxScore:   func(p difficulty.Profile) int { return p.ElementCount * MatchPoints },
	},
	models.ReactionRhythm: {
		Type:       models.ReactionRhythm,
		Category:   models.CategoryReaction,
		WrongInput: Penalize,
		duration:   rhythmDuration,
		maxScore: func(p difficulty.Profile) int {
			return int(math.Floor(rhythmDuration(p).Seconds() * rhythmPointsPerSecond))
		},
	},
	models.ReactionLighting: {
		Type:       models.ReactionLighting,
		Category:   models.CategoryReaction,
		WrongInput: EndAttempt,
		duration: func(p difficulty.Profile) time.Duration {
			return time.Duration(p.ElementCount) * p.ReactionDuration()
		},
		maxScore: func(p difficulty.Profile) int { return p.ElementCount * LampPoints },
	},
	models.LogicScripture: {
		Type:       models.LogicScripture,
		Category:   models.CategoryLogic,
		WrongInput: ScoreAtSubmit,
		duration:   func(p difficulty.Profile) time.Duration { return seconds(60 - float64(p.Chapter-1)*3.75) },
		maxScore:   func(p difficulty.Profile) int { return p.ElementCount * LinePoints },
	},
	models.LogicSequence: {
		Type:       models.LogicSequence,
		Category:   models.CategoryLogic,
		WrongInput: ConsumeRound,
		duration:   func(p difficulty.Profile) time.Duration { return time.Duration(Questions(p)) * QuestionTime },
		maxScore:   func(p difficulty.Profile) int { return Questions(p) * QuestionPoints },
	},
}

// SpecFor returns the spec of a game type.
func SpecFor(g models.GameType) (GameTypeSpec, bool) {
	s, ok := specs[g]
	return s, ok
}

// Clamp keeps a running score at or above zero.
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	return score
}

// Percent converts correct/total into a share of maxScore, rounded down.
func Percent(correct, total, maxScore int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	if correct > total {
		correct = total
	}
	return maxScore * correct / total
}

// Stars classifies a score against its maximum: 80% and above is three
// stars, 60% two, 40% one.
func Stars(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	pct := float64(score) / float64(maxScore) * 100
	switch {
	case pct >= 80:
		return 3
	case pct >= 60:
		return 2
	case pct >= 40:
		return 1
	default:
		return 0
	}
}
