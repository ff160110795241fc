package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/scoring"
)

func spec(t *testing.T, g models.GameType) scoring.GameTypeSpec {
	t.Helper()
	s, ok := scoring.SpecFor(g)
	require.True(t, ok, "missing spec for %s", g)
	return s
}

func TestSpecFor_AllCanonicalTypes(t *testing.T) {
	for _, g := range difficulty.GameTypeOrderV1 {
		s := spec(t, g)
		assert.Equal(t, g, s.Type)
		assert.Equal(t, g.Category(), s.Category)
		assert.NotEmpty(t, s.WrongInput)
	}
	_, ok := scoring.SpecFor("unknown")
	assert.False(t, ok)
}

func TestFormulas_PerChapter(t *testing.T) {
	for _, p := range difficulty.Table() {
		ch := float64(p.Chapter)

		s := spec(t, models.MemoryScripture)
		assert.Equal(t, p.ElementCount*20, s.MaxScore(p))
		assert.Zero(t, s.Duration(p))

		s = spec(t, models.MemoryTemple)
		assert.Equal(t, p.ElementCount*20, s.MaxScore(p))
		assert.Equal(t, time.Duration((p.MemoryTime+15)*float64(time.Second)), s.Duration(p))

		s = spec(t, models.ReactionRhythm)
		dur := 20 + (ch-1)*3.75
		assert.Equal(t, time.Duration(dur*float64(time.Second)), s.Duration(p))
		assert.Equal(t, int(dur*5), s.MaxScore(p))

		s = spec(t, models.ReactionLighting)
		assert.Equal(t, p.ElementCount*15, s.MaxScore(p))
		assert.Equal(t, time.Duration(p.ElementCount*p.ReactionWindow)*time.Millisecond, s.Duration(p))

		s = spec(t, models.LogicScripture)
		assert.Equal(t, p.ElementCount*10, s.MaxScore(p))
		assert.Equal(t, time.Duration((60-(ch-1)*3.75)*float64(time.Second)), s.Duration(p))

		s = spec(t, models.LogicSequence)
		assert.Equal(t, (p.Chapter+2)*25, s.MaxScore(p))
		assert.Equal(t, time.Duration(p.Chapter+2)*30*time.Second, s.Duration(p))
	}
}

func TestRhythmMaxScore_Floors(t *testing.T) {
	// chapter 2: 23.75s * 5 = 118.75
	assert.Equal(t, 118, spec(t, models.ReactionRhythm).MaxScore(difficulty.ProfileFor(2)))
	assert.Equal(t, 100, spec(t, models.ReactionRhythm).MaxScore(difficulty.ProfileFor(1)))
}

func TestMemoryTemple_ChapterOne(t *testing.T) {
	p := difficulty.ProfileFor(1)
	s := spec(t, models.MemoryTemple)

	assert.Equal(t, 60, s.MaxScore(p))
	assert.Equal(t, 25*time.Second, s.Duration(p))
	assert.Equal(t, 3, scoring.Stars(50, s.MaxScore(p)))
}

func TestReactionLighting_ChapterThree(t *testing.T) {
	p := difficulty.ProfileFor(3)
	s := spec(t, models.ReactionLighting)

	assert.Equal(t, 90, s.MaxScore(p))
	assert.Equal(t, 4200*time.Millisecond, s.Duration(p))
	assert.Equal(t, 2, scoring.Stars(54, s.MaxScore(p)))
}

func TestStars_Thresholds(t *testing.T) {
	tests := []struct {
		score, max, want int
	}{
		{score: 100, max: 100, want: 3},
		{score: 80, max: 100, want: 3},
		{score: 79, max: 100, want: 2},
		{score: 60, max: 100, want: 2},
		{score: 59, max: 100, want: 1},
		{score: 40, max: 100, want: 1},
		{score: 39, max: 100, want: 0},
		{score: 0, max: 100, want: 0},
		{score: 150, max: 100, want: 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoring.Stars(tt.score, tt.max), "%d/%d", tt.score, tt.max)
	}
}

func TestStars_ZeroMaxScore(t *testing.T) {
	for _, score := range []int{-10, 0, 1, 500} {
		assert.Equal(t, 0, scoring.Stars(score, 0))
	}
	assert.Equal(t, 0, scoring.Stars(10, -5))
}

func TestStars_Monotonic(t *testing.T) {
	for _, max := range []int{1, 7, 60, 90, 118, 175} {
		prev := scoring.Stars(0, max)
		assert.Equal(t, 0, prev)
		for score := 1; score <= max; score++ {
			got := scoring.Stars(score, max)
			assert.GreaterOrEqual(t, got, prev, "score %d of %d", score, max)
			prev = got
		}
		assert.Equal(t, 3, scoring.Stars(max, max))
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, scoring.Clamp(-5))
	assert.Equal(t, 0, scoring.Clamp(0))
	assert.Equal(t, 15, scoring.Clamp(15))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, scoring.Percent(0, 10, 100))
	assert.Equal(t, 0, scoring.Percent(3, 0, 100))
	assert.Equal(t, 50, scoring.Percent(5, 10, 100))
	assert.Equal(t, 33, scoring.Percent(1, 3, 100))
	assert.Equal(t, 100, scoring.Percent(12, 10, 100))
	assert.Equal(t, 0, scoring.Percent(-2, 10, 100))
}

func TestQuestions(t *testing.T) {
	assert.Equal(t, 3, scoring.Questions(difficulty.ProfileFor(1)))
	assert.Equal(t, 7, scoring.Questions(difficulty.ProfileFor(5)))
}
