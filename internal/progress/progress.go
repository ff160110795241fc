// Package progress implements the chapter unlock gate and the incremental
// update of a profile's progress aggregate.
package progress

import (
	"math"
	"time"

	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/models"
)

// levelsPerCategory: two game types per category in each chapter.
const levelsPerCategory = 2

// IsUnlocked reports whether totalStars opens chapter. Chapters outside the
// table are judged against the nearest defined chapter.
func IsUnlocked(chapter, totalStars int) bool {
	return totalStars >= difficulty.ProfileFor(chapter).RequiredStars
}

// LevelUnlocked reports whether the chapter of level is open.
func LevelUnlocked(level, totalStars int) bool {
	return IsUnlocked(difficulty.Resolve(level).Chapter, totalStars)
}

// Chapters returns the unlock state of every chapter.
func Chapters(totalStars int) []models.ChapterState {
	tbl := difficulty.Table()
	out := make([]models.ChapterState, 0, len(tbl))
	for _, p := range tbl {
		out = append(out, models.ChapterState{
			Chapter:       p.Chapter,
			RequiredStars: p.RequiredStars,
			Unlocked:      totalStars >= p.RequiredStars,
		})
	}
	return out
}

// StarsToNext returns how many more stars open the next locked chapter, or
// zero when every chapter is open.
func StarsToNext(totalStars int) int {
	for _, p := range difficulty.Table() {
		if totalStars < p.RequiredStars {
			return p.RequiredStars - totalStars
		}
	}
	return 0
}

// MaxStars is the sum of three stars over every level.
func MaxStars() int {
	return difficulty.MaxLevel * 3
}

func maxCategoryStars() int {
	return difficulty.Chapters() * levelsPerCategory * 3
}

// Apply folds one result into the aggregate. prevBest is the best star count
// previously recorded for the result's level; stars only count once per
// level, so replays add just the improvement.
func Apply(agg models.UserProgress, res models.GameResult, prevBest int, now time.Time) models.UserProgress {
	n := agg.TotalGames
	agg.AverageScore = int(math.Round(float64(agg.AverageScore*n+res.Score) / float64(n+1)))
	agg.TotalGames = n + 1

	gained := res.Stars - prevBest
	if gained < 0 {
		gained = 0
	}
	agg.TotalStars += gained

	if agg.CategoryStars == nil {
		agg.CategoryStars = map[models.Category]int{}
	}
	cat := res.GameType.Category()
	if cat != "" {
		agg.CategoryStars[cat] += gained
	}
	agg.CategoryPercent = categoryPercent(agg)

	agg.ConsecutiveDays = nextStreak(agg.ConsecutiveDays, agg.LastPlayedAt, now)
	played := now
	agg.LastPlayedAt = &played
	agg.UpdatedAt = now
	return agg
}

func categoryPercent(agg models.UserProgress) map[models.Category]int {
	pct := func(stars, max int) int {
		if max <= 0 {
			return 0
		}
		v := int(math.Round(float64(stars) * 100 / float64(max)))
		if v > 100 {
			return 100
		}
		return v
	}
	return map[models.Category]int{
		models.CategoryMemory:   pct(agg.CategoryStars[models.CategoryMemory], maxCategoryStars()),
		models.CategoryReaction: pct(agg.CategoryStars[models.CategoryReaction], maxCategoryStars()),
		models.CategoryLogic:    pct(agg.CategoryStars[models.CategoryLogic], maxCategoryStars()),
		models.CategoryFocus:    pct(agg.TotalStars, MaxStars()),
	}
}

// nextStreak advances the consecutive-days counter. Days are compared in the
// location of now.
func nextStreak(current int, last *time.Time, now time.Time) int {
	if last == nil || current <= 0 {
		return 1
	}
	lastDay := dayOf(last.In(now.Location()))
	today := dayOf(now)
	switch {
	case today.Equal(lastDay):
		return current
	case today.Equal(lastDay.AddDate(0, 0, 1)):
		return current + 1
	default:
		return 1
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
