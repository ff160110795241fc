// Package difficulty maps level numbers to chapters, game types and the
// per-chapter tuning parameters.
package difficulty

import (
	"time"

	"github.com/vytor/templemind/internal/models"
)

const (
	// GamesPerChapter is the number of game types played in every chapter.
	GamesPerChapter = 6
	// MaxLevel is the last level of the story.
	MaxLevel = 30
	// OrderVersion identifies GameTypeOrderV1. Bump it together with a new
	// list; stored levels are only meaningful against the version they were
	// recorded with.
	OrderVersion = 1
)

// GameTypeOrderV1 is the canonical game type order within a chapter.
// Level L plays GameTypeOrderV1[(L-1) % 6]. Never reorder this array.
var GameTypeOrderV1 = [GamesPerChapter]models.GameType{
	models.MemoryScripture,
	models.MemoryTemple,
	models.ReactionRhythm,
	models.ReactionLighting,
	models.LogicScripture,
	models.LogicSequence,
}

// Profile holds the tuning parameters shared by every game of a chapter.
type Profile struct {
	Chapter         int     `json:"chapter"`
	MemoryTime      float64 `json:"memory_time_seconds"`
	ReactionWindow  int     `json:"reaction_window_ms"`
	ElementCount    int     `json:"element_count"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
	RequiredStars   int     `json:"required_stars"`
}

// MemoryDuration is MemoryTime as a time.Duration.
func (p Profile) MemoryDuration() time.Duration {
	return time.Duration(p.MemoryTime * float64(time.Second))
}

// ReactionDuration is ReactionWindow as a time.Duration.
func (p Profile) ReactionDuration() time.Duration {
	return time.Duration(p.ReactionWindow) * time.Millisecond
}

var table = [...]Profile{
	{Chapter: 1, MemoryTime: 10, ReactionWindow: 1000, ElementCount: 3, SpeedMultiplier: 1.0, RequiredStars: 0},
	{Chapter: 2, MemoryTime: 8, ReactionWindow: 850, ElementCount: 4, SpeedMultiplier: 1.2, RequiredStars: 6},
	{Chapter: 3, MemoryTime: 7, ReactionWindow: 700, ElementCount: 6, SpeedMultiplier: 1.4, RequiredStars: 12},
	{Chapter: 4, MemoryTime: 6, ReactionWindow: 550, ElementCount: 8, SpeedMultiplier: 1.6, RequiredStars: 18},
	{Chapter: 5, MemoryTime: 5, ReactionWindow: 400, ElementCount: 10, SpeedMultiplier: 1.8, RequiredStars: 24},
}

// Chapters is the number of defined chapters.
func Chapters() int {
	return len(table)
}

// Table returns a copy of the difficulty table ordered by chapter.
func Table() []Profile {
	out := make([]Profile, len(table))
	copy(out, table[:])
	return out
}

// ClampChapter maps any chapter number onto the defined range.
func ClampChapter(chapter int) int {
	if chapter < 1 {
		return 1
	}
	if chapter > len(table) {
		return len(table)
	}
	return chapter
}

// ProfileFor returns the profile of a chapter. Chapters outside the table
// reuse the nearest defined chapter.
func ProfileFor(chapter int) Profile {
	return table[ClampChapter(chapter)-1]
}

// Level is the derived descriptor of a level number.
type Level struct {
	Level         int             `json:"level"`
	Chapter       int             `json:"chapter"`
	GameTypeIndex int             `json:"game_type_index"`
	GameType      models.GameType `json:"game_type"`
	Profile       Profile         `json:"difficulty"`
}

// Resolve maps a level number to its chapter, game type and profile.
// Levels below 1 resolve as level 1; levels past the table keep cycling game
// types on the last chapter's profile.
func Resolve(level int) Level {
	if level < 1 {
		level = 1
	}
	chapter := ClampChapter((level + GamesPerChapter - 1) / GamesPerChapter)
	idx := (level - 1) % GamesPerChapter
	return Level{
		Level:         level,
		Chapter:       chapter,
		GameTypeIndex: idx,
		GameType:      GameTypeOrderV1[idx],
		Profile:       ProfileFor(chapter),
	}
}

// LevelFor returns the level number that plays gameType in chapter.
func LevelFor(chapter int, gameType models.GameType) (int, bool) {
	chapter = ClampChapter(chapter)
	for i, g := range GameTypeOrderV1 {
		if g == gameType {
			return (chapter-1)*GamesPerChapter + i + 1, true
		}
	}
	return 0, false
}

// All returns descriptors for levels 1..MaxLevel.
func All() []Level {
	out := make([]Level, 0, MaxLevel)
	for l := 1; l <= MaxLevel; l++ {
		out = append(out, Resolve(l))
	}
	return out
}
