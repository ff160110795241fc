package models

import "time"

// UserProgress is the per-profile aggregate updated on every result.
type UserProgress struct {
	ProfileID       int64            `json:"profile_id"`
	TotalStars      int              `json:"total_stars"`
	CategoryPercent map[Category]int `json:"category_percent"`
	CategoryStars   map[Category]int `json:"-"`
	ConsecutiveDays int              `json:"consecutive_days"`
	TotalGames      int              `json:"total_games_played"`
	AverageScore    int              `json:"average_score"`
	LastPlayedAt    *time.Time       `json:"last_played_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewUserProgress returns the all-zero aggregate created at registration.
func NewUserProgress(profileID int64) UserProgress {
	return UserProgress{
		ProfileID: profileID,
		CategoryPercent: map[Category]int{
			CategoryMemory:   0,
			CategoryReaction: 0,
			CategoryLogic:    0,
			CategoryFocus:    0,
		},
		CategoryStars: map[Category]int{
			CategoryMemory:   0,
			CategoryReaction: 0,
			CategoryLogic:    0,
		},
	}
}

// ChapterState is the derived unlock state of one chapter.
type ChapterState struct {
	Chapter       int  `json:"chapter"`
	RequiredStars int  `json:"required_stars"`
	Unlocked      bool `json:"unlocked"`
}
