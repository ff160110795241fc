package models

import "time"

// GameResult is the immutable outcome of one completed session.
type GameResult struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	GameType    GameType  `json:"game_type"`
	Level       int       `json:"level"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	Stars       int       `json:"stars"`
	CompletedAt time.Time `json:"completed_at"`
}

type ResultFilter struct {
	ProfileID int64
	GameType  GameType
	Level     int
	MinStars  int
	Limit     int
	Offset    int
}

// LevelBest tracks the best outcome per level, which is what total stars
// are summed from.
type LevelBest struct {
	Level     int      `json:"level"`
	GameType  GameType `json:"game_type"`
	BestStars int      `json:"best_stars"`
	BestScore int      `json:"best_score"`
}
