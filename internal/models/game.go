package models

// GameType identifies one of the six mini-games.
type GameType string

const (
	MemoryScripture  GameType = "memory-scripture"
	MemoryTemple     GameType = "memory-temple"
	ReactionRhythm   GameType = "reaction-rhythm"
	ReactionLighting GameType = "reaction-lighting"
	LogicScripture   GameType = "logic-scripture"
	LogicSequence    GameType = "logic-sequence"
)

// Category groups game types for progress reporting.
type Category string

const (
	CategoryMemory   Category = "memory"
	CategoryReaction Category = "reaction"
	CategoryLogic    Category = "logic"
	CategoryFocus    Category = "focus"
)

// Category returns the category a game type reports progress under.
func (g GameType) Category() Category {
	switch g {
	case MemoryScripture, MemoryTemple:
		return CategoryMemory
	case ReactionRhythm, ReactionLighting:
		return CategoryReaction
	case LogicScripture, LogicSequence:
		return CategoryLogic
	default:
		return ""
	}
}

func (g GameType) Valid() bool {
	return g.Category() != ""
}
