package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vytor/templemind/internal/ai"
	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/progress"
	"github.com/vytor/templemind/internal/repository"
)

const (
	maxChatMessageLength = 500
	chatContextSize      = 20
	defaultHistoryLimit  = 50
)

// Companion generates persona replies, questions and tips. *ai.Companion
// implements it.
type Companion interface {
	Persona(religion models.Religion) content.Persona
	GenerateResponse(ctx context.Context, req ai.ChatRequest) ai.Reply
	GenerateHealthTip(ctx context.Context, religion models.Religion) ai.Reply
	GenerateGameQuestion(ctx context.Context, gameType models.GameType, religion models.Religion, chapter int) models.Question
}

// ChatResponse is the companion's answer to one message.
type ChatResponse struct {
	Persona content.Persona `json:"persona"`
	Reply   ai.Reply        `json:"reply"`
	Saved   bool            `json:"saved"`
}

// StoryChapter is a chapter of the religion's story with its gate.
type StoryChapter struct {
	content.Chapter
	RequiredStars int  `json:"required_stars"`
	Unlocked      bool `json:"unlocked"`
}

// Story is the religion's story as far as the caller has unlocked it.
type Story struct {
	Religion   models.Religion `json:"religion"`
	Persona    content.Persona `json:"persona"`
	TotalStars int             `json:"total_stars"`
	Chapters   []StoryChapter  `json:"chapters"`
}

// CompanionService handles the AI companion
type CompanionService interface {
	Chat(ctx context.Context, caller models.Identity, message string) (*ChatResponse, error)
	History(ctx context.Context, caller models.Identity, limit int) ([]models.ChatMessage, error)
	ClearHistory(ctx context.Context, caller models.Identity) error
	Question(ctx context.Context, caller models.Identity, gameType string, chapter int) (*models.Question, error)
	Tip(ctx context.Context, caller models.Identity) ai.Reply
	Story(ctx context.Context, caller models.Identity) (*Story, error)
}

type companionService struct {
	companion Companion
	chatRepo  repository.ChatRepository
	progress  ProgressService
	lib       *content.Library
}

// NewCompanionService creates a new CompanionService
func NewCompanionService(companion Companion, chatRepo repository.ChatRepository, progressService ProgressService, lib *content.Library) CompanionService {
	return &companionService{
		companion: companion,
		chatRepo:  chatRepo,
		progress:  progressService,
		lib:       lib,
	}
}

func (s *companionService) Chat(ctx context.Context, caller models.Identity, message string) (*ChatResponse, error) {
	log := logger.FromContext(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.NewValidationError("message", "cannot be empty")
	}
	if utf8.RuneCountInString(message) > maxChatMessageLength {
		return nil, errors.NewValidationError("message", "must be at most 500 characters")
	}

	req := ai.ChatRequest{Message: message, Religion: caller.Religion}
	if !caller.Guest {
		req.UserName = caller.Username
		history, err := s.chatRepo.Recent(ctx, caller.ProfileID, chatContextSize)
		if err != nil {
			// chat still works without context
			log.Warn("failed to load chat history: %v", err)
		}
		req.Context = history
	}

	reply := s.companion.GenerateResponse(ctx, req)
	resp := &ChatResponse{Persona: s.companion.Persona(caller.Religion), Reply: reply}
	if caller.Guest {
		return resp, nil
	}

	now := time.Now().UTC()
	if err := s.chatRepo.Append(ctx,
		models.ChatMessage{ProfileID: caller.ProfileID, Role: models.RoleUser, Content: message, CreatedAt: now},
		models.ChatMessage{ProfileID: caller.ProfileID, Role: models.RoleAssistant, Content: reply.Text, CreatedAt: now},
	); err != nil {
		log.Warn("failed to save chat exchange: %v", err)
		return resp, nil
	}
	resp.Saved = true
	return resp, nil
}

func (s *companionService) History(ctx context.Context, caller models.Identity, limit int) ([]models.ChatMessage, error) {
	if caller.Guest {
		return []models.ChatMessage{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > 200 {
		return nil, errors.NewValidationError("limit", "must be at most 200")
	}
	msgs, err := s.chatRepo.Recent(ctx, caller.ProfileID, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load chat history: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return msgs, nil
}

func (s *companionService) ClearHistory(ctx context.Context, caller models.Identity) error {
	if caller.Guest {
		return nil
	}
	if err := s.chatRepo.Clear(ctx, caller.ProfileID); err != nil {
		logger.FromContext(ctx).Error("failed to clear chat history: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *companionService) Question(ctx context.Context, caller models.Identity, gameType string, chapter int) (*models.Question, error) {
	gt := models.GameType(gameType)
	if gameType == "" {
		gt = models.LogicSequence
	}
	if !gt.Valid() {
		return nil, errors.NewValidationError("game_type", "unknown game type")
	}
	q := s.companion.GenerateGameQuestion(ctx, gt, caller.Religion, difficulty.ClampChapter(chapter))
	return &q, nil
}

func (s *companionService) Tip(ctx context.Context, caller models.Identity) ai.Reply {
	return s.companion.GenerateHealthTip(ctx, caller.Religion)
}

func (s *companionService) Story(ctx context.Context, caller models.Identity) (*Story, error) {
	total, err := s.progress.TotalStars(ctx, caller)
	if err != nil {
		return nil, err
	}
	bank := s.lib.Bank(caller.Religion)
	story := &Story{
		Religion:   bank.Religion,
		Persona:    bank.Persona,
		TotalStars: total,
		Chapters:   make([]StoryChapter, 0, len(bank.Chapters)),
	}
	for _, ch := range bank.Chapters {
		required := difficulty.ProfileFor(ch.Chapter).RequiredStars
		sc := StoryChapter{Chapter: ch, RequiredStars: required, Unlocked: progress.IsUnlocked(ch.Chapter, total)}
		if !sc.Unlocked {
			sc.Story = ""
		}
		story.Chapters = append(story.Chapters, sc)
	}
	return story, nil
}
