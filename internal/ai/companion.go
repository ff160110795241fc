package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
)

// Reply sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// historyTurns bounds how much chat history is sent along with a message.
const historyTurns = 10

// Completer is the remote model. *Client implements it.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

type ChatRequest struct {
	Message  string
	Religion models.Religion
	UserName string
	Context  []models.ChatMessage
}

type Reply struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Companion speaks as the persona of a religion. Every remote failure
// degrades to content from the bank; callers never see an error.
type Companion struct {
	client Completer
	lib    *content.Library

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCompanion(client Completer, lib *content.Library) *Companion {
	return &Companion{
		client: client,
		lib:    lib,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Persona returns the persona of a religion.
func (c *Companion) Persona(r models.Religion) content.Persona {
	return c.lib.Bank(r).Persona
}

func (c *Companion) GenerateResponse(ctx context.Context, req ChatRequest) Reply {
	bank := c.lib.Bank(req.Religion)
	log := logger.FromContext(ctx).WithPrefix("companion").WithField("religion", bank.Religion)

	system := bank.Persona.SystemPrompt
	if req.UserName != "" {
		system += fmt.Sprintf(" The player's name is %s.", req.UserName)
	}
	messages := []Message{{Role: "system", Content: system}}
	history := req.Context
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, m := range history {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, Message{Role: models.RoleUser, Content: req.Message})

	text, err := c.complete(ctx, messages, 300)
	if err != nil {
		log.WithError(err).Info("using fallback reply")
		return Reply{Text: c.pick(bank.Reply), Source: SourceFallback}
	}
	return Reply{Text: text, Source: SourceAI}
}

func (c *Companion) GenerateHealthTip(ctx context.Context, religion models.Religion) Reply {
	bank := c.lib.Bank(religion)
	messages := []Message{
		{Role: "system", Content: bank.Persona.SystemPrompt},
		{Role: models.RoleUser, Content: "Share one short, practical tip for keeping the mind and body healthy today."},
	}
	text, err := c.complete(ctx, messages, 150)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("companion").WithError(err).Info("using fallback tip")
		return Reply{Text: c.pick(bank.Tip), Source: SourceFallback}
	}
	return Reply{Text: text, Source: SourceAI}
}

type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// GenerateGameQuestion asks for a multiple-choice question about the
// religion, themed on a game type and pitched at a chapter's difficulty.
func (c *Companion) GenerateGameQuestion(ctx context.Context, gameType models.GameType, religion models.Religion, chapter int) models.Question {
	bank := c.lib.Bank(religion)
	log := logger.FromContext(ctx).WithPrefix("companion").WithFields(map[string]any{
		"religion":  bank.Religion,
		"game_type": gameType,
	})

	prompt := fmt.Sprintf(
		"Write one multiple-choice question about %s traditions for a %s exercise at difficulty %d of 5. "+
			"Reply with JSON only: {\"question\": string, \"options\": [4 strings], \"correct_answer\": index}.",
		bank.Religion, gameType.Category(), chapter)
	messages := []Message{
		{Role: "system", Content: bank.Persona.SystemPrompt},
		{Role: models.RoleUser, Content: prompt},
	}

	text, err := c.complete(ctx, messages, 300)
	if err == nil {
		var q models.Question
		if q, err = parseQuestion(text); err == nil {
			q.Source = SourceAI
			return q
		}
	}
	log.WithError(err).Info("using fallback question")
	return c.fallbackQuestion(bank)
}

func (c *Companion) complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if c.client == nil {
		return "", ErrDisabled
	}
	return c.client.Complete(ctx, messages, maxTokens)
}

func (c *Companion) pick(fn func(*rand.Rand) string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.rng)
}

func (c *Companion) fallbackQuestion(bank *content.Bank) models.Question {
	if len(bank.Questions) == 0 {
		return models.Question{
			Question:      "Which of these is a temple building?",
			Options:       []string{bank.Buildings[0].Name, bank.Pairs[0].Meaning},
			CorrectAnswer: 0,
			Source:        SourceFallback,
		}
	}
	c.mu.Lock()
	fq := bank.Questions[c.rng.Intn(len(bank.Questions))]
	c.mu.Unlock()
	return models.Question{
		Question:      fq.Question,
		Options:       append([]string(nil), fq.Options...),
		CorrectAnswer: fq.Answer,
		Source:        SourceFallback,
	}
}

// parseQuestion accepts the model's JSON, with or without a code fence.
func parseQuestion(text string) (models.Question, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			text = text[i : j+1]
		}
	}
	var g generatedQuestion
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return models.Question{}, fmt.Errorf("decode question: %w", err)
	}
	if strings.TrimSpace(g.Question) == "" {
		return models.Question{}, errors.New("question is empty")
	}
	if len(g.Options) < 2 {
		return models.Question{}, fmt.Errorf("question has %d options", len(g.Options))
	}
	if g.CorrectAnswer < 0 || g.CorrectAnswer >= len(g.Options) {
		return models.Question{}, fmt.Errorf("correct answer %d out of range", g.CorrectAnswer)
	}
	return models.Question{Question: g.Question, Options: g.Options, CorrectAnswer: g.CorrectAnswer}, nil
}
