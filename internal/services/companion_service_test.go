package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/templemind/internal/ai"
	"github.com/vytor/templemind/internal/content"
	apperrors "github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/services"
	"github.com/vytor/templemind/internal/testutil/mocks"
)

type companionFixture struct {
	svc       services.CompanionService
	companion *mocks.MockCompanion
	chat      *mocks.MockChatRepository
	progress  *mocks.MockProgressService
}

func newCompanionFixture() *companionFixture {
	f := &companionFixture{
		companion: new(mocks.MockCompanion),
		chat:      new(mocks.MockChatRepository),
		progress:  new(mocks.MockProgressService),
	}
	f.svc = services.NewCompanionService(f.companion, f.chat, f.progress, content.MustLoadDefaults())
	return f
}

func TestCompanionService_Chat_Registered(t *testing.T) {
	f := newCompanionFixture()
	ctx := context.Background()
	history := []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}, {Role: models.RoleAssistant, Content: "welcome"}}

	f.chat.On("Recent", mock.Anything, player.ProfileID, 20).Return(history, nil)
	f.companion.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(req ai.ChatRequest) bool {
		return req.Message == "how do I focus?" && req.UserName == "lotus" && len(req.Context) == 2 && req.Religion == models.Taoism
	})).Return(ai.Reply{Text: "Breathe.", Source: ai.SourceAI})
	f.companion.On("Persona", models.Taoism).Return(content.Persona{Name: "Master"})
	f.chat.On("Append", mock.Anything, mock.MatchedBy(func(msgs []models.ChatMessage) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == models.RoleUser && msgs[0].Content == "how do I focus?" &&
			msgs[1].Role == models.RoleAssistant && msgs[1].Content == "Breathe."
	})).Return(nil)

	resp, err := f.svc.Chat(ctx, player, "  how do I focus? ")
	require.NoError(t, err)
	assert.Equal(t, "Breathe.", resp.Reply.Text)
	assert.Equal(t, "Master", resp.Persona.Name)
	assert.True(t, resp.Saved)
	f.chat.AssertNumberOfCalls(t, "Append", 1)
}

func TestCompanionService_Chat_GuestIsNotStored(t *testing.T) {
	f := newCompanionFixture()
	guest := models.GuestIdentity(models.Mazu)

	f.companion.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(req ai.ChatRequest) bool {
		return req.UserName == "" && req.Context == nil
	})).Return(ai.Reply{Text: "Calm seas.", Source: ai.SourceFallback})
	f.companion.On("Persona", models.Mazu).Return(content.Persona{Name: "Mazu"})

	resp, err := f.svc.Chat(context.Background(), guest, "hello")
	require.NoError(t, err)
	assert.False(t, resp.Saved)
	f.chat.AssertNotCalled(t, "Recent", mock.Anything, mock.Anything, mock.Anything)
	f.chat.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCompanionService_Chat_HistoryFailuresAreSoft(t *testing.T) {
	f := newCompanionFixture()

	f.chat.On("Recent", mock.Anything, player.ProfileID, 20).Return(nil, errors.New("db down"))
	f.companion.On("GenerateResponse", mock.Anything, mock.Anything).Return(ai.Reply{Text: "ok", Source: ai.SourceAI})
	f.companion.On("Persona", models.Taoism).Return(content.Persona{})
	f.chat.On("Append", mock.Anything, mock.Anything).Return(errors.New("db down"))

	resp, err := f.svc.Chat(context.Background(), player, "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Reply.Text)
	assert.False(t, resp.Saved)
}

func TestCompanionService_Chat_Validation(t *testing.T) {
	f := newCompanionFixture()

	_, err := f.svc.Chat(context.Background(), player, "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = f.svc.Chat(context.Background(), player, strings.Repeat("a", 501))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestCompanionService_Question(t *testing.T) {
	f := newCompanionFixture()
	q := models.Question{Question: "?", Options: []string{"a", "b"}, Source: ai.SourceFallback}
	f.companion.On("GenerateGameQuestion", mock.Anything, models.LogicSequence, models.Taoism, 5).Return(q)

	got, err := f.svc.Question(context.Background(), player, "", 9)
	require.NoError(t, err)
	assert.Equal(t, "?", got.Question)

	_, err = f.svc.Question(context.Background(), player, "tetris", 1)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestCompanionService_Story(t *testing.T) {
	f := newCompanionFixture()
	f.progress.On("TotalStars", mock.Anything, player).Return(12, nil)

	story, err := f.svc.Story(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, models.Taoism, story.Religion)
	require.Len(t, story.Chapters, 5)
	assert.True(t, story.Chapters[2].Unlocked)
	assert.NotEmpty(t, story.Chapters[2].Story)
	assert.False(t, story.Chapters[3].Unlocked)
	assert.Empty(t, story.Chapters[3].Story, "locked chapters hide their text")
	assert.Equal(t, 18, story.Chapters[3].RequiredStars)
}

func TestCompanionService_History(t *testing.T) {
	f := newCompanionFixture()
	ctx := context.Background()

	msgs, err := f.svc.History(ctx, models.GuestIdentity(""), 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	f.chat.On("Recent", mock.Anything, player.ProfileID, 50).Return([]models.ChatMessage{{ID: 1}}, nil)
	msgs, err = f.svc.History(ctx, player, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	f.chat.On("Clear", mock.Anything, player.ProfileID).Return(nil)
	require.NoError(t, f.svc.ClearHistory(ctx, player))
}
