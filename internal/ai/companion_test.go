package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/models"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	args := m.Called(ctx, messages, maxTokens)
	return args.String(0), args.Error(1)
}

var lib = content.MustLoadDefaults()

func TestGenerateResponse_UsesPersonaAndHistory(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []Message) bool {
		return len(msgs) == 4 &&
			msgs[0].Role == "system" &&
			msgs[0].Content == lib.Bank(models.Taoism).Persona.SystemPrompt+" The player's name is Mei." &&
			msgs[1].Content == "earlier question" &&
			msgs[3].Content == "How do I rest?"
	}), 300).Return("Like water, rest in low places.", nil)

	c := NewCompanion(m, lib)
	reply := c.GenerateResponse(context.Background(), ChatRequest{
		Message:  "How do I rest?",
		Religion: models.Taoism,
		UserName: "Mei",
		Context: []models.ChatMessage{
			{Role: models.RoleUser, Content: "earlier question"},
			{Role: models.RoleAssistant, Content: "earlier answer"},
		},
	})

	assert.Equal(t, Reply{Text: "Like water, rest in low places.", Source: SourceAI}, reply)
	m.AssertExpectations(t)
}

func TestGenerateResponse_TrimsHistory(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []Message) bool {
		return len(msgs) == historyTurns+2
	}), 300).Return("ok", nil)

	history := make([]models.ChatMessage, 25)
	for i := range history {
		history[i] = models.ChatMessage{Role: models.RoleUser, Content: "x"}
	}
	c := NewCompanion(m, lib)
	c.GenerateResponse(context.Background(), ChatRequest{Message: "hi", Religion: models.Mazu, Context: history})
	m.AssertExpectations(t)
}

func TestGenerateResponse_Fallback(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	c := NewCompanion(m, lib)
	reply := c.GenerateResponse(context.Background(), ChatRequest{Message: "hello", Religion: models.Mazu})
	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, lib.Bank(models.Mazu).Replies, reply.Text)
}

func TestCompanion_NilClientFallsBack(t *testing.T) {
	c := NewCompanion(nil, lib)
	assert.Equal(t, SourceFallback, c.GenerateHealthTip(context.Background(), models.Buddhism).Source)

	q := c.GenerateGameQuestion(context.Background(), models.LogicSequence, models.Buddhism, 2)
	assert.Equal(t, SourceFallback, q.Source)
	assert.NotEmpty(t, q.Question)
	assert.GreaterOrEqual(t, q.CorrectAnswer, 0)
	assert.Less(t, q.CorrectAnswer, len(q.Options))
}

func TestGenerateGameQuestion_ParsesModelOutput(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything, 300).Return(
		"```json\n{\"question\": \"Who is Mazu?\", \"options\": [\"A sea goddess\", \"A mountain\", \"A river\", \"A bird\"], \"correct_answer\": 0}\n```", nil)

	c := NewCompanion(m, lib)
	q := c.GenerateGameQuestion(context.Background(), models.MemoryScripture, models.Mazu, 1)
	assert.Equal(t, models.Question{
		Question:      "Who is Mazu?",
		Options:       []string{"A sea goddess", "A mountain", "A river", "A bird"},
		CorrectAnswer: 0,
		Source:        SourceAI,
	}, q)
}

func TestGenerateGameQuestion_InvalidOutputFallsBack(t *testing.T) {
	for _, out := range []string{
		"I cannot answer that",
		`{"question": "Q", "options": ["only one"], "correct_answer": 0}`,
		`{"question": "Q", "options": ["a", "b"], "correct_answer": 5}`,
		`{"question": "", "options": ["a", "b"], "correct_answer": 0}`,
	} {
		m := &mockCompleter{}
		m.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(out, nil)
		q := NewCompanion(m, lib).GenerateGameQuestion(context.Background(), models.LogicSequence, models.Taoism, 3)
		assert.Equal(t, SourceFallback, q.Source, out)
	}
}

func TestParseQuestion(t *testing.T) {
	q, err := parseQuestion(`Sure! {"question": "Q?", "options": ["a", "b", "c"], "correct_answer": 2} Hope it helps.`)
	require.NoError(t, err)
	assert.Equal(t, 2, q.CorrectAnswer)
	assert.Len(t, q.Options, 3)
}
