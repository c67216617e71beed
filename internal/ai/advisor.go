package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-financer/internal/config"
	"ai-financer/internal/ledger"
	"ai-financer/internal/models"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

const advisorSystemPrompt = "You are a friendly, professional financial advisor AI. Write responses in a conversational, easy-to-read style. " +
	"Use short paragraphs, bullet points, and clear formatting. Be encouraging and helpful, not judgmental. " +
	"Always reference specific numbers from the user's data when possible."

// Advisor answers free-form questions about the user's finances.
type Advisor struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func NewAdvisor(cfg config.AIConfig, log zerolog.Logger) *Advisor {
	return &Advisor{
		client: newClient(cfg.ChatAPIKey, cfg),
		model:  cfg.ChatModel,
		log:    log.With().Str("component", "advisor").Logger(),
	}
}

func (a *Advisor) Ask(ctx context.Context, question string, incomes, expenses []models.Record) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if a.client == nil {
		return "", ErrNotConfigured
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: advisorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: advisorPrompt(question, ledger.Summarize(incomes, expenses))},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		err = classify(err, ErrService)
		a.log.Warn().Err(err).Msg("assistant request failed")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyResponse
	}
	return answer, nil
}

func monthJSON(m map[string]decimal.Decimal) string {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.InexactFloat64()
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func advisorPrompt(question string, s ledger.Summary) string {
	var b strings.Builder
	b.WriteString("Analyze this financial data and provide helpful, easy-to-understand advice.\n\n")
	b.WriteString("Financial Summary:\n")
	fmt.Fprintf(&b, "- Total Income: ₹%s\n", s.TotalIncome.StringFixed(2))
	fmt.Fprintf(&b, "- Total Expenses: ₹%s\n", s.TotalExpense.StringFixed(2))
	fmt.Fprintf(&b, "- Balance: ₹%s\n", s.Balance.StringFixed(2))
	fmt.Fprintf(&b, "- Income Records: %d\n", s.IncomeCount)
	fmt.Fprintf(&b, "- Expense Records: %d\n\n", s.ExpenseCount)
	fmt.Fprintf(&b, "Income Trends by Month: %s\n", monthJSON(s.IncomeByMonth))
	fmt.Fprintf(&b, "Expense Trends by Month: %s\n\n", monthJSON(s.ExpenseByMonth))
	fmt.Fprintf(&b, "User Question: %s\n\n", question)
	b.WriteString("Answer in a friendly, conversational tone: short paragraphs, bullet points for lists, simple language, " +
		"and specific numbers from the data.\n\nAnswer:")
	return b.String()
}
