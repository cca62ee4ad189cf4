package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"kosht/internal/core"
)

// Categorizer predicts a spending category from a transaction description.
// Implementations must only ever return categories from the core
// enumeration.
type Categorizer interface {
	Categorize(ctx context.Context, description string) (core.Category, error)
}

// GeminiCategorizer asks a Gemini model to classify a transaction
// description into one of the known categories.
type GeminiCategorizer struct {
	client *genai.Client
	model  string
}

func NewGeminiCategorizer(ctx context.Context, apiKey, model string) (*GeminiCategorizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCategorizer{client: client, model: model}, nil
}

func (g *GeminiCategorizer) Categorize(ctx context.Context, description string) (core.Category, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(description)},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", fmt.Errorf("empty response from model")
	}

	category, err := parseModelAnswer(raw)
	if err != nil {
		return "", fmt.Errorf("parse model answer: %w", err)
	}
	return category, nil
}

// buildPrompt lists the allowed categories grouped by bucket and demands
// a bare single-token answer.
func buildPrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are a personal finance transaction categorizer.\n\n")
	b.WriteString("Task: assign the expense description below to EXACTLY ONE of the following categories.\n\n")

	for _, bucket := range core.Buckets {
		fmt.Fprintf(&b, "%s (%d%% of income):\n", bucket, bucket.Percentage())
		for _, c := range core.CategoriesIn(bucket) {
			b.WriteString("  - " + string(c) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("RULES:\n")
	b.WriteString("1. Answer with the category name ONLY, exactly as written above (case-sensitive).\n")
	b.WriteString("2. No punctuation, no explanation, no Markdown, no code fences.\n")
	b.WriteString("3. If unsure, answer OTHER.\n\n")
	b.WriteString("Description: " + description + "\n")
	return b.String()
}

// parseModelAnswer cleans up fences and stray text the model may emit
// despite the instructions and validates the result against the
// enumeration.
func parseModelAnswer(raw string) (core.Category, error) {
	s := strings.TrimSpace(raw)

	// Handle ```...``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// First token only; models occasionally append commentary.
	if idx := strings.IndexAny(s, " \t\n"); idx != -1 {
		s = s[:idx]
	}
	s = strings.ToUpper(strings.Trim(s, `."'`))

	return core.ParseCategory(s)
}
