package mood

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

const promptTemplate = `Classify the mood of the following journal entry.
Answer with exactly one of: Very Negative, Negative, Neutral, Positive, Very Positive.
Do not add anything else.

Entry:
%s`

// contentGenerator is the part of genai.Models used here
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiAnalyzer struct {
	models contentGenerator
	model  string
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewGeminiAnalyzerWithGenerator(client.Models, model), nil
}

func NewGeminiAnalyzerWithGenerator(models contentGenerator, model string) *GeminiAnalyzer {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiAnalyzer{
		models: models,
		model:  model,
	}
}

// Analyze returns the model's label, normalized when it is one of the five
// known ones and passed through otherwise.
func (ga *GeminiAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	resp, err := ga.models.GenerateContent(ctx, ga.model, genai.Text(fmt.Sprintf(promptTemplate, text)), nil)
	if err != nil {
		return "", fmt.Errorf("generating mood: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from model")
	}
	return Normalize(resp.Candidates[0].Content.Parts[0].Text), nil
}
