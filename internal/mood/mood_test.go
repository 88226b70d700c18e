package mood_test

import (
	"context"
	"errors"
	"testing"

	"github.com/limbo/journal/internal/mood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestLexiconAnalyzer(t *testing.T) {
	testCases := []struct {
		Desc     string
		Text     string
		Expected string
	}{
		{Desc: "plain positive", Text: "It was a good day", Expected: mood.Positive},
		{Desc: "strong positive", Text: "Amazing trip, I loved every minute. Wonderful people!", Expected: mood.VeryPositive},
		{Desc: "plain negative", Text: "Felt tired and a bit sad.", Expected: mood.Negative},
		{Desc: "strong negative", Text: "Awful, terrible day. I hate it.", Expected: mood.VeryNegative},
		{Desc: "negation flips", Text: "The meeting was not good", Expected: mood.Negative},
		{Desc: "apostrophe negation", Text: "I don't feel bad at all", Expected: mood.Positive},
		{Desc: "intensifier", Text: "really really happy", Expected: mood.Positive},
		{Desc: "no sentiment words", Text: "Went to the store, bought milk.", Expected: mood.Neutral},
		{Desc: "mixed cancels", Text: "good start, bad ending", Expected: mood.Neutral},
	}
	la := mood.NewLexiconAnalyzer()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			got, err := la.Analyze(context.Background(), tc.Text)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, got)
		})
	}
	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := la.Analyze(ctx, "good")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		Desc     string
		Raw      string
		Expected string
	}{
		{Desc: "canonical", Raw: "Positive", Expected: "Positive"},
		{Desc: "lower case with dot", Raw: " very positive.\n", Expected: "Very Positive"},
		{Desc: "snake case", Raw: "VERY_NEGATIVE", Expected: "Very Negative"},
		{Desc: "open vocabulary passes through", Raw: " Nostalgic ", Expected: "Nostalgic"},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Expected, mood.Normalize(tc.Raw))
		})
	}
}

type generatorMock struct {
	answer string
	err    error
	model  string
	prompt string
}

func (g *generatorMock) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		g.prompt = contents[0].Parts[0].Text
	}
	if g.err != nil {
		return nil, g.err
	}
	if g.answer == "" {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: g.answer}}}},
		},
	}, nil
}

func TestGeminiAnalyzer(t *testing.T) {
	ctx := context.Background()
	t.Run("answer normalized", func(t *testing.T) {
		gen := &generatorMock{answer: "very positive\n"}
		ga := mood.NewGeminiAnalyzerWithGenerator(gen, "")
		got, err := ga.Analyze(ctx, "best day ever")
		require.NoError(t, err)
		assert.Equal(t, mood.VeryPositive, got)
		assert.Equal(t, mood.DefaultGeminiModel, gen.model)
		assert.Contains(t, gen.prompt, "best day ever")
	})
	t.Run("api error", func(t *testing.T) {
		ga := mood.NewGeminiAnalyzerWithGenerator(&generatorMock{err: errors.New("quota")}, "gemini-test")
		_, err := ga.Analyze(ctx, "text")
		assert.Error(t, err)
	})
	t.Run("no candidates", func(t *testing.T) {
		ga := mood.NewGeminiAnalyzerWithGenerator(&generatorMock{}, "gemini-test")
		_, err := ga.Analyze(ctx, "text")
		assert.Error(t, err)
	})
	t.Run("missing key", func(t *testing.T) {
		_, err := mood.NewGeminiAnalyzer(ctx, "", "")
		assert.Error(t, err)
	})
}
