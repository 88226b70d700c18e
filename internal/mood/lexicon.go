package mood

import (
	"context"
	"strings"
	"unicode"
)

var (
	positiveWords = map[string]int{
		"good": 1, "nice": 1, "happy": 1, "glad": 1, "calm": 1, "fun": 1, "enjoyed": 1,
		"enjoy": 1, "relaxed": 1, "proud": 1, "grateful": 1, "thankful": 1, "love": 2,
		"loved": 2, "great": 2, "amazing": 2, "wonderful": 2, "fantastic": 2, "awesome": 2,
		"excited": 2, "joy": 2, "perfect": 2, "best": 2, "delighted": 2, "productive": 1,
		"peaceful": 1, "better": 1, "smile": 1, "laughed": 1, "success": 1, "beautiful": 2,
	}
	negativeWords = map[string]int{
		"bad": 1, "sad": 1, "tired": 1, "bored": 1, "annoyed": 1, "worried": 1, "stress": 1,
		"stressed": 1, "lonely": 1, "upset": 1, "sick": 1, "angry": 2, "awful": 2,
		"terrible": 2, "horrible": 2, "hate": 2, "hated": 2, "miserable": 2, "depressed": 2,
		"anxious": 1, "cried": 1, "worst": 2, "failed": 1, "pain": 1, "hurt": 1, "afraid": 1,
		"exhausted": 1, "disappointed": 1, "frustrated": 1, "fight": 1,
	}
	negations    = map[string]bool{"not": true, "no": true, "never": true, "dont": true, "didnt": true, "isnt": true, "wasnt": true, "cant": true}
	intensifiers = map[string]bool{"very": true, "really": true, "so": true, "extremely": true, "super": true}
)

// LexiconAnalyzer scores text against small word lists. It needs no network
// and is the default analyzer.
type LexiconAnalyzer struct{}

func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

func (la *LexiconAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return label(Score(text)), nil
}

// Score sums word weights. A negation flips the next sentiment word within
// three tokens, an intensifier doubles the next one.
func Score(text string) int {
	tokens := tokenize(text)
	score := 0
	negateLeft := 0
	boost := false
	for _, tok := range tokens {
		if negations[tok] {
			negateLeft = 3
			continue
		}
		if intensifiers[tok] {
			boost = true
			continue
		}
		w := positiveWords[tok] - negativeWords[tok]
		if w != 0 {
			if boost {
				w *= 2
			}
			if negateLeft > 0 {
				w = -w
			}
			score += w
			negateLeft = 0
			boost = false
			continue
		}
		if negateLeft > 0 {
			negateLeft--
		}
		boost = false
	}
	return score
}

func label(score int) string {
	switch {
	case score >= 4:
		return VeryPositive
	case score >= 1:
		return Positive
	case score <= -4:
		return VeryNegative
	case score <= -1:
		return Negative
	default:
		return Neutral
	}
}

func tokenize(text string) []string {
	lower := strings.ToLower(strings.ReplaceAll(text, "'", ""))
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
