package gloss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/glossa/internal/inference"
)

var (
	ErrEmptyText    = errors.New("text is empty")
	ErrTooManyWords = errors.New("text has too many words")
	ErrEmptyGloss   = errors.New("oracle returned an empty gloss")
)

const DefaultMaxWords = 50

var whWords = map[string]struct{}{
	"what":  {},
	"where": {},
	"who":   {},
	"when":  {},
	"why":   {},
	"which": {},
	"whom":  {},
	"how":   {},
	"whose": {},
}

// Converter turns English text into gloss through the oracle.
type Converter struct {
	client   inference.Client
	maxWords int
}

func NewConverter(client inference.Client, maxWords int) *Converter {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Converter{
		client:   client,
		maxWords: maxWords,
	}
}

func (c *Converter) MaxWords() int {
	return c.maxWords
}

func (c *Converter) Convert(ctx context.Context, text string) (string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", ErrEmptyText
	}
	if len(words) > c.maxWords {
		return "", fmt.Errorf("%w: %d words, limit is %d", ErrTooManyWords, len(words), c.maxWords)
	}

	reply, err := c.client.ConvertToGloss(ctx, inference.ConvertToGlossRequest{
		Sentence: strings.Join(words, " "),
		MaxWords: c.maxWords,
	})
	if err != nil {
		return "", fmt.Errorf("client.ConvertToGloss() > %w", err)
	}

	gloss := PostProcess(reply)
	if gloss == "" {
		return "", ErrEmptyGloss
	}
	slog.Default().Debug("converted text to gloss", "text", text, "gloss", gloss)
	return gloss, nil
}

// PostProcess cleans an oracle gloss reply.
// A question mark after a trailing WH-word is dropped since the WH-word already marks the question.
func PostProcess(reply string) string {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "ASL Gloss:"))
	cleaned = strings.Trim(cleaned, `"`)
	cleaned = strings.TrimRight(cleaned, ".,")

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return ""
	}
	last := strings.ToLower(strings.TrimRight(words[len(words)-1], "?"))
	if _, ok := whWords[last]; ok && strings.HasSuffix(cleaned, "?") {
		cleaned = cleaned[:len(cleaned)-1]
	}
	return strings.TrimSpace(cleaned)
}
