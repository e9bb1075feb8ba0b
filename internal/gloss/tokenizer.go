// Package gloss turns gloss text into signable tokens and English text into gloss.
package gloss

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// QuestionMark is emitted as a token of its own.
const QuestionMark = "?"

// KnownFunc reports whether the dictionary has an entry for form.
type KnownFunc func(ctx context.Context, form string) (bool, error)

type stage int

const (
	stageRaw stage = iota
	stageCompound
	stageEmit
)

func (s stage) String() string {
	switch s {
	case stageRaw:
		return "raw"
	case stageCompound:
		return "compound"
	case stageEmit:
		return "emit"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

type item struct {
	stage stage
	text  string
}

// Tokenizer splits gloss text into normalized tokens.
// Hyphenated compounds are kept whole only when known reports them.
type Tokenizer struct {
	known KnownFunc
}

func NewTokenizer(known KnownFunc) *Tokenizer {
	return &Tokenizer{known: known}
}

// Tokenize returns the tokens of text in order. Only a failing KnownFunc returns an error.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	fields := strings.Fields(text)
	queue := make([]item, 0, len(fields))
	for _, field := range fields {
		queue = append(queue, item{stage: stageRaw, text: field})
	}

	tokens := make([]string, 0, len(fields))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		next, err := t.step(ctx, current)
		if err != nil {
			return nil, err
		}
		if current.stage == stageEmit {
			tokens = append(tokens, current.text)
			continue
		}
		// Derived items replace the current one at the head to keep order.
		queue = append(next, queue...)
	}
	return tokens, nil
}

func (t *Tokenizer) step(ctx context.Context, current item) ([]item, error) {
	switch current.stage {
	case stageRaw:
		return splitQuestion(current.text), nil
	case stageCompound:
		return t.splitCompound(ctx, current.text)
	case stageEmit:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown tokenizer stage %s", current.stage)
}

func splitQuestion(raw string) []item {
	word := trimPunctuation(strings.ToLower(raw))
	if !strings.Contains(word, QuestionMark) {
		if word == "" {
			return nil
		}
		return []item{{stage: stageCompound, text: word}}
	}

	var items []item
	if remainder := trimPunctuation(strings.ReplaceAll(word, QuestionMark, "")); remainder != "" {
		items = append(items, item{stage: stageCompound, text: remainder})
	}
	return append(items, item{stage: stageEmit, text: QuestionMark})
}

func (t *Tokenizer) splitCompound(ctx context.Context, word string) ([]item, error) {
	if !strings.Contains(word, "-") {
		return []item{{stage: stageEmit, text: word}}, nil
	}

	if t.known != nil {
		ok, err := t.known(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("known(%s) > %w", word, err)
		}
		if ok {
			return []item{{stage: stageEmit, text: word}}, nil
		}
	}

	var items []item
	for _, part := range strings.Split(word, "-") {
		for _, p := range strings.Fields(part) {
			if p = trimPunctuation(p); p != "" {
				items = append(items, item{stage: stageEmit, text: p})
			}
		}
	}
	return items, nil
}

func trimPunctuation(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		if r == '?' {
			return false
		}
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
