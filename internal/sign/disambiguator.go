package sign

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/inference"
)

// SenseSelector picks which sense of a polysemous word applies in a sentence.
type SenseSelector struct {
	client   inference.Client
	timeout  time.Duration
	recorder Recorder
}

func NewSenseSelector(client inference.Client, timeout time.Duration, recorder Recorder) *SenseSelector {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &SenseSelector{
		client:   client,
		timeout:  timeout,
		recorder: recorder,
	}
}

// Select returns the index of the sense to use.
// The oracle is asked only for words with several senses and a non-empty sentence.
func (s *SenseSelector) Select(ctx context.Context, word, sentence string, senses []dictionary.SenseDefinition) int {
	if len(senses) <= 1 || strings.TrimSpace(sentence) == "" {
		return 0
	}

	meanings := make([]string, len(senses))
	for i, sense := range senses {
		meanings[i] = sense.Meaning
	}

	callCtx, cancel := withOracleTimeout(ctx, s.timeout)
	defer cancel()
	reply, err := s.client.ChooseSense(callCtx, inference.ChooseSenseRequest{
		Word:     word,
		Sentence: sentence,
		Meanings: meanings,
	})
	if err != nil {
		slog.Default().Warn("sense oracle failed, using the first sense",
			"word", word,
			"error", err,
		)
		s.recorder.OracleDegraded(CallChooseSense)
		reply = ""
	}

	index, ok := parseSenseReply(reply, len(senses))
	if !ok && err == nil {
		slog.Default().Warn("sense oracle reply is not a number, using the first sense",
			"word", word,
			"reply", reply,
		)
		s.recorder.OracleDegraded(CallChooseSense)
	}
	slog.Default().Debug("chose sense",
		"word", word,
		"index", index,
		"meaning", meanings[index],
	)
	return index
}

// ParseSenseReply turns a 1-based oracle reply into a sense index in [0, n-1].
// Out-of-range numbers are clamped; replies that are not numbers select 0.
func ParseSenseReply(reply string, n int) int {
	index, _ := parseSenseReply(reply, n)
	return index
}

func parseSenseReply(reply string, n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, reply))

	k, err := strconv.Atoi(cleaned)
	if errors.Is(err, strconv.ErrRange) && isDigits(cleaned) {
		// too large for int, still a number past the last sense
		return n - 1, true
	}
	if err != nil {
		return 0, false
	}
	return max(0, min(k-1, n-1)), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
