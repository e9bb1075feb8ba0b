package sign

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/glossa/internal/inference"
)

// EntitySet holds lowercased proper nouns of one request. It is read-only once built.
type EntitySet map[string]struct{}

func (s EntitySet) Contains(token string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// EntityClassifier asks the oracle which gloss words are proper nouns.
type EntityClassifier struct {
	client   inference.Client
	timeout  time.Duration
	recorder Recorder
}

func NewEntityClassifier(client inference.Client, timeout time.Duration, recorder Recorder) *EntityClassifier {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &EntityClassifier{
		client:   client,
		timeout:  timeout,
		recorder: recorder,
	}
}

// Classify never fails: oracle errors and malformed replies yield an empty set.
func (c *EntityClassifier) Classify(ctx context.Context, gloss, sentence string) EntitySet {
	callCtx, cancel := withOracleTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.client.FindProperNouns(callCtx, inference.FindProperNounsRequest{
		Gloss:    gloss,
		Sentence: sentence,
	})
	if err != nil {
		slog.Default().Warn("proper noun oracle failed, assuming none",
			"gloss", gloss,
			"error", err,
		)
		c.recorder.OracleDegraded(CallFindProperNouns)
		return EntitySet{}
	}

	entities, ok := parseProperNouns(reply)
	if !ok {
		slog.Default().Warn("proper noun oracle reply is not a list, assuming none",
			"gloss", gloss,
			"reply", reply,
		)
		c.recorder.OracleDegraded(CallFindProperNouns)
	}
	return entities
}

// ParseProperNouns reads a list reply such as ["BRAND"] or ['Brand'].
// Anything that is not a list of strings yields an empty set.
func ParseProperNouns(reply string) EntitySet {
	entities, _ := parseProperNouns(reply)
	return entities
}

func parseProperNouns(reply string) (EntitySet, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return EntitySet{}, false
	}

	var items []any
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		if err := json.Unmarshal([]byte(strings.ReplaceAll(trimmed, "'", `"`)), &items); err != nil {
			return EntitySet{}, false
		}
	}

	entities := make(EntitySet, len(items))
	for _, item := range items {
		word, ok := item.(string)
		if !ok {
			return EntitySet{}, false
		}
		if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
			entities[word] = struct{}{}
		}
	}
	return entities, true
}
