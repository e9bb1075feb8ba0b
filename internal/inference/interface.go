package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client is the language oracle. Every method returns the model's raw reply text;
// callers own parsing and fallback because replies have no guaranteed structure.
type Client interface {
	ChooseSense(ctx context.Context, params ChooseSenseRequest) (string, error)
	FindProperNouns(ctx context.Context, params FindProperNounsRequest) (string, error)
	ConvertToGloss(ctx context.Context, params ConvertToGlossRequest) (string, error)
}

// ChooseSenseRequest asks which of Meanings the Word has in Sentence.
// The reply is expected to be a 1-based index into Meanings.
type ChooseSenseRequest struct {
	Word     string   `json:"word"`
	Sentence string   `json:"sentence"`
	Meanings []string `json:"meanings"`
}

// FindProperNounsRequest asks which words of Gloss are proper nouns, using the source Sentence as reference.
// The reply is expected to be a list such as ["BRAND"].
type FindProperNounsRequest struct {
	Gloss    string `json:"gloss"`
	Sentence string `json:"sentence"`
}

// ConvertToGlossRequest asks for the sign-language gloss of Sentence.
type ConvertToGlossRequest struct {
	Sentence string `json:"sentence"`
	MaxWords int    `json:"max_words"`
}

const (
	DefaultMaxRetryAttempts = 2
)
