// Package synthesis turns a gloss into a composed sign video.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/glossa/internal/compose"
	"github.com/at-ishikawa/glossa/internal/sign"
)

// ErrInvalidInput reports a request that cannot produce a video: an empty gloss, or a gloss where nothing resolves.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptyGloss is the ErrInvalidInput returned when no gloss was given at all.
var ErrEmptyGloss = fmt.Errorf("%w: gloss is empty", ErrInvalidInput)

const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeFailed       = "failed"
)

type Resolver interface {
	Resolve(ctx context.Context, gloss, sentence string) ([]sign.ResolvedSegment, error)
}

type Composer interface {
	Compose(ctx context.Context, segments []sign.ResolvedSegment) (compose.Artifact, error)
}

// Recorder observes finished requests.
type Recorder interface {
	ObserveSynthesis(outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSynthesis(string, time.Duration) {}

type Service struct {
	resolver Resolver
	composer Composer
	recorder Recorder
}

func NewService(resolver Resolver, composer Composer, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		resolver: resolver,
		composer: composer,
		recorder: recorder,
	}
}

// Synthesize resolves gloss and composes the result into the output artifact.
// It either returns a complete artifact or an error; errors wrap ErrInvalidInput for bad requests.
func (s *Service) Synthesize(ctx context.Context, gloss, sentence string) (compose.Artifact, error) {
	started := time.Now()
	artifact, err := s.synthesize(ctx, gloss, sentence)

	outcome := OutcomeOK
	switch {
	case errors.Is(err, ErrInvalidInput):
		outcome = OutcomeInvalidInput
	case err != nil:
		outcome = OutcomeFailed
	}
	s.recorder.ObserveSynthesis(outcome, time.Since(started))
	return artifact, err
}

func (s *Service) synthesize(ctx context.Context, gloss, sentence string) (compose.Artifact, error) {
	if strings.TrimSpace(gloss) == "" {
		return compose.Artifact{}, ErrEmptyGloss
	}

	segments, err := s.resolver.Resolve(ctx, gloss, sentence)
	if err != nil {
		return compose.Artifact{}, fmt.Errorf("resolver.Resolve() > %w", err)
	}

	artifact, err := s.composer.Compose(ctx, segments)
	if err != nil {
		if errors.Is(err, compose.ErrNoClips) {
			slog.Default().Info("nothing to sign", "gloss", gloss)
			return compose.Artifact{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		slog.Default().Error("composition failed", "gloss", gloss, "error", err)
		return compose.Artifact{}, fmt.Errorf("composer.Compose() > %w", err)
	}
	return artifact, nil
}
