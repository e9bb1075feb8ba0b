package sign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/gloss"
	"github.com/at-ishikawa/glossa/internal/inference"
)

const DefaultOracleTimeout = 30 * time.Second

// Pipeline resolves gloss text to ordered clips.
// It holds no per-request state and is safe for concurrent use when its collaborators are.
type Pipeline struct {
	repo       dictionary.Repository
	clips      ClipLocator
	tokenizer  *gloss.Tokenizer
	selector   *SenseSelector
	classifier *EntityClassifier
	speller    *Fingerspeller
	recorder   Recorder
}

type pipelineOptions struct {
	oracleTimeout time.Duration
	recorder      Recorder
}

type Option func(*pipelineOptions)

// WithOracleTimeout bounds every oracle call. Zero disables the bound.
func WithOracleTimeout(timeout time.Duration) Option {
	return func(o *pipelineOptions) {
		o.oracleTimeout = timeout
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(o *pipelineOptions) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

func NewPipeline(repo dictionary.Repository, clips ClipLocator, client inference.Client, opts ...Option) *Pipeline {
	options := pipelineOptions{
		oracleTimeout: DefaultOracleTimeout,
		recorder:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(&options)
	}

	known := func(ctx context.Context, form string) (bool, error) {
		entry, err := repo.FindBySurfaceForm(ctx, form)
		if err != nil {
			return false, err
		}
		return entry != nil, nil
	}

	return &Pipeline{
		repo:       repo,
		clips:      clips,
		tokenizer:  gloss.NewTokenizer(known),
		selector:   NewSenseSelector(client, options.oracleTimeout, options.recorder),
		classifier: NewEntityClassifier(client, options.oracleTimeout, options.recorder),
		speller:    NewFingerspeller(repo, clips, options.recorder),
		recorder:   options.recorder,
	}
}

// Resolve returns the segments for glossText in signing order.
// sentence is the original text, used for proper nouns and sense choice; it may be empty.
// Only store errors are returned. An empty gloss, or one where nothing resolves, yields an empty list.
func (p *Pipeline) Resolve(ctx context.Context, glossText, sentence string) ([]ResolvedSegment, error) {
	tokens, err := p.tokenizer.Tokenize(ctx, glossText)
	if err != nil {
		return nil, fmt.Errorf("tokenizer.Tokenize() > %w", err)
	}
	segments := []ResolvedSegment{}
	if len(tokens) == 0 {
		return segments, nil
	}

	entities := p.classifier.Classify(ctx, glossText, sentence)
	for _, token := range tokens {
		resolved, err := p.resolveToken(ctx, token, sentence, entities)
		if err != nil {
			return nil, err
		}
		segments = append(segments, resolved...)
	}

	slog.Default().Debug("resolved gloss",
		"gloss", glossText,
		"tokens", len(tokens),
		"segments", len(segments),
	)
	return segments, nil
}

func (p *Pipeline) resolveToken(ctx context.Context, token, sentence string, entities EntitySet) ([]ResolvedSegment, error) {
	if entities.Contains(token) {
		segments, err := p.speller.Spell(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("speller.Spell() > %w", err)
		}
		return segments, nil
	}

	entry, err := p.repo.FindBySurfaceForm(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("repo.FindBySurfaceForm(%s) > %w", token, err)
	}
	if entry == nil {
		segments, err := p.speller.Spell(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("speller.Spell() > %w", err)
		}
		return segments, nil
	}
	if len(entry.Definitions) == 0 {
		slog.Default().Debug("entry has no senses", "token", token)
		p.recorder.UnitDropped(DropNoSenses)
		return nil, nil
	}

	sense := entry.Definitions[p.selector.Select(ctx, token, sentence, entry.Definitions)]
	clipPath, ok := p.clips.Lookup(sense.VideoURL)
	if !ok {
		slog.Default().Debug("clip is missing",
			"token", token,
			"meaning", sense.Meaning,
			"video_url", sense.VideoURL,
		)
		p.recorder.UnitDropped(DropMissingClip)
		return nil, nil
	}

	p.recorder.SegmentResolved(RouteSign)
	return []ResolvedSegment{{
		Token:    token,
		ClipPath: clipPath,
		Route:    RouteSign,
	}}, nil
}
