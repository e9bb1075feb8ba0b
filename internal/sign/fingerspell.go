package sign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/glossa/internal/dictionary"
)

// Fingerspeller spells a token one character at a time using single-character entries.
type Fingerspeller struct {
	repo     dictionary.Repository
	clips    ClipLocator
	recorder Recorder
}

func NewFingerspeller(repo dictionary.Repository, clips ClipLocator, recorder Recorder) *Fingerspeller {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Fingerspeller{
		repo:     repo,
		clips:    clips,
		recorder: recorder,
	}
}

// Spell returns one segment per character that has a clip, in character order.
// Characters without an entry, sense or clip are skipped.
func (f *Fingerspeller) Spell(ctx context.Context, token string) ([]ResolvedSegment, error) {
	var segments []ResolvedSegment
	for _, r := range token {
		char := string(r)
		entry, err := f.repo.FindBySurfaceForm(ctx, char)
		if err != nil {
			return nil, fmt.Errorf("repo.FindBySurfaceForm(%s) > %w", char, err)
		}
		if entry == nil || len(entry.Definitions) == 0 {
			slog.Default().Debug("no sign for character", "token", token, "character", char)
			f.recorder.UnitDropped(DropUnknownChar)
			continue
		}

		clipPath, ok := f.clips.Lookup(entry.Definitions[0].VideoURL)
		if !ok {
			slog.Default().Debug("clip is missing",
				"token", token,
				"character", char,
				"video_url", entry.Definitions[0].VideoURL,
			)
			f.recorder.UnitDropped(DropMissingClip)
			continue
		}

		segments = append(segments, ResolvedSegment{
			Token:    char,
			ClipPath: clipPath,
			Route:    RouteFingerspell,
		})
		f.recorder.SegmentResolved(RouteFingerspell)
	}
	return segments, nil
}
