// Package sign resolves gloss tokens to sign clips.
//
// Each token is signed from the dictionary, picking a sense with the oracle when the word is
// ambiguous, or fingerspelled letter by letter when it is unknown or a proper noun.
// Oracle failures never fail a request. Missing clips drop the affected unit.
package sign

import (
	"context"
	"time"
)

type Route string

const (
	RouteSign        Route = "sign"
	RouteFingerspell Route = "fingerspell"
)

// ResolvedSegment is one clip of the output, in signing order.
// Token is the gloss token for signs and the single character for fingerspelling.
type ResolvedSegment struct {
	Token    string `json:"token" yaml:"token"`
	ClipPath string `json:"clip_path" yaml:"clip_path"`
	Route    Route  `json:"route" yaml:"route"`
}

// ClipLocator finds the local clip of a media locator, reporting false when the clip does not exist.
type ClipLocator interface {
	Lookup(locator string) (string, bool)
}

// Drop reasons reported to the Recorder.
const (
	DropNoSenses    = "no_senses"
	DropMissingClip = "missing_clip"
	DropUnknownChar = "unknown_character"
)

// Oracle calls reported to the Recorder.
const (
	CallChooseSense     = "choose_sense"
	CallFindProperNouns = "find_proper_nouns"
)

// Recorder observes resolution outcomes.
type Recorder interface {
	SegmentResolved(route Route)
	UnitDropped(reason string)
	OracleDegraded(call string)
}

type nopRecorder struct{}

func (nopRecorder) SegmentResolved(Route) {}
func (nopRecorder) UnitDropped(string) {}
func (nopRecorder) OracleDegraded(string) {}

func withOracleTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
