package sign

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/media"
	"github.com/stretchr/testify/require"
)

// newClipStore creates a clip directory holding the named clips.
func newClipStore(t *testing.T, clips ...string) *media.ClipStore {
	t.Helper()
	dir := t.TempDir()
	for _, clip := range clips {
		require.NoError(t, os.WriteFile(filepath.Join(dir, clip), []byte(clip), 0644))
	}
	return media.NewClipStore(dir)
}

func clipURL(name string) string {
	return "https://media.example.com/signs/" + name
}

func entry(words []string, senses ...dictionary.SenseDefinition) dictionary.WordEntry {
	if senses == nil {
		senses = []dictionary.SenseDefinition{}
	}
	return dictionary.WordEntry{Words: words, Definitions: senses}
}

func sense(meaning, clip string) dictionary.SenseDefinition {
	return dictionary.SenseDefinition{Meaning: meaning, VideoURL: clipURL(clip)}
}

func newRepository(t *testing.T, entries ...dictionary.WordEntry) *dictionary.MemoryRepository {
	t.Helper()
	repo, err := dictionary.NewMemoryRepository(entries...)
	require.NoError(t, err)
	return repo
}

type countingRecorder struct {
	mu       sync.Mutex
	resolved map[Route]int
	dropped  map[string]int
	degraded map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		resolved: map[Route]int{},
		dropped:  map[string]int{},
		degraded: map[string]int{},
	}
}

func (r *countingRecorder) SegmentResolved(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved[route]++
}

func (r *countingRecorder) UnitDropped(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[reason]++
}

func (r *countingRecorder) OracleDegraded(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded[call]++
}
