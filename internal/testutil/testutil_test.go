package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/at-ishikawa/glossa/internal/config"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	got := SetupTestConfig(t, tmpDir, Entry([]string{"dog"}, "animal", "dog.mp4"))

	assert.Equal(t, filepath.Join(tmpDir, "config.yml"), got.Config)

	loader, err := config.NewConfigLoader(got.Config)
	require.NoError(t, err)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, got.DictionaryFile, cfg.Dictionary.File)
	assert.Equal(t, got.ClipDirectory, cfg.Media.ClipDirectory)
	assert.Equal(t, got.OutputPath, cfg.Media.OutputPath)
	require.NoError(t, loader.ValidateServing(cfg))

	repo, err := dictionary.LoadYAMLFile(got.DictionaryFile)
	require.NoError(t, err)
	entry, err := repo.FindBySurfaceForm(t.Context(), "dog")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []string{"animal"}, entry.Meanings())
}

func TestSetupTestConfig_EmptyDictionary(t *testing.T) {
	got := SetupTestConfig(t, t.TempDir())

	repo, err := dictionary.LoadYAMLFile(got.DictionaryFile)
	require.NoError(t, err)
	entries, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateClips(t *testing.T) {
	dir := t.TempDir()
	CreateClips(t, dir, "a.mp4", "b.mp4")

	for _, name := range []string{"a.mp4", "b.mp4"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "clip:"+name, string(content))
	}
}

func TestEntry(t *testing.T) {
	assert.Equal(t, dictionary.WordEntry{
		Words: []string{"bat"},
		Definitions: []dictionary.SenseDefinition{
			{Meaning: "animal", VideoURL: "bat-animal.mp4"},
			{Meaning: "club", VideoURL: "bat-club.mp4"},
		},
	}, Entry([]string{"bat"}, "animal", "bat-animal.mp4", "club", "bat-club.mp4"))
}
