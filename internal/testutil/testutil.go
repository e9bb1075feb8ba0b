// Package testutil provides shared test helpers for creating config files, dictionaries and clip fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/stretchr/testify/require"
)

// Paths are the locations SetupTestConfig created under its temporary directory.
type Paths struct {
	Config         string
	ClipDirectory  string
	OutputPath     string
	DictionaryFile string
}

// SetupTestConfig creates a config file backed by a YAML dictionary, a clip directory and an output directory.
// The dictionary holds entries; pass none for an empty dictionary.
func SetupTestConfig(t *testing.T, tmpDir string, entries ...dictionary.WordEntry) Paths {
	t.Helper()

	paths := Paths{
		Config:         filepath.Join(tmpDir, "config.yml"),
		ClipDirectory:  filepath.Join(tmpDir, "clips"),
		OutputPath:     filepath.Join(tmpDir, "output", "merged.mp4"),
		DictionaryFile: filepath.Join(tmpDir, "dictionary.yml"),
	}
	require.NoError(t, os.MkdirAll(paths.ClipDirectory, 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(paths.OutputPath), 0755))
	WriteDictionary(t, paths.DictionaryFile, entries...)

	configContent := fmt.Sprintf(`dictionary:
  file: %s
oracle:
  base_url: http://127.0.0.1:1/v1
  timeout_seconds: 1
  max_retry_attempts: 0
media:
  clip_directory: %s
  output_path: %s
acquisition:
  workers: 2
`,
		paths.DictionaryFile,
		paths.ClipDirectory,
		paths.OutputPath,
	)
	require.NoError(t, os.WriteFile(paths.Config, []byte(configContent), 0644))
	return paths
}

// WriteDictionary writes entries as a YAML dictionary file.
func WriteDictionary(t *testing.T, path string, entries ...dictionary.WordEntry) {
	t.Helper()
	if entries == nil {
		entries = []dictionary.WordEntry{}
	}
	require.NoError(t, dictionary.WriteYAMLFile(path, entries))
}

// CreateClips writes a placeholder file for each clip name into dir.
func CreateClips(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("clip:"+name), 0644))
	}
}

// Entry builds a word entry whose senses alternate meaning and video locator.
func Entry(words []string, meaningAndURL ...string) dictionary.WordEntry {
	entry := dictionary.WordEntry{Words: words, Definitions: []dictionary.SenseDefinition{}}
	for i := 0; i+1 < len(meaningAndURL); i += 2 {
		entry.Definitions = append(entry.Definitions, dictionary.SenseDefinition{
			Meaning:  meaningAndURL[i],
			VideoURL: meaningAndURL[i+1],
		})
	}
	return entry
}
