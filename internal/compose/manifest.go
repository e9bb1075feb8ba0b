package compose

import (
	"fmt"
	"os"
	"time"

	"github.com/at-ishikawa/glossa/internal/sign"
	"gopkg.in/yaml.v3"
)

// Manifest records what an artifact signs, in order.
type Manifest struct {
	Output    string                 `yaml:"output"`
	Width     int                    `yaml:"width"`
	Height    int                    `yaml:"height"`
	FPS       int                    `yaml:"fps"`
	CreatedAt time.Time              `yaml:"created_at"`
	Segments  []sign.ResolvedSegment `yaml:"segments"`
}

func newManifest(artifact Artifact, options Options) Manifest {
	return Manifest{
		Output:    artifact.Path,
		Width:     options.Width,
		Height:    options.Height,
		FPS:       options.FPS,
		CreatedAt: artifact.CreatedAt,
		Segments:  artifact.Segments,
	}
}

// Tokens returns the signed tokens in order. Fingerspelled characters appear one per segment.
func (m Manifest) Tokens() []string {
	tokens := make([]string, len(m.Segments))
	for i, segment := range m.Segments {
		tokens[i] = segment.Token
	}
	return tokens
}

func writeManifest(path string, manifest Manifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", path, err)
	}
	return nil
}

func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("yaml.Unmarshal() > %w", err)
	}
	return manifest, nil
}
