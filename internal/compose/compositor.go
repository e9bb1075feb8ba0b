// Package compose concatenates resolved clips into one video artifact with ffmpeg.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/at-ishikawa/glossa/internal/command"
	"github.com/at-ishikawa/glossa/internal/sign"
	"github.com/google/uuid"
)

var (
	// ErrNoClips means there was nothing to compose. The previous artifact is removed.
	ErrNoClips = errors.New("no clips to compose")
	// ErrCompositionFailed means the artifact could not be produced. No artifact is left behind.
	ErrCompositionFailed = errors.New("composition failed")
)

const (
	DefaultWidth      = 360
	DefaultHeight     = 480
	DefaultFPS        = 30
	DefaultFFmpegPath = "ffmpeg"
)

type Options struct {
	OutputPath string
	Width      int
	Height     int
	FPS        int
	FFmpegPath string
}

// Artifact describes a composed video.
type Artifact struct {
	Path         string
	ManifestPath string
	Segments     []sign.ResolvedSegment
	CreatedAt    time.Time
}

// Compositor writes every composition to the same output path, so compositions are serialized.
type Compositor struct {
	mu      sync.Mutex
	runner  command.Runner
	options Options
	now     func() time.Time
}

func NewCompositor(runner command.Runner, options Options) *Compositor {
	if options.Width <= 0 {
		options.Width = DefaultWidth
	}
	if options.Height <= 0 {
		options.Height = DefaultHeight
	}
	if options.FPS <= 0 {
		options.FPS = DefaultFPS
	}
	if options.FFmpegPath == "" {
		options.FFmpegPath = DefaultFFmpegPath
	}
	return &Compositor{
		runner:  runner,
		options: options,
		now:     time.Now,
	}
}

func (c *Compositor) OutputPath() string {
	return c.options.OutputPath
}

// ManifestPath returns where the manifest of the artifact at outputPath is written.
func ManifestPath(outputPath string) string {
	return outputPath + ".yml"
}

// Compose concatenates the clips of segments in order into the output path, replacing the previous artifact.
func (c *Compositor) Compose(ctx context.Context, segments []sign.ResolvedSegment) (Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(segments) == 0 {
		c.removeArtifact()
		return Artifact{}, ErrNoClips
	}

	output := c.options.OutputPath
	for _, segment := range segments {
		if err := checkReadable(segment.ClipPath); err != nil {
			c.removeArtifact()
			return Artifact{}, fmt.Errorf("%w: %w", ErrCompositionFailed, err)
		}
	}

	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Artifact{}, fmt.Errorf("%w: os.MkdirAll(%s) > %w", ErrCompositionFailed, dir, err)
	}

	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString()+filepath.Ext(output))
	defer func() {
		_ = os.Remove(tmp)
	}()

	started := c.now()
	if err := c.runner.Run(ctx, c.options.FFmpegPath, c.ffmpegArgs(segments, tmp)...); err != nil {
		c.removeArtifact()
		return Artifact{}, fmt.Errorf("%w: runner.Run(%s) > %w", ErrCompositionFailed, c.options.FFmpegPath, err)
	}
	if err := os.Rename(tmp, output); err != nil {
		c.removeArtifact()
		return Artifact{}, fmt.Errorf("%w: os.Rename() > %w", ErrCompositionFailed, err)
	}

	artifact := Artifact{
		Path:         output,
		ManifestPath: ManifestPath(output),
		Segments:     segments,
		CreatedAt:    started,
	}
	if err := writeManifest(artifact.ManifestPath, newManifest(artifact, c.options)); err != nil {
		c.removeArtifact()
		return Artifact{}, fmt.Errorf("%w: %w", ErrCompositionFailed, err)
	}

	slog.Default().Info("composed video",
		"output", output,
		"segments", len(segments),
		"duration", c.now().Sub(started),
	)
	return artifact, nil
}

func checkReadable(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("file.Stat(%s) > %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// removeArtifact deletes the previous artifact so a failed request never leaves a stale video.
func (c *Compositor) removeArtifact() {
	for _, path := range []string{c.options.OutputPath, ManifestPath(c.options.OutputPath)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Default().Warn("failed to remove previous artifact", "path", path, "error", err)
		}
	}
}

// ffmpegArgs scales and letterboxes every clip to the output geometry and frame rate, then concatenates them.
func (c *Compositor) ffmpegArgs(segments []sign.ResolvedSegment, output string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, segment := range segments {
		args = append(args, "-i", segment.ClipPath)
	}

	width := strconv.Itoa(c.options.Width)
	height := strconv.Itoa(c.options.Height)
	fps := strconv.Itoa(c.options.FPS)

	var graph strings.Builder
	for i := range segments {
		fmt.Fprintf(&graph,
			"[%d:v]scale=%s:%s:force_original_aspect_ratio=decrease,pad=%s:%s:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%s[v%d];",
			i, width, height, width, height, fps, i,
		)
	}
	for i := range segments {
		fmt.Fprintf(&graph, "[v%d]", i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=0[out]", len(segments))

	return append(args,
		"-filter_complex", graph.String(),
		"-map", "[out]",
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", fps,
		"-movflags", "+faststart",
		output,
	)
}
