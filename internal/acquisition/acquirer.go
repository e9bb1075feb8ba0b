// Package acquisition downloads the clips referenced by the dictionary into the clip directory.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/at-ishikawa/glossa/internal/command"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/media"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers   = 5
	DefaultYTDLPPath = "yt-dlp"
)

type Options struct {
	Workers   int
	UserAgent string
	YTDLPPath string
	// Prune deletes clips no dictionary entry references.
	Prune bool
}

type Summary struct {
	Downloaded int `json:"downloaded" yaml:"downloaded"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Failed     int `json:"failed" yaml:"failed"`
	Pruned     int `json:"pruned" yaml:"pruned"`
}

type job struct {
	locator string
	path    string
}

// Acquirer fills the clip store from the sense locators of the dictionary.
// Runs are idempotent: clips already on disk are skipped.
type Acquirer struct {
	repo       dictionary.Repository
	clips      *media.ClipStore
	runner     command.Runner
	httpClient *resty.Client
	options    Options
}

func NewAcquirer(repo dictionary.Repository, clips *media.ClipStore, runner command.Runner, options Options) *Acquirer {
	if options.Workers <= 0 {
		options.Workers = DefaultWorkers
	}
	if options.YTDLPPath == "" {
		options.YTDLPPath = DefaultYTDLPPath
	}

	httpClient := resty.New()
	if options.UserAgent != "" {
		httpClient.SetHeader("User-Agent", options.UserAgent)
	}
	return &Acquirer{
		repo:       repo,
		clips:      clips,
		runner:     runner,
		httpClient: httpClient,
		options:    options,
	}
}

// Close releases idle HTTP connections.
func (a *Acquirer) Close() {
	a.httpClient.GetClient().CloseIdleConnections()
}

func (a *Acquirer) Run(ctx context.Context) (Summary, error) {
	entries, err := a.repo.FindAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("repo.FindAll() > %w", err)
	}
	if err := os.MkdirAll(a.clips.Dir(), 0755); err != nil {
		return Summary{}, fmt.Errorf("os.MkdirAll(%s) > %w", a.clips.Dir(), err)
	}

	jobs := a.plan(entries)
	slog.Default().Info("acquiring clips", "clips", len(jobs), "workers", a.options.Workers)

	var downloaded, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.options.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if _, err := os.Stat(j.path); err == nil {
				skipped.Add(1)
				return nil
			}
			if err := a.download(gctx, j); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Default().Warn("failed to download clip", "url", j.locator, "error", err)
				failed.Add(1)
				return nil
			}
			slog.Default().Debug("downloaded clip", "url", j.locator, "path", j.path)
			downloaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("g.Wait() > %w", err)
	}

	summary := Summary{
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
	}
	if a.options.Prune {
		pruned, err := a.prune(jobs)
		if err != nil {
			return summary, err
		}
		summary.Pruned = pruned
	}

	slog.Default().Info("acquired clips",
		"downloaded", summary.Downloaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"pruned", summary.Pruned,
	)
	return summary, nil
}

// plan lists one job per clip path in dictionary order. The first locator of a path wins.
func (a *Acquirer) plan(entries []dictionary.WordEntry) []job {
	var jobs []job
	seen := make(map[string]struct{})
	for _, entry := range entries {
		for _, definition := range entry.Definitions {
			path, ok := a.clips.Path(definition.VideoURL)
			if !ok {
				slog.Default().Warn("cannot derive clip name", "words", entry.Words, "url", definition.VideoURL)
				continue
			}
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			jobs = append(jobs, job{locator: strings.TrimSpace(definition.VideoURL), path: path})
		}
	}
	return jobs
}

func (a *Acquirer) download(ctx context.Context, j job) error {
	tmp := filepath.Join(a.clips.Dir(), ".tmp-"+uuid.NewString()+filepath.Ext(j.path))
	defer func() {
		_ = os.Remove(tmp)
	}()

	var err error
	if media.IsVideoHost(j.locator) {
		err = a.fetchHosted(ctx, j.locator, tmp)
	} else {
		err = a.fetchFile(ctx, j.locator, tmp)
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("os.Rename() > %w", err)
	}
	return nil
}

func (a *Acquirer) fetchHosted(ctx context.Context, locator, output string) error {
	args := []string{"--quiet", "--no-playlist", "-f", "mp4/bestvideo[ext=mp4]/best", "-o", output}
	if a.options.UserAgent != "" {
		args = append(args, "--user-agent", a.options.UserAgent)
	}
	if err := a.runner.Run(ctx, a.options.YTDLPPath, append(args, locator)...); err != nil {
		return fmt.Errorf("runner.Run(%s) > %w", a.options.YTDLPPath, err)
	}
	return nil
}

func (a *Acquirer) fetchFile(ctx context.Context, locator, output string) error {
	response, err := a.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(locator)
	if err != nil {
		return fmt.Errorf("httpClient.Get > %w", err)
	}
	body := response.RawBody()
	defer func() {
		_ = body.Close()
	}()
	if response.IsError() {
		return fmt.Errorf("response error %d", response.StatusCode())
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", output, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		return fmt.Errorf("io.Copy() > %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close() > %w", err)
	}
	return nil
}

// prune removes .mp4 clips that no job refers to. Hidden files are left alone.
func (a *Acquirer) prune(jobs []job) (int, error) {
	referenced := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		referenced[filepath.Base(j.path)] = struct{}{}
	}

	files, err := os.ReadDir(a.clips.Dir())
	if err != nil {
		return 0, fmt.Errorf("os.ReadDir(%s) > %w", a.clips.Dir(), err)
	}
	var pruned int
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".mp4") {
			continue
		}
		if _, ok := referenced[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(a.clips.Dir(), name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return pruned, fmt.Errorf("os.Remove(%s) > %w", name, err)
		}
		slog.Default().Info("pruned orphaned clip", "file", name)
		pruned++
	}
	return pruned, nil
}
