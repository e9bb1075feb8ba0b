// Package command runs external binaries such as ffmpeg and yt-dlp.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

//go:generate mockgen -source=runner.go -destination=../mocks/command/mock_runner.go -package=mock_command

type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs binaries with os/exec. A failed run reports the tail of stderr.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

const maxStderrInError = 2048

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	slog.Default().Debug("running command", "name", name, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if len(message) > maxStderrInError {
			message = message[len(message)-maxStderrInError:]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d: %s: %w", name, exitErr.ExitCode(), message, err)
		}
		return fmt.Errorf("cmd.Run(%s) > %w", name, err)
	}
	return nil
}
