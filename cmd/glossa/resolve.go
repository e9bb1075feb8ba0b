package main

import (
	"fmt"
	"io"

	"github.com/at-ishikawa/glossa/internal/command"
	"github.com/at-ishikawa/glossa/internal/compose"
	"github.com/at-ishikawa/glossa/internal/gloss"
	"github.com/at-ishikawa/glossa/internal/sign"
	"github.com/at-ishikawa/glossa/internal/synthesis"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var routeColors = map[sign.Route]*color.Color{
	sign.RouteSign:        color.New(color.FgGreen),
	sign.RouteFingerspell: color.New(color.FgYellow),
}

func printSegments(w io.Writer, segments []sign.ResolvedSegment) error {
	if len(segments) == 0 {
		_, err := fmt.Fprintln(w, "no segments resolved")
		return err
	}
	for i, s := range segments {
		c, ok := routeColors[s.Route]
		if !ok {
			c = color.New(color.Reset)
		}
		if _, err := c.Fprintf(w, "%3d  %-12s %-11s %s\n", i+1, s.Token, s.Route, s.ClipPath); err != nil {
			return err
		}
	}
	return nil
}

func newResolveCommand() *cobra.Command {
	var sentence string
	cmd := &cobra.Command{
		Use:   "resolve GLOSS",
		Short: "Resolve a gloss into sign and fingerspelling segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()
			client := newOracleClient(cfg)
			defer func() {
				_ = client.Close()
			}()

			segments, err := newPipeline(cfg, repo, client).Resolve(cmd.Context(), args[0], sentence)
			if err != nil {
				return fmt.Errorf("pipeline.Resolve() > %w", err)
			}
			return printSegments(cmd.OutOrStdout(), segments)
		},
	}
	cmd.Flags().StringVar(&sentence, "context", "", "original sentence used for proper nouns and sense choice")
	return cmd
}

func newRenderCommand() *cobra.Command {
	var sentence string
	cmd := &cobra.Command{
		Use:   "render GLOSS",
		Short: "Resolve a gloss and compose its clips into one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()
			client := newOracleClient(cfg)
			defer func() {
				_ = client.Close()
			}()

			compositor := compose.NewCompositor(command.NewExecRunner(), compose.Options{
				OutputPath: cfg.Media.OutputPath,
				Width:      cfg.Media.Width,
				Height:     cfg.Media.Height,
				FPS:        cfg.Media.FPS,
				FFmpegPath: cfg.Media.FFmpegPath,
			})
			service := synthesis.NewService(newPipeline(cfg, repo, client), compositor, nil)
			artifact, err := service.Synthesize(cmd.Context(), args[0], sentence)
			if err != nil {
				return fmt.Errorf("service.Synthesize() > %w", err)
			}

			if err := printSegments(cmd.OutOrStdout(), artifact.Segments); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "video: %s\nmanifest: %s\n", artifact.Path, artifact.ManifestPath)
			return err
		},
	}
	cmd.Flags().StringVar(&sentence, "context", "", "original sentence used for proper nouns and sense choice")
	return cmd
}

func newGlossCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gloss TEXT",
		Short: "Convert English text into gloss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newOracleClient(cfg)
			defer func() {
				_ = client.Close()
			}()

			result, err := gloss.NewConverter(client, cfg.Gloss.MaxWords).Convert(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("converter.Convert() > %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		},
	}
}
