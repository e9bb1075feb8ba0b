package main

import (
	"fmt"
	"strings"

	"github.com/at-ishikawa/glossa/internal/datasync"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// senseList collects repeated --sense "meaning=locator" flags in order.
type senseList []dictionary.SenseDefinition

func (s *senseList) Set(val string) error {
	meaning, locator, found := strings.Cut(val, "=")
	meaning = strings.TrimSpace(meaning)
	locator = strings.TrimSpace(locator)
	if !found || meaning == "" || locator == "" {
		return fmt.Errorf("invalid sense %q, want meaning=video_url", val)
	}
	*s = append(*s, dictionary.SenseDefinition{Meaning: meaning, VideoURL: locator})
	return nil
}

func (s senseList) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.Meaning + "=" + d.VideoURL
	}
	return strings.Join(parts, ",")
}

func (s *senseList) Type() string {
	return "sense"
}

var _ pflag.Value = (*senseList)(nil)

func newWordsCommand() *cobra.Command {
	wordsCommand := &cobra.Command{
		Use:   "words",
		Short: "Manage the sign dictionary",
	}
	wordsCommand.AddCommand(
		newWordsListCommand(),
		newWordsAddCommand(),
		newWordsImportCommand(),
		newWordsExportCommand(),
	)
	return wordsCommand
}

func newWordsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every surface form in alphabetical order",
		Args:  cobra.NoArgs,
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

			entries, err := repo.FindAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("repo.FindAll() > %w", err)
			}
			for _, word := range dictionary.SurfaceForms(entries) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), word); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newWordsAddCommand() *cobra.Command {
	var forms []string
	var senses senseList

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a word entry, replacing every entry that shares one of its forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := dictionary.WordEntry{Words: forms, Definitions: senses}.Normalized()
			if err != nil {
				return fmt.Errorf("WordEntry.Normalized() > %w", err)
			}

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

			if err := repo.Replace(cmd.Context(), entry); err != nil {
				return fmt.Errorf("repo.Replace() > %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s with %d senses\n", strings.Join(entry.Words, ", "), len(entry.Definitions))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&forms, "forms", nil, "comma separated surface forms sharing the same signs")
	cmd.Flags().Var(&senses, "sense", `sense as "meaning=video_url"; repeat in sense order`)
	_ = cmd.MarkFlagRequired("forms")
	return cmd
}

func newWordsImportCommand() *cobra.Command {
	var dryRun bool
	var updateExisting bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import word entries from a YAML dictionary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			source, err := dictionary.LoadYAMLFile(args[0])
			if err != nil {
				return fmt.Errorf("dictionary.LoadYAMLFile() > %w", err)
			}
			entries, err := source.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("source.FindAll() > %w", err)
			}

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

			out := cmd.OutOrStdout()
			importer := datasync.NewImporter(repo, out)
			opts := datasync.ImportOptions{
				DryRun:         dryRun,
				UpdateExisting: updateExisting,
			}
			result, err := importer.ImportDictionary(ctx, entries, opts)
			if err != nil {
				return fmt.Errorf("importer.ImportDictionary() > %w", err)
			}

			_, _ = fmt.Fprintln(out, "\nImport Summary:")
			if opts.DryRun {
				_, _ = fmt.Fprintln(out, "  (dry-run mode, no changes made)")
			}
			_, err = fmt.Fprintf(out, "  Dictionary entries: %d new, %d skipped, %d updated\n", result.DictionaryNew, result.DictionarySkipped, result.DictionaryUpdated)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without modifying the dictionary")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "Update existing entries with new data")
	return cmd
}

func newWordsExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export every word entry to a YAML dictionary file",
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

			data, err := datasync.NewExporter(repo).Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("exporter.Export() > %w", err)
			}
			if err := dictionary.WriteYAMLFile(args[0], data.DictionaryEntries); err != nil {
				return fmt.Errorf("dictionary.WriteYAMLFile() > %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(data.DictionaryEntries), args[0])
			return err
		},
	}
}
