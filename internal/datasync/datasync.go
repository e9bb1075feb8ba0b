// Package datasync provides import/export orchestration between YAML dictionary files and the store.
package datasync

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/at-ishikawa/glossa/internal/dictionary"
)

// ImportResult tracks counts for each import operation.
type ImportResult struct {
	DictionaryNew     int
	DictionarySkipped int
	DictionaryUpdated int
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun         bool
	UpdateExisting bool
}

// Importer reads YAML dictionary entries and writes them to the store.
type Importer struct {
	dictionaryRepo dictionary.Repository
	writer         io.Writer
}

// NewImporter creates a new Importer.
func NewImporter(dictionaryRepo dictionary.Repository, writer io.Writer) *Importer {
	return &Importer{
		dictionaryRepo: dictionaryRepo,
		writer:         writer,
	}
}

// ImportDictionary imports word entries. An entry is existing when any of its surface forms is stored;
// updating it replaces every stored entry sharing a form.
func (imp *Importer) ImportDictionary(ctx context.Context, entries []dictionary.WordEntry, opts ImportOptions) (*ImportResult, error) {
	var result ImportResult

	for _, raw := range entries {
		entry, err := raw.Normalized()
		if err != nil {
			return nil, fmt.Errorf("Normalized(%v) > %w", raw.Words, err)
		}
		label := strings.Join(entry.Words, ", ")

		existing, err := imp.findExisting(ctx, entry)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			if !opts.UpdateExisting || reflect.DeepEqual(*existing, entry) {
				fmt.Fprintf(imp.writer, "  [SKIP]  %q\n", label)
				result.DictionarySkipped++
				continue
			}
			if !opts.DryRun {
				if err := imp.dictionaryRepo.Replace(ctx, entry); err != nil {
					return nil, fmt.Errorf("Replace(%s) > %w", label, err)
				}
			}
			fmt.Fprintf(imp.writer, "  [UPDATE]  %q\n", label)
			result.DictionaryUpdated++
			continue
		}

		if !opts.DryRun {
			if err := imp.dictionaryRepo.Replace(ctx, entry); err != nil {
				return nil, fmt.Errorf("Replace(%s) > %w", label, err)
			}
		}
		fmt.Fprintf(imp.writer, "  [NEW]  %q\n", label)
		result.DictionaryNew++
	}

	return &result, nil
}

func (imp *Importer) findExisting(ctx context.Context, entry dictionary.WordEntry) (*dictionary.WordEntry, error) {
	for _, word := range entry.Words {
		existing, err := imp.dictionaryRepo.FindBySurfaceForm(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("FindBySurfaceForm(%s) > %w", word, err)
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, nil
}

// ExportData holds all exported data from the store.
type ExportData struct {
	DictionaryEntries []dictionary.WordEntry
}

// Exporter reads the store and returns domain structs.
type Exporter struct {
	dictionaryRepo dictionary.Repository
}

// NewExporter creates a new Exporter.
func NewExporter(dictionaryRepo dictionary.Repository) *Exporter {
	return &Exporter{
		dictionaryRepo: dictionaryRepo,
	}
}

// Export reads all data from the store.
func (e *Exporter) Export(ctx context.Context) (*ExportData, error) {
	entries, err := e.dictionaryRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dictionaryRepo.FindAll() > %w", err)
	}

	return &ExportData{
		DictionaryEntries: entries,
	}, nil
}
