package dictionary

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemoryRepository keeps entries in memory. It backs YAML dictionary files and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []WordEntry
	// byForm maps a surface form to its index in entries.
	byForm map[string]int
}

// NewMemoryRepository builds a repository from entries. Later entries replace earlier ones that share a form.
func NewMemoryRepository(entries ...WordEntry) (*MemoryRepository, error) {
	r := &MemoryRepository{byForm: map[string]int{}}
	for _, e := range entries {
		if err := r.Replace(context.Background(), e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadYAMLFile reads a list of entries from a YAML file.
func LoadYAMLFile(path string) (*MemoryRepository, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	var entries []WordEntry
	if err := yaml.Unmarshal(contents, &entries); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", path, err)
	}
	repo, err := NewMemoryRepository(entries...)
	if err != nil {
		return nil, fmt.Errorf("NewMemoryRepository(%s) > %w", path, err)
	}
	return repo, nil
}

// WriteYAMLFile writes entries to path.
func WriteYAMLFile(path string, entries []WordEntry) error {
	contents, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", path, err)
	}
	return nil
}

func (r *MemoryRepository) FindBySurfaceForm(_ context.Context, form string) (*WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byForm[NormalizeForm(form)]
	if !ok {
		return nil, nil
	}
	entry := clone(r.entries[i])
	return &entry, nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]WordEntry, len(r.entries))
	for i, e := range r.entries {
		entries[i] = clone(e)
	}
	return entries, nil
}

func (r *MemoryRepository) Replace(_ context.Context, entry WordEntry) error {
	entry, err := entry.Normalized()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	overlapping := map[int]struct{}{}
	for _, form := range entry.Words {
		if i, ok := r.byForm[form]; ok {
			overlapping[i] = struct{}{}
		}
	}

	kept := make([]WordEntry, 0, len(r.entries)+1)
	for i, e := range r.entries {
		if _, ok := overlapping[i]; !ok {
			kept = append(kept, e)
		}
	}
	kept = append(kept, entry)

	r.entries = kept
	r.byForm = make(map[string]int, len(r.byForm)+len(entry.Words))
	for i, e := range r.entries {
		for _, form := range e.Words {
			r.byForm[form] = i
		}
	}
	return nil
}

func clone(e WordEntry) WordEntry {
	words := make([]string, len(e.Words))
	copy(words, e.Words)
	definitions := make([]SenseDefinition, len(e.Definitions))
	copy(definitions, e.Definitions)
	return WordEntry{Words: words, Definitions: definitions}
}

// FileRepository is a MemoryRepository that writes the whole YAML file back after every Replace.
type FileRepository struct {
	*MemoryRepository
	path    string
	writeMu sync.Mutex
}

func OpenYAMLFile(path string) (*FileRepository, error) {
	repo, err := LoadYAMLFile(path)
	if err != nil {
		return nil, err
	}
	return &FileRepository{MemoryRepository: repo, path: path}, nil
}

func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) Replace(ctx context.Context, entry WordEntry) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	// MemoryRepository.Replace swaps in fresh slices and maps, so the old ones stay intact for rollback
	r.mu.RLock()
	prevEntries, prevByForm := r.entries, r.byForm
	r.mu.RUnlock()

	if err := r.MemoryRepository.Replace(ctx, entry); err != nil {
		return err
	}
	entries, err := r.MemoryRepository.FindAll(ctx)
	if err == nil {
		err = WriteYAMLFile(r.path, entries)
	}
	if err != nil {
		r.mu.Lock()
		r.entries, r.byForm = prevEntries, prevByForm
		r.mu.Unlock()
		return fmt.Errorf("FileRepository.Replace(%s) > %w", r.path, err)
	}
	return nil
}
