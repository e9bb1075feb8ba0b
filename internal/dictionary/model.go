package dictionary

import (
	"errors"
	"sort"
	"strings"
)

var ErrNoSurfaceForms = errors.New("word entry needs at least one surface form")

// WordEntry is one signable word: every surface form that shares the same signs,
// and the ordered senses. The first sense is the default when no disambiguation happens.
type WordEntry struct {
	Words       []string          `json:"words" yaml:"words"`
	Definitions []SenseDefinition `json:"definitions" yaml:"definitions"`
}

// SenseDefinition is one meaning of a word and the locator of its sign video.
type SenseDefinition struct {
	Meaning  string `json:"meaning" yaml:"meaning"`
	VideoURL string `json:"video_url" yaml:"video_url"`
}

// NormalizeForm lowercases and trims a surface form.
func NormalizeForm(form string) string {
	return strings.ToLower(strings.TrimSpace(form))
}

// Normalized returns a copy with normalized, de-duplicated surface forms in their original order.
func (e WordEntry) Normalized() (WordEntry, error) {
	seen := make(map[string]struct{}, len(e.Words))
	forms := make([]string, 0, len(e.Words))
	for _, w := range e.Words {
		form := NormalizeForm(w)
		if form == "" {
			continue
		}
		if _, ok := seen[form]; ok {
			continue
		}
		seen[form] = struct{}{}
		forms = append(forms, form)
	}
	if len(forms) == 0 {
		return WordEntry{}, ErrNoSurfaceForms
	}

	definitions := make([]SenseDefinition, len(e.Definitions))
	copy(definitions, e.Definitions)
	return WordEntry{Words: forms, Definitions: definitions}, nil
}

// Meanings lists the meaning of each sense in order.
func (e WordEntry) Meanings() []string {
	meanings := make([]string, len(e.Definitions))
	for i, d := range e.Definitions {
		meanings[i] = d.Meaning
	}
	return meanings
}

// SurfaceForms flattens and sorts the surface forms of all entries.
func SurfaceForms(entries []WordEntry) []string {
	words := make([]string, 0, len(entries))
	for _, e := range entries {
		words = append(words, e.Words...)
	}
	sort.Strings(words)
	return words
}
