package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=repository.go -destination=../mocks/dictionary/mock_repository.go -package=mock_dictionary

// Repository is the word-metadata store.
type Repository interface {
	// FindBySurfaceForm returns the entry owning form, or nil if none does.
	FindBySurfaceForm(ctx context.Context, form string) (*WordEntry, error)
	FindAll(ctx context.Context) ([]WordEntry, error)
	// Replace stores entry, removing every entry that shares any of its surface forms.
	Replace(ctx context.Context, entry WordEntry) error
}

// DBRepository implements Repository on MySQL or SQLite.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

type formRow struct {
	EntryID int64  `db:"entry_id"`
	Form    string `db:"form"`
}

type senseRow struct {
	EntryID  int64  `db:"entry_id"`
	Meaning  string `db:"meaning"`
	VideoURL string `db:"video_url"`
}

// FindBySurfaceForm returns the entry owning form, or nil if not found.
func (r *DBRepository) FindBySurfaceForm(ctx context.Context, form string) (*WordEntry, error) {
	var entryID int64
	err := r.db.GetContext(ctx, &entryID, "SELECT entry_id FROM surface_forms WHERE form = ?", NormalizeForm(form))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(surface_form) > %w", err)
	}

	var forms []formRow
	if err := r.db.SelectContext(ctx, &forms,
		"SELECT entry_id, form FROM surface_forms WHERE entry_id = ? ORDER BY position", entryID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(surface_forms) > %w", err)
	}
	var senses []senseRow
	if err := r.db.SelectContext(ctx, &senses,
		"SELECT entry_id, meaning, video_url FROM sense_definitions WHERE entry_id = ? ORDER BY position", entryID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(sense_definitions) > %w", err)
	}

	entries := assemble(forms, senses)
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// FindAll returns all entries ordered by creation.
func (r *DBRepository) FindAll(ctx context.Context) ([]WordEntry, error) {
	var forms []formRow
	if err := r.db.SelectContext(ctx, &forms,
		"SELECT entry_id, form FROM surface_forms ORDER BY entry_id, position"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(surface_forms) > %w", err)
	}
	var senses []senseRow
	if err := r.db.SelectContext(ctx, &senses,
		"SELECT entry_id, meaning, video_url FROM sense_definitions ORDER BY entry_id, position"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(sense_definitions) > %w", err)
	}
	return assemble(forms, senses), nil
}

// assemble groups rows by entry, keeping the order in which entries first appear in forms.
func assemble(forms []formRow, senses []senseRow) []WordEntry {
	index := make(map[int64]int)
	var entries []WordEntry
	for _, f := range forms {
		i, ok := index[f.EntryID]
		if !ok {
			i = len(entries)
			index[f.EntryID] = i
			entries = append(entries, WordEntry{Definitions: []SenseDefinition{}})
		}
		entries[i].Words = append(entries[i].Words, f.Form)
	}
	for _, s := range senses {
		i, ok := index[s.EntryID]
		if !ok {
			continue
		}
		entries[i].Definitions = append(entries[i].Definitions, SenseDefinition{Meaning: s.Meaning, VideoURL: s.VideoURL})
	}
	return entries
}

// Replace stores entry in one transaction, deleting every entry that shares a surface form with it.
func (r *DBRepository) Replace(ctx context.Context, entry WordEntry) (err error) {
	entry, err = entry.Normalized()
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTxx() > %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := sqlx.In("SELECT DISTINCT entry_id FROM surface_forms WHERE form IN (?)", entry.Words)
	if err != nil {
		return fmt.Errorf("sqlx.In() > %w", err)
	}
	var overlapping []int64
	if err := tx.SelectContext(ctx, &overlapping, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("tx.SelectContext(overlapping entries) > %w", err)
	}

	if len(overlapping) > 0 {
		for _, table := range []string{"surface_forms", "sense_definitions"} {
			query, args, err := sqlx.In("DELETE FROM "+table+" WHERE entry_id IN (?)", overlapping)
			if err != nil {
				return fmt.Errorf("sqlx.In() > %w", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("tx.ExecContext(delete %s) > %w", table, err)
			}
		}
		query, args, err := sqlx.In("DELETE FROM word_entries WHERE id IN (?)", overlapping)
		if err != nil {
			return fmt.Errorf("sqlx.In() > %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("tx.ExecContext(delete word_entries) > %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, "INSERT INTO word_entries (updated_at) VALUES (CURRENT_TIMESTAMP)")
	if err != nil {
		return fmt.Errorf("tx.ExecContext(insert word_entry) > %w", err)
	}
	entryID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("result.LastInsertId() > %w", err)
	}

	for i, form := range entry.Words {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO surface_forms (form, entry_id, position) VALUES (?, ?, ?)",
			form, entryID, i); err != nil {
			return fmt.Errorf("tx.ExecContext(insert surface_form %s) > %w", form, err)
		}
	}
	for i, d := range entry.Definitions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sense_definitions (entry_id, position, meaning, video_url) VALUES (?, ?, ?, ?)",
			entryID, i, d.Meaning, d.VideoURL); err != nil {
			return fmt.Errorf("tx.ExecContext(insert sense_definition) > %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit() > %w", err)
	}
	return nil
}
