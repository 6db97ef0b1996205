// Package sqlite persists knowledge-base programs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/kbfile"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Store keeps facts and rules as text, keyed by structural identity.
type Store struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %v: %w", err, internalerr.ErrStoreUnavailable)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS facts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT UNIQUE NOT NULL,
	text TEXT NOT NULL,
	added_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	premise TEXT NOT NULL,
	conclusions TEXT NOT NULL,
	added_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveProgram inserts every fact and rule of prog. Statements already
// present are left alone; a rule saved again under a new name is renamed.
func (s *Store) SaveProgram(ctx context.Context, prog *kbfile.Program) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	factStmt, err := tx.PrepareContext(ctx, `
INSERT INTO facts (key, text, added_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO NOTHING`)
	if err != nil {
		return err
	}
	defer factStmt.Close()

	for _, f := range prog.Facts {
		if _, err := factStmt.ExecContext(ctx, f.Key(), f.String(), now); err != nil {
			return fmt.Errorf("save fact %s: %w", f, err)
		}
	}

	ruleStmt, err := tx.PrepareContext(ctx, `
INSERT INTO rules (key, name, premise, conclusions, added_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET name=excluded.name`)
	if err != nil {
		return err
	}
	defer ruleStmt.Close()

	for _, r := range prog.Rules {
		concl := make([]string, len(r.Conclusions))
		for i, c := range r.Conclusions {
			concl[i] = c.String()
		}
		conclJSON, err := json.Marshal(concl)
		if err != nil {
			return err
		}
		if _, err := ruleStmt.ExecContext(ctx, r.Term().Key(), r.Name, r.Premise.String(), string(conclJSON), now); err != nil {
			return fmt.Errorf("save rule %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// LoadProgram reads back every stored statement in insertion order.
func (s *Store) LoadProgram(ctx context.Context) (*kbfile.Program, error) {
	prog := &kbfile.Program{}

	rows, err := s.db.QueryContext(ctx, `SELECT text FROM facts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		f, err := term.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("stored fact %q: %w", text, err)
		}
		prog.Facts = append(prog.Facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ruleRows, err := s.db.QueryContext(ctx, `SELECT name, premise, conclusions FROM rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer ruleRows.Close()

	for ruleRows.Next() {
		var name, premiseText, conclJSON string
		if err := ruleRows.Scan(&name, &premiseText, &conclJSON); err != nil {
			return nil, err
		}
		r, err := decodeRule(name, premiseText, conclJSON)
		if err != nil {
			return nil, err
		}
		prog.Rules = append(prog.Rules, r)
	}
	return prog, ruleRows.Err()
}

func decodeRule(name, premiseText, conclJSON string) (*rules.Rule, error) {
	premise, err := term.Parse(premiseText)
	if err != nil {
		return nil, fmt.Errorf("stored rule %s premise: %w", name, err)
	}
	var texts []string
	if err := json.Unmarshal([]byte(conclJSON), &texts); err != nil {
		return nil, fmt.Errorf("stored rule %s conclusions: %v: %w", name, err, internalerr.ErrInvalidInput)
	}
	concl := make([]*term.Term, 0, len(texts))
	for _, text := range texts {
		c, err := term.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("stored rule %s conclusion: %w", name, err)
		}
		concl = append(concl, c)
	}
	return rules.New(name, premise, concl...), nil
}

// Counts returns the number of stored facts and rules.
func (s *Store) Counts(ctx context.Context) (nFacts, nRules int, err error) {
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts`).Scan(&nFacts); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rules`).Scan(&nRules); err != nil {
		return 0, 0, err
	}
	return nFacts, nRules, nil
}
