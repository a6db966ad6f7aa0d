package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/teachload/internal/schema"
)

// sqliteSink writes a database with a records table, one column per field,
// and a problematic_rows table.
type sqliteSink struct{}

func (sqliteSink) Format() string { return "sqlite" }
func (sqliteSink) Ext() string    { return ".sqlite" }

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func recordsDDL(s *schema.Schema) string {
	cols := make([]string, 0, s.Len()+1)
	for i, name := range s.Fields() {
		typ := "TEXT"
		if s.IsNumeric(i) {
			typ = "REAL"
		}
		cols = append(cols, quoteIdent(name)+" "+typ)
	}
	cols = append(cols, "_page INTEGER")
	return "CREATE TABLE records (" + strings.Join(cols, ", ") + ")"
}

const problemsDDL = `CREATE TABLE problematic_rows (
	reason TEXT NOT NULL,
	page INTEGER,
	raw TEXT NOT NULL,
	tokens TEXT NOT NULL,
	detail TEXT
)`

// Write builds the database in a temp file and renames it into place.
func (sqliteSink) Write(ctx context.Context, path string, ds Dataset) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.sqlite")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	if err := fillDB(ctx, db, ds); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func fillDB(ctx context.Context, db *sql.DB, ds Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, recordsDDL(ds.Schema)); err != nil {
		return fmt.Errorf("create records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, problemsDDL); err != nil {
		return fmt.Errorf("create problematic_rows: %w", err)
	}

	n := ds.Schema.Len() + 1
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	insert, err := tx.PrepareContext(ctx, "INSERT INTO records VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	args := make([]any, n)
	for i, r := range ds.Records {
		for j := 0; j < r.Len(); j++ {
			args[j] = r.At(j).Any()
		}
		args[n-1] = r.Page
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	for i, p := range ds.Problems {
		tokens, err := json.Marshal(p.Tokens)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO problematic_rows (reason, page, raw, tokens, detail) VALUES (?, ?, ?, ?, ?)",
			string(p.Reason), p.Page, p.Raw, string(tokens), p.Detail); err != nil {
			return fmt.Errorf("insert problematic row %d: %w", i, err)
		}
	}

	return tx.Commit()
}
