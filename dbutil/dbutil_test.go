package dbutil

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenUnknownConnector(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Errorf("got nil error for unknown connector")
	}
	if _, err := Open("pgx", ""); err == nil {
		t.Errorf("got nil error for empty url")
	}
}

func TestTxRollbackAfterCommit(t *testing.T) {
	ctx := context.Background()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `CREATE TABLE t (n INTEGER)`); err != nil {
		t.Fatal(err)
	}

	tx, err := NewTx(ctx, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO t (n) VALUES (1)`); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	tx.MaybeRollback() // no-op after commit

	tx, err = NewTx(ctx, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO t (n) VALUES (2)`); err != nil {
		t.Fatal(err)
	}
	tx.MaybeRollback()

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM t`); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d rows, want 1", count)
	}
}
