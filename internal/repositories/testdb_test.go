package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testSchema mirrors db/schema.sql in sqlite dialect. Repository SQL sticks to
// the portable subset ($n placeholders, RETURNING) so the same queries run
// against postgres in production and sqlite in tests.
const testSchema = `
CREATE TABLE members (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE borrowers (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	member_id  INTEGER NOT NULL UNIQUE REFERENCES members(id),
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE media_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	title       TEXT NOT NULL,
	creator     TEXT NOT NULL,
	available   BOOLEAN NOT NULL DEFAULT TRUE,
	loan_date   DATE,
	borrower_id INTEGER REFERENCES borrowers(id),
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE loans (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	borrower_id   INTEGER NOT NULL REFERENCES borrowers(id),
	media_item_id INTEGER NOT NULL REFERENCES media_items(id),
	loan_date     DATE NOT NULL,
	return_date   DATE,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX idx_loans_one_open_per_item
	ON loans(media_item_id) WHERE return_date IS NULL;
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
