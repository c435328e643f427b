package services

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"mediatheque_backend/internal/models"
	"mediatheque_backend/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

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

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func (c *fakeClock) AdvanceDays(days int) { c.Advance(time.Duration(days) * 24 * time.Hour) }

// testEnv wires real repositories over an in-file sqlite database into the
// services under test, with the service clocks pinned to a fakeClock.
type testEnv struct {
	db           *sql.DB
	clock        *fakeClock
	memberRepo   repositories.MemberRepository
	borrowerRepo repositories.BorrowerRepository
	mediaRepo    repositories.MediaRepository
	loanRepo     repositories.LoanRepository
	loans        LoanService
	catalog      CatalogService
	members      MemberService
	auth         AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{current: time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)}

	memberRepo := repositories.NewMemberRepository(db)
	borrowerRepo := repositories.NewBorrowerRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	loans := NewLoanService(loanRepo, mediaRepo, borrowerRepo, memberRepo, db)
	loans.(*loanService).now = clock.Now

	catalog := NewCatalogService(mediaRepo, db)
	catalog.(*catalogService).now = clock.Now

	members := NewMemberService(memberRepo, borrowerRepo, loanRepo, db)
	auth := NewAuthService(repositories.NewAuthRepository(db), db)

	return &testEnv{
		db:           db,
		clock:        clock,
		memberRepo:   memberRepo,
		borrowerRepo: borrowerRepo,
		mediaRepo:    mediaRepo,
		loanRepo:     loanRepo,
		loans:        loans,
		catalog:      catalog,
		members:      members,
		auth:         auth,
	}
}

func (e *testEnv) createMember(t *testing.T, name string) *models.Member {
	t.Helper()
	member, err := e.members.CreateMember(CreateMemberRequest{Name: name})
	require.NoError(t, err)
	return member
}

func (e *testEnv) createItem(t *testing.T, kind, title, creator string) *models.MediaItem {
	t.Helper()
	item, err := e.catalog.CreateMediaItem(CreateMediaItemRequest{
		Kind: kind, Title: title, Creator: creator,
	})
	require.NoError(t, err)
	return item
}

// assertConsistent checks the core invariant after every mutation: an item is
// unavailable exactly when it has exactly one open loan, and the catalog's
// borrower matches the ledger's.
func (e *testEnv) assertConsistent(t *testing.T, itemID int64) {
	t.Helper()

	item, err := e.mediaRepo.GetMediaItemByID(itemID)
	require.NoError(t, err)

	openLoan, err := e.loanRepo.GetOpenLoanByMediaItem(itemID)
	if item.Available {
		require.ErrorIs(t, err, repositories.ErrNotFound,
			"available item must have no open loan")
		require.Nil(t, item.LoanDate)
		require.Nil(t, item.BorrowerID)
		return
	}
	require.NoError(t, err, "unavailable item must have an open loan")
	require.NotNil(t, item.BorrowerID)
	require.Equal(t, openLoan.BorrowerID, *item.BorrowerID)
	require.NotNil(t, item.LoanDate)
	require.Equal(t, openLoan.LoanDate.Format("2006-01-02"), item.LoanDate.Format("2006-01-02"))
}
