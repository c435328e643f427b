package repositories

import (
	"database/sql"
	"testing"
	"time"

	"mediatheque_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loanTestFixture struct {
	db           *sql.DB
	memberRepo   MemberRepository
	borrowerRepo BorrowerRepository
	mediaRepo    MediaRepository
	loanRepo     LoanRepository
}

func newLoanFixture(t *testing.T) *loanTestFixture {
	t.Helper()
	db := newTestDB(t)
	return &loanTestFixture{
		db:           db,
		memberRepo:   NewMemberRepository(db),
		borrowerRepo: NewBorrowerRepository(db),
		mediaRepo:    NewMediaRepository(db),
		loanRepo:     NewLoanRepository(db),
	}
}

func (f *loanTestFixture) newBorrower(t *testing.T, name string) *models.Borrower {
	t.Helper()
	member := &models.Member{Name: name}
	_, err := f.memberRepo.CreateMember(f.db, member)
	require.NoError(t, err)
	borrower, err := f.borrowerRepo.GetOrCreateByMemberID(f.db, member.ID)
	require.NoError(t, err)
	return borrower
}

func (f *loanTestFixture) newItem(t *testing.T, title string) *models.MediaItem {
	t.Helper()
	return createTestItem(t, f.mediaRepo, f.db, models.MediaKindBook, title, "Some Author")
}

func TestCreateLoanAndFindOpen(t *testing.T) {
	f := newLoanFixture(t)
	borrower := f.newBorrower(t, "Alice")
	item := f.newItem(t, "Solaris")
	loanDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	loan := &models.Loan{BorrowerID: borrower.ID, MediaItemID: item.ID, LoanDate: loanDate}
	_, err := f.loanRepo.CreateLoan(f.db, loan)
	require.NoError(t, err)
	assert.NotZero(t, loan.ID)
	assert.True(t, loan.Open())

	open, err := f.loanRepo.GetOpenLoansByBorrower(borrower.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, loan.ID, open[0].ID)
	assert.Equal(t, "2026-08-20", open[0].LoanDate.Format("2006-01-02"))
	require.NotNil(t, open[0].MediaItem)
	assert.Equal(t, "Solaris", open[0].MediaItem.Title)

	byItem, err := f.loanRepo.GetOpenLoanByMediaItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.ID, byItem.ID)

	got, err := f.loanRepo.GetLoanByID(loan.ID)
	require.NoError(t, err)
	assert.Equal(t, borrower.ID, got.BorrowerID)
	assert.Nil(t, got.ReturnDate)
}

func TestCloseLoan(t *testing.T) {
	f := newLoanFixture(t)
	borrower := f.newBorrower(t, "Bob")
	item := f.newItem(t, "Neuromancer")
	loanDate := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	loan := &models.Loan{BorrowerID: borrower.ID, MediaItemID: item.ID, LoanDate: loanDate}
	_, err := f.loanRepo.CreateLoan(f.db, loan)
	require.NoError(t, err)

	returnDate := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.loanRepo.CloseLoan(f.db, loan.ID, returnDate))

	got, err := f.loanRepo.GetLoanByID(loan.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReturnDate)
	assert.Equal(t, "2026-08-15", got.ReturnDate.Format("2006-01-02"))
	assert.False(t, got.Open())

	// A closed loan is never reopened; closing again matches no row.
	assert.ErrorIs(t, f.loanRepo.CloseLoan(f.db, loan.ID, returnDate), ErrNotFound)

	open, err := f.loanRepo.GetOpenLoansByBorrower(borrower.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = f.loanRepo.GetOpenLoanByMediaItem(item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLoansFilters(t *testing.T) {
	f := newLoanFixture(t)
	alice := f.newBorrower(t, "Alice")
	bob := f.newBorrower(t, "Bob")
	item1 := f.newItem(t, "Foundation")
	item2 := f.newItem(t, "Hyperion")

	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }

	l1 := &models.Loan{BorrowerID: alice.ID, MediaItemID: item1.ID, LoanDate: day(1)}
	_, err := f.loanRepo.CreateLoan(f.db, l1)
	require.NoError(t, err)
	require.NoError(t, f.loanRepo.CloseLoan(f.db, l1.ID, day(5)))

	l2 := &models.Loan{BorrowerID: alice.ID, MediaItemID: item1.ID, LoanDate: day(10)}
	_, err = f.loanRepo.CreateLoan(f.db, l2)
	require.NoError(t, err)

	l3 := &models.Loan{BorrowerID: bob.ID, MediaItemID: item2.ID, LoanDate: day(12)}
	_, err = f.loanRepo.CreateLoan(f.db, l3)
	require.NoError(t, err)

	all, total, err := f.loanRepo.GetLoans(models.LoanFilters{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	// Newest loan first.
	assert.Equal(t, l3.ID, all[0].ID)

	aliceLoans, total, err := f.loanRepo.GetLoans(models.LoanFilters{BorrowerID: &alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, l := range aliceLoans {
		assert.Equal(t, alice.ID, l.BorrowerID)
	}

	openLoans, total, err := f.loanRepo.GetLoans(models.LoanFilters{OpenOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, l := range openLoans {
		assert.Nil(t, l.ReturnDate)
	}

	byItem, total, err := f.loanRepo.GetLoans(models.LoanFilters{MediaItemID: &item1.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, byItem, 2)

	paged, total, err := f.loanRepo.GetLoans(models.LoanFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, paged, 1)
}
