package repositories

import (
	"testing"
	"time"

	"mediatheque_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestItem(t *testing.T, repo MediaRepository, db SQLExecutor, kind models.MediaKind, title, creator string) *models.MediaItem {
	t.Helper()
	item := &models.MediaItem{Kind: kind, Title: title, Creator: creator}
	_, err := repo.CreateMediaItem(db, item)
	require.NoError(t, err)
	return item
}

func TestCreateAndGetMediaItem(t *testing.T) {
	db := newTestDB(t)
	repo := NewMediaRepository(db)

	created := createTestItem(t, repo, db, models.MediaKindBook, "Dune", "Frank Herbert")
	assert.NotZero(t, created.ID)
	assert.True(t, created.Available)
	assert.Equal(t, "author", created.CreatorRole)

	got, err := repo.GetMediaItemByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, models.MediaKindBook, got.Kind)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Frank Herbert", got.Creator)
	assert.True(t, got.Available)
	assert.Nil(t, got.LoanDate)
	assert.Nil(t, got.BorrowerID)
}

func TestGetMediaItemByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewMediaRepository(db)

	_, err := repo.GetMediaItemByID(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMediaItemsFilterAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewMediaRepository(db)

	createTestItem(t, repo, db, models.MediaKindBook, "Zen and the Art of Motorcycle Maintenance", "Robert Pirsig")
	createTestItem(t, repo, db, models.MediaKindBook, "Annihilation", "Jeff VanderMeer")
	createTestItem(t, repo, db, models.MediaKindCD, "Kind of Blue", "Miles Davis")
	createTestItem(t, repo, db, models.MediaKindBoardGame, "Carcassonne", "Klaus-Jurgen Wrede")

	all, total, err := repo.GetMediaItems(models.MediaFilters{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, all, 4)
	// Listing is ordered by title.
	assert.Equal(t, "Annihilation", all[0].Title)
	assert.Equal(t, "Zen and the Art of Motorcycle Maintenance", all[3].Title)

	bookKind := string(models.MediaKindBook)
	books, total, err := repo.GetMediaItems(models.MediaFilters{Kind: &bookKind})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, b := range books {
		assert.Equal(t, models.MediaKindBook, b.Kind)
	}

	paged, total, err := repo.GetMediaItems(models.MediaFilters{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, paged, 1)
}

func TestMarkBorrowedAndReturned(t *testing.T) {
	db := newTestDB(t)
	memberRepo := NewMemberRepository(db)
	borrowerRepo := NewBorrowerRepository(db)
	mediaRepo := NewMediaRepository(db)

	member := &models.Member{Name: "Alice"}
	_, err := memberRepo.CreateMember(db, member)
	require.NoError(t, err)
	borrower, err := borrowerRepo.GetOrCreateByMemberID(db, member.ID)
	require.NoError(t, err)

	item := createTestItem(t, mediaRepo, db, models.MediaKindDVD, "Stalker", "Andrei Tarkovsky")
	loanDate := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, mediaRepo.MarkBorrowed(db, item.ID, borrower.ID, loanDate))

	got, err := mediaRepo.GetMediaItemByID(item.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
	require.NotNil(t, got.LoanDate)
	assert.Equal(t, "2026-08-10", got.LoanDate.Format("2006-01-02"))
	require.NotNil(t, got.BorrowerID)
	assert.Equal(t, borrower.ID, *got.BorrowerID)

	// The guarded UPDATE must not match an item that is already out.
	err = mediaRepo.MarkBorrowed(db, item.ID, borrower.ID, loanDate)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mediaRepo.MarkReturned(db, item.ID))
	got, err = mediaRepo.GetMediaItemByID(item.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Nil(t, got.LoanDate)
	assert.Nil(t, got.BorrowerID)

	// Returning an already-available item is a no-op, not an error.
	require.NoError(t, mediaRepo.MarkReturned(db, item.ID))
}

func TestUpdateAndDeleteMediaItem(t *testing.T) {
	db := newTestDB(t)
	repo := NewMediaRepository(db)

	item := createTestItem(t, repo, db, models.MediaKindCD, "Kid A", "Radiohead")
	item.Title = "Kid A Mnesia"
	require.NoError(t, repo.UpdateMediaItem(db, item))

	got, err := repo.GetMediaItemByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kid A Mnesia", got.Title)

	require.NoError(t, repo.DeleteMediaItem(db, item.ID))
	_, err = repo.GetMediaItemByID(item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.DeleteMediaItem(db, item.ID), ErrNotFound)
	missing := &models.MediaItem{ID: 9999, Title: "x", Creator: "y"}
	assert.ErrorIs(t, repo.UpdateMediaItem(db, missing), ErrNotFound)
}
