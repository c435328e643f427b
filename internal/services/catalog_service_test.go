package services

import (
	"testing"

	"mediatheque_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMediaItemValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.CreateMediaItem(CreateMediaItemRequest{
		Kind: "vinyl", Title: "Abbey Road", Creator: "The Beatles",
	})
	assert.ErrorIs(t, err, ErrMediaValidation)

	_, err = env.catalog.CreateMediaItem(CreateMediaItemRequest{
		Kind: "book", Title: "   ", Creator: "Anonymous",
	})
	assert.ErrorIs(t, err, ErrMediaValidation)

	_, err = env.catalog.CreateMediaItem(CreateMediaItemRequest{
		Kind: "book", Title: "Beowulf", Creator: "",
	})
	assert.ErrorIs(t, err, ErrMediaValidation)

	// Kind is normalized, fields are trimmed.
	item, err := env.catalog.CreateMediaItem(CreateMediaItemRequest{
		Kind: " DVD ", Title: "  Stalker ", Creator: " Andrei Tarkovsky ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MediaKindDVD, item.Kind)
	assert.Equal(t, "Stalker", item.Title)
	assert.Equal(t, "Andrei Tarkovsky", item.Creator)
	assert.Equal(t, "director", item.CreatorRole)
	assert.True(t, item.Available)
}

func TestUpdateMediaItem(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "cd", "Kid A", "Radiohead")

	title := "Kid A Mnesia"
	updated, err := env.catalog.UpdateMediaItem(item.ID, UpdateMediaItemRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Kid A Mnesia", updated.Title)
	assert.Equal(t, "Radiohead", updated.Creator)

	empty := " "
	_, err = env.catalog.UpdateMediaItem(item.ID, UpdateMediaItemRequest{Creator: &empty})
	assert.ErrorIs(t, err, ErrMediaValidation)

	_, err = env.catalog.UpdateMediaItem(9999, UpdateMediaItemRequest{Title: &title})
	assert.ErrorIs(t, err, ErrMediaItemNotFound)
}

func TestDeleteMediaItemOnLoan(t *testing.T) {
	env := newTestEnv(t)
	member := env.createMember(t, "Alice")
	item := env.createItem(t, "book", "Dune", "Frank Herbert")

	_, err := env.loans.Borrow(member.ID, item.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.catalog.DeleteMediaItem(item.ID), ErrMediaItemOnLoan)

	_, err = env.loans.Return(member.ID, item.ID)
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteMediaItem(item.ID))
	_, err = env.catalog.GetMediaItemByID(item.ID)
	assert.ErrorIs(t, err, ErrMediaItemNotFound)

	assert.ErrorIs(t, env.catalog.DeleteMediaItem(item.ID), ErrMediaItemNotFound)
}

func TestIsOverdueAvailableItem(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "board_game", "Carcassonne", "Klaus-Jurgen Wrede")

	// Never borrowed, never overdue, no matter how far the clock runs.
	env.clock.AdvanceDays(30)
	overdue, err := env.catalog.IsOverdue(item.ID)
	require.NoError(t, err)
	assert.False(t, overdue)

	_, err = env.catalog.IsOverdue(9999)
	assert.ErrorIs(t, err, ErrMediaItemNotFound)
}

func TestGetMediaItemsKindFilter(t *testing.T) {
	env := newTestEnv(t)
	env.createItem(t, "book", "Dune", "Frank Herbert")
	env.createItem(t, "cd", "Kid A", "Radiohead")

	kind := "book"
	items, total, err := env.catalog.GetMediaItems(models.MediaFilters{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Dune", items[0].Title)

	bad := "vinyl"
	_, _, err = env.catalog.GetMediaItems(models.MediaFilters{Kind: &bad})
	assert.ErrorIs(t, err, ErrMediaValidation)
}
