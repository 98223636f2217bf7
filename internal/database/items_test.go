package database

import (
	"context"
	"errors"
	"testing"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")

	item := createTestItem(t, db, owner.ID, "Drill", true)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "Drill", got.Name)
	assert.True(t, got.Available)

	got.Available = false
	got.Name = "Hammer drill"
	require.NoError(t, db.UpdateItem(ctx, got))

	updated, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, "Hammer drill", updated.Name)

	_, err = db.GetItemByID(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = db.UpdateItem(ctx, &models.Item{ID: 999, Name: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetItemsByOwnerPaging(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")

	first := createTestItem(t, db, owner.ID, "Saw", true)
	second := createTestItem(t, db, owner.ID, "Ladder", true)
	createTestItem(t, db, other.ID, "Tent", true)
	third := createTestItem(t, db, owner.ID, "Kayak", false)

	all, err := db.GetItemsByOwner(ctx, owner.ID, models.PageRequest{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	page, err := db.GetItemsByOwner(ctx, owner.ID, models.PageRequest{From: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, third.ID, page[0].ID)

	none, err := db.GetItemsByOwner(ctx, 999, models.PageRequest{From: 0, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchAvailableItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")

	drill := createTestItem(t, db, owner.ID, "Cordless DRILL", true)
	createTestItem(t, db, owner.ID, "Old drill", false)
	createTestItem(t, db, owner.ID, "Tent", true)

	found, err := db.SearchAvailableItems(ctx, "drill", models.PageRequest{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, drill.ID, found[0].ID)

	byDescription, err := db.SearchAvailableItems(ctx, "TENT DESC", models.PageRequest{From: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, byDescription, 1)
}
