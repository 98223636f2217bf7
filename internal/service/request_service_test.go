package service

import (
	"context"
	"errors"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req, err := env.requests.CreateRequest(ctx, env.booker.ID, models.NewItemRequest{Description: " Need a tent "})
	require.NoError(t, err)
	assert.Equal(t, "Need a tent", req.Description)
	assert.Equal(t, env.booker.ID, req.RequesterID)
	assert.True(t, testNow.Equal(req.Created))
	assert.NotNil(t, req.Items)

	_, err = env.requests.CreateRequest(ctx, env.booker.ID, models.NewItemRequest{})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.requests.CreateRequest(ctx, 999, models.NewItemRequest{Description: "Kayak"})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "user is checked before the body")
}

func TestRequestAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tent, err := env.requests.CreateRequest(ctx, env.booker.ID, models.NewItemRequest{Description: "Need a tent"})
	require.NoError(t, err)

	answer, err := env.items.CreateItem(ctx, env.owner.ID, models.NewItem{
		Name: "Tent", Description: "Two person tent", Available: ptr(true), RequestID: &tent.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, answer.RequestID)

	_, err = env.items.CreateItem(ctx, env.owner.ID, models.NewItem{
		Name: "Boat", Description: "Row boat", Available: ptr(true), RequestID: ptr(int64(999)),
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err := env.requests.GetRequest(ctx, env.stranger.ID, tent.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, answer.ID, got.Items[0].ID)

	_, err = env.requests.GetRequest(ctx, env.stranger.ID, 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = env.requests.GetRequest(ctx, 999, tent.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var mine []int64
	for _, d := range []string{"Need a tent", "Need a kayak", "Need a saw"} {
		req, err := env.requests.CreateRequest(ctx, env.booker.ID, models.NewItemRequest{Description: d})
		require.NoError(t, err)
		mine = append(mine, req.ID)
	}
	theirs, err := env.requests.CreateRequest(ctx, env.stranger.ID, models.NewItemRequest{Description: "Need a drill"})
	require.NoError(t, err)

	own, err := env.requests.ListOwnRequests(ctx, env.booker.ID)
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Equal(t, mine[2], own[0].ID, "newest first; equal timestamps fall back to id")
	for _, r := range own {
		assert.NotNil(t, r.Items)
	}

	others, err := env.requests.ListOtherRequests(ctx, env.booker.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, theirs.ID, others[0].ID)

	others, err = env.requests.ListOtherRequests(ctx, env.stranger.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, others, 1, "from=2 size=2 is page 1")
	assert.Equal(t, mine[0], others[0].ID)

	_, err = env.requests.ListOtherRequests(ctx, env.stranger.ID, -1, 2)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.requests.ListOwnRequests(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
