package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemBookingSummaryScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start, end := future(1)

	booking, err := env.bookings.CreateBooking(ctx, env.booker.ID, models.NewBooking{ItemID: env.item.ID, Start: start, End: end})
	require.NoError(t, err)

	summary, err := env.bookings.ItemBookingSummary(ctx, env.item.ID, env.owner.ID, testNow)
	require.NoError(t, err)
	assert.Nil(t, summary.LastBooking)
	assert.Nil(t, summary.NextBooking, "waiting bookings are not summarized")

	_, err = env.bookings.ApproveBooking(ctx, env.owner.ID, booking.ID, true)
	require.NoError(t, err)

	summary, err = env.bookings.ItemBookingSummary(ctx, env.item.ID, env.owner.ID, testNow)
	require.NoError(t, err)
	assert.Nil(t, summary.LastBooking)
	require.NotNil(t, summary.NextBooking)
	assert.Equal(t, booking.ID, summary.NextBooking.ID)
	assert.Equal(t, env.booker.ID, summary.NextBooking.BookerID)

	later := testNow.Add(3 * time.Hour)
	summary, err = env.bookings.ItemBookingSummary(ctx, env.item.ID, env.owner.ID, later)
	require.NoError(t, err)
	require.NotNil(t, summary.LastBooking)
	assert.Equal(t, booking.ID, summary.LastBooking.ID)
	assert.Nil(t, summary.NextBooking)
}

func TestItemBookingSummaryVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := time.Hour

	last := env.insertBooking(t, env.booker.ID, testNow.Add(-2*h), testNow.Add(-h), models.StatusApproved)
	env.insertBooking(t, env.booker.ID, testNow.Add(-h), testNow.Add(-time.Minute), models.StatusRejected)
	next := env.insertBooking(t, env.booker.ID, testNow.Add(2*h), testNow.Add(3*h), models.StatusApproved)
	env.insertBooking(t, env.booker.ID, testNow.Add(4*h), testNow.Add(5*h), models.StatusApproved)

	summary, err := env.bookings.ItemBookingSummary(ctx, env.item.ID, env.owner.ID, testNow)
	require.NoError(t, err)
	require.NotNil(t, summary.LastBooking)
	require.NotNil(t, summary.NextBooking)
	assert.Equal(t, last.ID, summary.LastBooking.ID)
	assert.Equal(t, next.ID, summary.NextBooking.ID)

	for _, viewer := range []int64{env.booker.ID, env.stranger.ID} {
		summary, err := env.bookings.ItemBookingSummary(ctx, env.item.ID, viewer, testNow)
		require.NoError(t, err)
		assert.Nil(t, summary.LastBooking)
		assert.Nil(t, summary.NextBooking)
	}

	_, err = env.bookings.ItemBookingSummary(ctx, 999, env.owner.ID, testNow)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
