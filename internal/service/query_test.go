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

func bookingIDs(bookings []*models.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

func TestListBookingsValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.bookings.ListBookerBookings(ctx, 999, "BOGUS", -1, 0)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "user is checked first")

	_, err = env.bookings.ListBookerBookings(ctx, env.booker.ID, "BOGUS", -1, 10)
	assert.True(t, errors.Is(err, domain.ErrValidation), "paging is checked before state")

	_, err = env.bookings.ListOwnerBookings(ctx, env.owner.ID, "ALL", 0, 0)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.bookings.ListBookerBookings(ctx, env.booker.ID, "BOGUS", 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedState))
	assert.Equal(t, "Unknown state: BOGUS", err.Error())
}

func TestListBookingsWaitingScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start, end := future(1)
	booking, err := env.bookings.CreateBooking(ctx, env.booker.ID, models.NewBooking{ItemID: env.item.ID, Start: start, End: end})
	require.NoError(t, err)

	waiting, err := env.bookings.ListBookerBookings(ctx, env.booker.ID, "WAITING", 0, 10)
	require.NoError(t, err)
	assert.Len(t, waiting, 1)

	_, err = env.bookings.ApproveBooking(ctx, env.owner.ID, booking.ID, true)
	require.NoError(t, err)

	waiting, err = env.bookings.ListBookerBookings(ctx, env.booker.ID, "waiting", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, waiting)

	all, err := env.bookings.ListBookerBookings(ctx, env.booker.ID, "ALL", 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	all, err = env.bookings.ListBookerBookings(ctx, env.booker.ID, "", 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1, "empty state means ALL")
}

func TestListBookingsScopes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := time.Hour

	past := env.insertBooking(t, env.booker.ID, testNow.Add(-3*h), testNow.Add(-2*h), models.StatusApproved)
	current := env.insertBooking(t, env.stranger.ID, testNow.Add(-h), testNow.Add(h), models.StatusApproved)
	next := env.insertBooking(t, env.booker.ID, testNow.Add(2*h), testNow.Add(3*h), models.StatusRejected)

	tests := []struct {
		state  string
		owner  []int64
		booker []int64
	}{
		{"ALL", []int64{next.ID, current.ID, past.ID}, []int64{next.ID, past.ID}},
		{"CURRENT", []int64{current.ID}, []int64{}},
		{"PAST", []int64{past.ID}, []int64{past.ID}},
		{"FUTURE", []int64{next.ID}, []int64{next.ID}},
		{"WAITING", []int64{}, []int64{}},
		{"REJECTED", []int64{next.ID}, []int64{next.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			owned, err := env.bookings.ListOwnerBookings(ctx, env.owner.ID, tt.state, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, bookingIDs(owned))

			made, err := env.bookings.ListBookerBookings(ctx, env.booker.ID, tt.state, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.booker, bookingIDs(made))
		})
	}

	made, err := env.bookings.ListOwnerBookings(ctx, env.booker.ID, "ALL", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, made, "booker owns no items")
}

func TestListBookingsPaging(t *testing.T) {
	env := newTestEnv(t, WithMaxPageSize(2))
	ctx := context.Background()

	var created []int64
	for i := 1; i <= 5; i++ {
		start, end := future(i)
		b := env.insertBooking(t, env.booker.ID, start, end, models.StatusWaiting)
		created = append(created, b.ID)
	}

	page, err := env.bookings.ListBookerBookings(ctx, env.booker.ID, "ALL", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{created[4], created[3]}, bookingIDs(page))

	page, err = env.bookings.ListBookerBookings(ctx, env.booker.ID, "FUTURE", 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{created[2], created[1]}, bookingIDs(page), "from=3 size=2 is page 1")

	page, err = env.bookings.ListBookerBookings(ctx, env.booker.ID, "ALL", 100, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestListBookingsOversizePage(t *testing.T) {
	env := newTestEnv(t, WithMaxPageSize(2))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		start, end := future(i)
		env.insertBooking(t, env.booker.ID, start, end, models.StatusWaiting)
	}

	// The window is always page from/size, so an oversize request is refused.
	page, err := env.bookings.ListBookerBookings(ctx, env.booker.ID, "ALL", 3, 4)
	require.Error(t, err)
	assert.Nil(t, page)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "Invalid paging parameters: size=4 exceeds 2", err.Error())

	_, err = env.bookings.ListOwnerBookings(ctx, env.owner.ID, "ALL", 0, 3)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	page, err = env.bookings.ListOwnerBookings(ctx, env.owner.ID, "ALL", 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
