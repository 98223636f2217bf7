package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	db      *DB
	owner   *models.User
	booker  *models.User
	item    *models.Item
	past    *models.Booking
	current *models.Booking
	future  *models.Booking
	later   *models.Booking
}

func setupBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &bookingFixture{db: db}
	f.owner = createTestUser(t, db, "owner")
	f.booker = createTestUser(t, db, "booker")
	f.item = createTestItem(t, db, f.owner.ID, "Drill", true)

	h := time.Hour
	f.past = insertTestBooking(t, db, f.item.ID, f.booker.ID, testNow.Add(-3*h), testNow.Add(-2*h), models.StatusApproved)
	f.current = insertTestBooking(t, db, f.item.ID, f.booker.ID, testNow.Add(-h), testNow.Add(h), models.StatusWaiting)
	f.future = insertTestBooking(t, db, f.item.ID, f.booker.ID, testNow.Add(2*h), testNow.Add(3*h), models.StatusRejected)
	f.later = insertTestBooking(t, db, f.item.ID, f.booker.ID, testNow.Add(4*h), testNow.Add(5*h), models.StatusApproved)
	return f
}

func ids(bookings []*models.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	booker := createTestUser(t, db, "booker")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	b := &models.Booking{ItemID: item.ID, BookerID: booker.ID, Start: start, End: start.Add(time.Hour), Status: models.StatusWaiting}
	require.NoError(t, db.CreateBooking(ctx, b))

	assert.NotZero(t, b.ID)
	assert.Equal(t, owner.ID, b.OwnerID)
	assert.Equal(t, "Drill", b.ItemName)
	assert.Equal(t, "booker", b.BookerName)
	assert.Equal(t, int64(1), b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(start))
	assert.True(t, got.End.Equal(start.Add(time.Hour)))
	assert.Equal(t, models.StatusWaiting, got.Status)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, booker.ID, got.BookerID)
	assert.Equal(t, "booker", got.BookerName)
}

func TestCreateBookingRejections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	booker := createTestUser(t, db, "booker")
	hidden := createTestItem(t, db, owner.ID, "Hidden", false)
	item := createTestItem(t, db, owner.ID, "Drill", true)

	err := db.CreateBooking(ctx, &models.Booking{ItemID: hidden.ID, BookerID: booker.ID,
		Start: testNow, End: testNow.Add(time.Hour), Status: models.StatusWaiting})
	assert.True(t, errors.Is(err, ErrNotAvailable))

	err = db.CreateBooking(ctx, &models.Booking{ItemID: 999, BookerID: booker.ID,
		Start: testNow, End: testNow.Add(time.Hour), Status: models.StatusWaiting})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = db.CreateBooking(ctx, &models.Booking{ItemID: item.ID, BookerID: 999,
		Start: testNow, End: testNow.Add(time.Hour), Status: models.StatusWaiting})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = db.CreateBooking(ctx, &models.Booking{ItemID: item.ID, BookerID: booker.ID,
		Start: testNow, End: testNow, Status: models.StatusWaiting})
	assert.Error(t, err, "zero-length window violates the table check")

	_, err = db.GetBooking(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDecideBooking(t *testing.T) {
	f := setupBookingFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.DecideBooking(ctx, f.current.ID, 1, models.StatusApproved))

	got, err := f.db.GetBooking(ctx, f.current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, int64(2), got.Version)

	err = f.db.DecideBooking(ctx, f.current.ID, 1, models.StatusRejected)
	assert.True(t, errors.Is(err, ErrConcurrentModification))

	err = f.db.DecideBooking(ctx, f.current.ID, 2, models.StatusRejected)
	assert.True(t, errors.Is(err, ErrConcurrentModification), "only WAITING bookings can be decided")

	got, err = f.db.GetBooking(ctx, f.current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestListBookingsByState(t *testing.T) {
	f := setupBookingFixture(t)
	ctx := context.Background()
	page := models.PageRequest{From: 0, Size: 10}

	tests := []struct {
		state models.BookingState
		want  []int64
	}{
		{models.StateAll, []int64{f.later.ID, f.future.ID, f.current.ID, f.past.ID}},
		{models.StateCurrent, []int64{f.current.ID}},
		{models.StatePast, []int64{f.past.ID}},
		{models.StateFuture, []int64{f.later.ID, f.future.ID}},
		{models.StateWaiting, []int64{f.current.ID}},
		{models.StateRejected, []int64{f.future.ID}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			byBooker, err := f.db.ListBookings(ctx, models.BookingQuery{
				Scope: models.ScopeBooker, UserID: f.booker.ID, State: tt.state, Page: page,
			}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(byBooker))

			byOwner, err := f.db.ListBookings(ctx, models.BookingQuery{
				Scope: models.ScopeOwner, UserID: f.owner.ID, State: tt.state, Page: page,
			}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(byOwner))
		})
	}

	swapped, err := f.db.ListBookings(ctx, models.BookingQuery{
		Scope: models.ScopeOwner, UserID: f.booker.ID, State: models.StateAll, Page: page,
	}, testNow)
	require.NoError(t, err)
	assert.Empty(t, swapped)

	_, err = f.db.ListBookings(ctx, models.BookingQuery{
		Scope: models.ScopeBooker, UserID: f.booker.ID, State: "BOGUS", Page: page,
	}, testNow)
	assert.Error(t, err)
}

func TestListBookingsTimePartition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	booker := createTestUser(t, db, "booker")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	h := time.Hour
	startsNow := insertTestBooking(t, db, item.ID, booker.ID, testNow, testNow.Add(h), models.StatusWaiting)
	endsNow := insertTestBooking(t, db, item.ID, booker.ID, testNow.Add(-h), testNow, models.StatusApproved)
	insertTestBooking(t, db, item.ID, booker.ID, testNow.Add(-2*h), testNow.Add(-h), models.StatusRejected)
	insertTestBooking(t, db, item.ID, booker.ID, testNow.Add(time.Second), testNow.Add(h), models.StatusWaiting)

	counts := map[int64]int{}
	for _, state := range []models.BookingState{models.StateCurrent, models.StatePast, models.StateFuture} {
		got, err := db.ListBookings(ctx, models.BookingQuery{
			Scope: models.ScopeBooker, UserID: booker.ID, State: state, Page: models.PageRequest{Size: 10},
		}, testNow)
		require.NoError(t, err)
		for _, b := range got {
			counts[b.ID]++
		}
		if state == models.StateCurrent {
			assert.ElementsMatch(t, []int64{startsNow.ID, endsNow.ID}, ids(got))
		}
	}

	require.Len(t, counts, 4)
	for id, n := range counts {
		assert.Equal(t, 1, n, "booking %d must fall in exactly one time partition", id)
	}
}

func TestListBookingsPagingAndTieBreak(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	booker := createTestUser(t, db, "booker")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	start := testNow.Add(24 * time.Hour)
	a := insertTestBooking(t, db, item.ID, booker.ID, start, start.Add(time.Hour), models.StatusWaiting)
	b := insertTestBooking(t, db, item.ID, booker.ID, start, start.Add(2*time.Hour), models.StatusWaiting)
	c := insertTestBooking(t, db, item.ID, booker.ID, start.Add(-time.Hour), start, models.StatusWaiting)

	query := models.BookingQuery{Scope: models.ScopeBooker, UserID: booker.ID, State: models.StateAll}

	query.Page = models.PageRequest{From: 0, Size: 2}
	first, err := db.ListBookings(ctx, query, testNow)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, ids(first))

	again, err := db.ListBookings(ctx, query, testNow)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(again))

	query.Page = models.PageRequest{From: 3, Size: 2}
	second, err := db.ListBookings(ctx, query, testNow)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, ids(second))

	query.Page = models.PageRequest{From: 10, Size: 2}
	empty, err := db.ListBookings(ctx, query, testNow)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLastAndNextApprovedBooking(t *testing.T) {
	f := setupBookingFixture(t)
	ctx := context.Background()

	last, err := f.db.GetLastApprovedBooking(ctx, f.item.ID, testNow)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, f.past.ID, last.ID)

	next, err := f.db.GetNextApprovedBooking(ctx, f.item.ID, testNow)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, f.later.ID, next.ID)

	// A booking starting exactly now counts as last, not next.
	last, err = f.db.GetLastApprovedBooking(ctx, f.item.ID, f.later.Start)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, f.later.ID, last.ID)

	next, err = f.db.GetNextApprovedBooking(ctx, f.item.ID, f.later.Start)
	require.NoError(t, err)
	assert.Nil(t, next)

	last, err = f.db.GetLastApprovedBooking(ctx, f.item.ID, testNow.Add(-10*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestHasCompletedApprovedBooking(t *testing.T) {
	f := setupBookingFixture(t)
	ctx := context.Background()

	ok, err := f.db.HasCompletedApprovedBooking(ctx, f.booker.ID, f.item.ID, testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.db.HasCompletedApprovedBooking(ctx, f.owner.ID, f.item.ID, testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.db.HasCompletedApprovedBooking(ctx, f.booker.ID, f.item.ID, f.past.End)
	require.NoError(t, err)
	assert.False(t, ok, "end must be strictly before now")
}
