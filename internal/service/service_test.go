package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type testEnv struct {
	db       *database.DB
	bus      *mockEventBus
	bookings *BookingService
	items    *ItemService
	users    *UserService
	requests *RequestService
	owner    *models.User
	booker   *models.User
	stranger *models.User
	item     *models.Item
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	db, err := database.NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newTestEnvWithDB(t, db, opts...)
}

func newTestEnvWithDB(t *testing.T, db *database.DB, opts ...Option) *testEnv {
	t.Helper()
	bus := new(mockEventBus)
	bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)

	clock := func() time.Time { return testNow }
	opts = append([]Option{WithClock(clock)}, opts...)
	env := &testEnv{db: db, bus: bus}
	env.bookings = NewBookingService(db, bus, nil, opts...)
	env.items = NewItemService(db, env.bookings, clock, nil)
	env.users = NewUserService(db, nil)
	env.requests = NewRequestService(db, clock, nil)

	env.owner = env.createUser(t, "owner")
	env.booker = env.createUser(t, "booker")
	env.stranger = env.createUser(t, "stranger")
	env.item = env.createItem(t, env.owner.ID, "Drill", true)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), models.NewUser{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func (e *testEnv) createItem(t *testing.T, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item, err := e.items.CreateItem(context.Background(), ownerID, models.NewItem{
		Name: name, Description: name + " for rent", Available: &available,
	})
	require.NoError(t, err)
	return item
}

// insertBooking bypasses the window rules so tests can seed past bookings.
func (e *testEnv) insertBooking(t *testing.T, bookerID int64, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: e.item.ID, BookerID: bookerID, Start: start, End: end, Status: status}
	require.NoError(t, e.db.CreateBooking(context.Background(), b))
	return b
}
