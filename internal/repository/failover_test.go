package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuotaStore struct {
	mock.Mock
}

func (m *mockQuotaStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverQuotaStore(t *testing.T) {
	primary := new(mockQuotaStore)
	fallback := new(mockQuotaStore)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverQuotaStore(primary, fallback, &logger)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "a", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "a", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "b", 5, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "b", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "b", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.IsDown())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		fallback.On("CheckRateLimit", ctx, "c", 5, time.Minute).Return(false, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "c", 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		primary.AssertNotCalled(t, "CheckRateLimit", ctx, "c", 5, time.Minute)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, "d", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "d", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.IsDown())
	})
}

func TestFailoverWithRealStores(t *testing.T) {
	dead := NewRedisQuotaStore(nil, "")
	memory := NewMemoryQuotaStore()
	repo := NewFailoverQuotaStore(dead, memory, nil)
	ctx := context.Background()

	allowed, err := repo.CheckRateLimit(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, repo.IsDown())
}
