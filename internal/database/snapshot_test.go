package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotService(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDB(filepath.Join(dir, "shareit.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	createTestUser(t, db, "alice")

	logger := zerolog.Nop()
	svc := NewSnapshotService(db, config.BackupConfig{
		Enabled:       true,
		RetentionDays: 1,
		StoragePath:   filepath.Join(dir, "snapshots"),
	}, &logger)
	svc.now = func() time.Time { return testNow }

	path, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shareit_20300601_120000.db", filepath.Base(path))
	assert.FileExists(t, path)

	copied, err := NewDB(path, nil)
	require.NoError(t, err)
	users, err := copied.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, copied.Close())

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 10) }
	assert.Equal(t, 1, svc.Prune())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotInterval(t *testing.T) {
	logger := zerolog.Nop()
	tests := []struct {
		schedule string
		want     time.Duration
	}{
		{"", 24 * time.Hour},
		{"30m", 30 * time.Minute},
		{"nonsense", 24 * time.Hour},
		{"-1h", 24 * time.Hour},
	}
	for _, tt := range tests {
		svc := NewSnapshotService(nil, config.BackupConfig{Schedule: tt.schedule}, &logger)
		assert.Equal(t, tt.want, svc.interval(), tt.schedule)
	}
}

func TestSnapshotStartDisabled(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewSnapshotService(nil, config.BackupConfig{Enabled: false}, &logger)

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled snapshot service should return immediately")
	}
}
