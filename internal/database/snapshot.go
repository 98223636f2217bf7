package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
)

// SnapshotService periodically copies the sqlite store into StoragePath.
type SnapshotService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewSnapshotService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *SnapshotService) interval() time.Duration {
	interval := 24 * time.Hour
	if s.config.Schedule == "" {
		return interval
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("invalid snapshot schedule, using 24h")
		return interval
	}
	return d
}

// Start takes a snapshot immediately and then on every tick until ctx is done.
func (s *SnapshotService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("snapshot service is disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Msg("snapshot service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := s.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial snapshot failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Snapshot(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled snapshot failed")
			}
			s.Prune()
		}
	}
}

// Snapshot writes a consistent copy of the store and returns its path.
func (s *SnapshotService) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("shareit_%s.db", s.now().UTC().Format("20060102_150405"))
	target := filepath.Join(s.config.StoragePath, name)

	escaped := strings.ReplaceAll(target, "'", "''")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", escaped)); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, falling back to file copy")
		if err := s.copyFile(target); err != nil {
			return "", err
		}
	}

	s.logger.Info().Str("path", target).Msg("snapshot completed")
	return target, nil
}

func (s *SnapshotService) copyFile(target string) error {
	path := s.db.Path()
	if path == "" || path == ":memory:" {
		return fmt.Errorf("in-memory database cannot be copied")
	}

	source, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open database file: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("copy database file: %w", err)
	}
	return nil
}

// Prune removes snapshots older than RetentionDays.
func (s *SnapshotService) Prune() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read snapshot directory")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, file.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", file.Name()).Msg("failed to delete old snapshot")
			continue
		}
		removed++
	}
	return removed
}
