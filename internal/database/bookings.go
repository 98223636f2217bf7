package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var available bool
	err = tx.QueryRowContext(ctx, `SELECT owner_id, name, available FROM items WHERE id = ?`, booking.ItemID).
		Scan(&booking.OwnerID, &booking.ItemName, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", booking.ItemID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check item in tx: %w", err)
	}
	if !available {
		return ErrNotAvailable
	}

	err = tx.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, booking.BookerID).Scan(&booking.BookerName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %d: %w", booking.BookerID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check booker in tx: %w", err)
	}

	query := `INSERT INTO bookings (item_id, booker_id, start_at, end_at, status, version, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := utc(time.Now())
	result, err := tx.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		utc(booking.Start),
		utc(booking.End),
		booking.Status,
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.Start = utc(booking.Start)
	booking.End = utc(booking.End)
	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query, args, err := bookingSelect().Where("b.id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build booking query: %w", err)
	}

	booking, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// DecideBooking moves a WAITING booking to status. It fails with
// ErrConcurrentModification when the row is no longer WAITING at fromVersion.
func (db *DB) DecideBooking(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, status, utc(time.Now()), id, fromVersion, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) ListBookings(ctx context.Context, q models.BookingQuery, now time.Time) ([]*models.Booking, error) {
	builder, err := bookingListQuery(q, now)
	if err != nil {
		return nil, err
	}
	return db.queryBookings(ctx, builder)
}

func (db *DB) GetLastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.queryOptionalBooking(ctx, lastApprovedQuery(itemID, now))
}

func (db *DB) GetNextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return db.queryOptionalBooking(ctx, nextApprovedQuery(itemID, now))
}

func (db *DB) HasCompletedApprovedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT EXISTS(
                SELECT 1 FROM bookings
                WHERE booker_id = ? AND item_id = ? AND status = ? AND end_at < ?
              )`
	var exists bool
	if err := db.QueryRowContext(ctx, query, userID, itemID, models.StatusApproved, utc(now)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed booking: %w", err)
	}
	return exists, nil
}
