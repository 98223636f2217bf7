package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var bookingColumns = []string{
	"b.id", "b.item_id", "i.name", "i.owner_id", "b.booker_id", "u.name",
	"b.start_at", "b.end_at", "b.status", "b.version", "b.created_at", "b.updated_at",
}

func bookingSelect() sq.SelectBuilder {
	return sq.Select(bookingColumns...).
		From("bookings b").
		Join("items i ON i.id = b.item_id").
		Join("users u ON u.id = b.booker_id")
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(
		&b.ID, &b.ItemID, &b.ItemName, &b.OwnerID, &b.BookerID, &b.BookerName,
		&b.Start, &b.End, &status, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}

// statePredicate maps a listing filter onto its time or status condition.
// ALL has no condition.
func statePredicate(state models.BookingState, now time.Time) (sq.Sqlizer, error) {
	now = utc(now)
	switch state {
	case models.StateAll:
		return nil, nil
	case models.StateCurrent:
		return sq.And{sq.LtOrEq{"b.start_at": now}, sq.GtOrEq{"b.end_at": now}}, nil
	case models.StatePast:
		return sq.Lt{"b.end_at": now}, nil
	case models.StateFuture:
		return sq.Gt{"b.start_at": now}, nil
	case models.StateWaiting:
		return sq.Eq{"b.status": models.StatusWaiting}, nil
	case models.StateRejected:
		return sq.Eq{"b.status": models.StatusRejected}, nil
	default:
		return nil, fmt.Errorf("unsupported booking state %q", state)
	}
}

func scopePredicate(scope models.BookingScope, userID int64) (sq.Sqlizer, error) {
	switch scope {
	case models.ScopeBooker:
		return sq.Eq{"b.booker_id": userID}, nil
	case models.ScopeOwner:
		return sq.Eq{"i.owner_id": userID}, nil
	default:
		return nil, fmt.Errorf("unsupported booking scope %d", scope)
	}
}

// bookingListQuery orders by start descending; id breaks ties so pages are stable.
func bookingListQuery(q models.BookingQuery, now time.Time) (sq.SelectBuilder, error) {
	scope, err := scopePredicate(q.Scope, q.UserID)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	builder := bookingSelect().Where(scope)

	state, err := statePredicate(q.State, now)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	if state != nil {
		builder = builder.Where(state)
	}

	builder = builder.OrderBy("b.start_at DESC", "b.id DESC")
	return paginate(builder, q.Page), nil
}

func lastApprovedQuery(itemID int64, now time.Time) sq.SelectBuilder {
	return bookingSelect().
		Where(sq.Eq{"b.item_id": itemID, "b.status": models.StatusApproved}).
		Where(sq.LtOrEq{"b.start_at": utc(now)}).
		OrderBy("b.start_at DESC", "b.id DESC").
		Limit(1)
}

func nextApprovedQuery(itemID int64, now time.Time) sq.SelectBuilder {
	return bookingSelect().
		Where(sq.Eq{"b.item_id": itemID, "b.status": models.StatusApproved}).
		Where(sq.Gt{"b.start_at": utc(now)}).
		OrderBy("b.start_at ASC", "b.id ASC").
		Limit(1)
}

func (db *DB) queryBookings(ctx context.Context, builder sq.SelectBuilder) ([]*models.Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build bookings query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// queryOptionalBooking returns nil without error when nothing matches.
func (db *DB) queryOptionalBooking(ctx context.Context, builder sq.SelectBuilder) (*models.Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build booking query: %w", err)
	}

	b, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}
