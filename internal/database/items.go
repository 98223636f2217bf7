package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var itemColumns = []string{"id", "owner_id", "name", "description", "available", "request_id", "created_at", "updated_at"}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item      models.Item
		requestID sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Available, &requestID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		item.RequestID = &requestID.Int64
	}
	return &item, nil
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (owner_id, name, description, available, request_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := utc(time.Now())
	result, err := db.ExecContext(ctx, query,
		item.OwnerID,
		item.Name,
		item.Description,
		item.Available,
		item.RequestID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	query, args, err := sq.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	item, err := scanItem(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, available = ?, updated_at = ? WHERE id = ?`
	now := utc(time.Now())
	result, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}
	item.UpdatedAt = now
	return nil
}

// DeleteItem removes an item that has never been booked, together with its comments.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var booked bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE item_id = ?)`, id).Scan(&booked); err != nil {
		return fmt.Errorf("failed to check item bookings: %w", err)
	}
	if booked {
		return fmt.Errorf("item %d has bookings: %w", id, ErrInUse)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item comments: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// GetItemsByRequests groups the items answering each of the given requests.
func (db *DB) GetItemsByRequests(ctx context.Context, requestIDs []int64) (map[int64][]*models.Item, error) {
	out := make(map[int64][]*models.Item, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}

	items, err := db.queryItems(ctx, sq.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"request_id": requestIDs}).
		OrderBy("id ASC"))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[*item.RequestID] = append(out[*item.RequestID], item)
	}
	return out, nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page models.PageRequest) ([]*models.Item, error) {
	builder := sq.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("id ASC")
	return db.queryItems(ctx, paginate(builder, page))
}

// SearchAvailableItems matches text against name and description, ignoring case.
func (db *DB) SearchAvailableItems(ctx context.Context, text string, page models.PageRequest) ([]*models.Item, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	builder := sq.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"available": true}).
		Where(sq.Or{
			sq.Like{"lower(name)": pattern},
			sq.Like{"lower(description)": pattern},
		}).
		OrderBy("id ASC")
	return db.queryItems(ctx, paginate(builder, page))
}

func (db *DB) queryItems(ctx context.Context, builder sq.SelectBuilder) ([]*models.Item, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build items query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func paginate(builder sq.SelectBuilder, page models.PageRequest) sq.SelectBuilder {
	if page.Size <= 0 {
		return builder
	}
	return builder.Limit(uint64(page.Size)).Offset(uint64(page.Offset()))
}
