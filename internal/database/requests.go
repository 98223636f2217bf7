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

var requestColumns = []string{"id", "requester_id", "description", "created_at"}

func scanRequest(row rowScanner) (*models.ItemRequest, error) {
	var r models.ItemRequest
	if err := row.Scan(&r.ID, &r.RequesterID, &r.Description, &r.Created); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	if req.Created.IsZero() {
		req.Created = time.Now()
	}
	req.Created = utc(req.Created)

	query := `INSERT INTO requests (requester_id, description, created_at) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, query, req.RequesterID, req.Description, req.Created)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query, args, err := sq.Select(requestColumns...).From("requests").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build request query: %w", err)
	}

	req, err := scanRequest(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// GetRequestsByRequester lists a user's own requests, newest first.
func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	builder := sq.Select(requestColumns...).
		From("requests").
		Where(sq.Eq{"requester_id": requesterID}).
		OrderBy("created_at DESC", "id DESC")
	return db.queryRequests(ctx, builder)
}

// GetRequestsExcept pages through everyone else's requests, newest first.
func (db *DB) GetRequestsExcept(ctx context.Context, userID int64, page models.PageRequest) ([]*models.ItemRequest, error) {
	builder := sq.Select(requestColumns...).
		From("requests").
		Where(sq.NotEq{"requester_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	return db.queryRequests(ctx, paginate(builder, page))
}

func (db *DB) queryRequests(ctx context.Context, builder sq.SelectBuilder) ([]*models.ItemRequest, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build requests query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
