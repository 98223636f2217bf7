package models

import "time"

// ItemRequest is a user's ask for an item nobody lists yet. Owners answer it
// by creating an item with RequestID set.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequesterID int64     `json:"requester_id"`
	Created     time.Time `json:"created"`
	Items       []*Item   `json:"items"`
}

type NewItemRequest struct {
	Description string `json:"description"`
}
