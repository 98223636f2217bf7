package models

import "time"

type Item struct {
	ID          int64     `json:"id" yaml:"id"`
	OwnerID     int64     `json:"owner_id" yaml:"owner_id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Available   bool      `json:"available" yaml:"available"`
	RequestID   *int64    `json:"request_id,omitempty" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// NewItem carries the fields required to list an item.
type NewItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"request_id"`
}

// ItemPatch is a partial update; nil fields are left unchanged.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// ItemView is an item as shown to a particular viewer.
type ItemView struct {
	Item
	ItemBookingSummary
	Comments []Comment `json:"comments"`
}
