package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64, page models.PageRequest) ([]*models.Item, error)
	SearchAvailableItems(ctx context.Context, text string, page models.PageRequest) ([]*models.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	GetItemsByRequests(ctx context.Context, requestIDs []int64) (map[int64][]*models.Item, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetRequestsExcept(ctx context.Context, userID int64, page models.PageRequest) ([]*models.ItemRequest, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	DecideBooking(ctx context.Context, id int64, version int64, status models.BookingStatus) error
	ListBookings(ctx context.Context, query models.BookingQuery, now time.Time) ([]*models.Booking, error)
	GetLastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasCompletedApprovedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error)
}

type OutboxRepository interface {
	CreateOutboxEvent(ctx context.Context, event *models.OutboxEvent) error
	GetPendingOutboxEvents(ctx context.Context, now time.Time, limit int) ([]models.OutboxEvent, error)
	UpdateOutboxEventStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Repository is the full store used by the services.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository
}

// RateLimitStore counts requests per key inside a fixed window.
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, bookerID int64, req models.NewBooking) (*models.Booking, error)
	ApproveBooking(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.Booking, error)
	GetBooking(ctx context.Context, viewerID, bookingID int64) (*models.Booking, error)
	ListBookerBookings(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.Booking, error)
	ListOwnerBookings(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.Booking, error)
	ItemBookingSummary(ctx context.Context, itemID, viewerID int64, now time.Time) (models.ItemBookingSummary, error)
	HasCompletedApprovedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, req models.NewItem) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error)
	ListOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemView, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error)
	AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error)
	DeleteItem(ctx context.Context, ownerID, itemID int64) error
}

type RequestService interface {
	CreateRequest(ctx context.Context, requesterID int64, req models.NewItemRequest) (*models.ItemRequest, error)
	ListOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	ListOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error)
	GetRequest(ctx context.Context, viewerID, requestID int64) (*models.ItemRequest, error)
}

type UserService interface {
	CreateUser(ctx context.Context, req models.NewUser) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
