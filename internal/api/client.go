package api

import (
	"context"
	"strconv"

	"shareit/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// BookingClient calls shareit.booking.v1.BookingService as a given user.
type BookingClient struct {
	conn grpc.ClientConnInterface
}

func NewBookingClient(conn grpc.ClientConnInterface) *BookingClient {
	return &BookingClient{conn: conn}
}

// AsUser attaches the acting user id to outgoing calls.
func AsUser(ctx context.Context, userID int64) context.Context {
	return metadata.AppendToOutgoingContext(ctx, userIDMetadataKey, strconv.FormatInt(userID, 10))
}

func (c *BookingClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	return c.conn.Invoke(ctx, method, in, out, opts...)
}

func (c *BookingClient) CreateBooking(ctx context.Context, in *CreateBookingRequest, opts ...grpc.CallOption) (*models.Booking, error) {
	out := new(models.Booking)
	if err := c.invoke(ctx, methodCreateBooking, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ApproveBooking(ctx context.Context, in *ApproveBookingRequest, opts ...grpc.CallOption) (*models.Booking, error) {
	out := new(models.Booking)
	if err := c.invoke(ctx, methodApproveBooking, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*models.Booking, error) {
	out := new(models.Booking)
	if err := c.invoke(ctx, methodGetBooking, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.invoke(ctx, methodListBookings, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) GetItemSummary(ctx context.Context, in *GetItemSummaryRequest, opts ...grpc.CallOption) (*models.ItemBookingSummary, error) {
	out := new(models.ItemBookingSummary)
	if err := c.invoke(ctx, methodGetItemSummary, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) HasCompletedBooking(ctx context.Context, in *HasCompletedBookingRequest, opts ...grpc.CallOption) (*HasCompletedBookingResponse, error) {
	out := new(HasCompletedBookingResponse)
	if err := c.invoke(ctx, methodHasCompletedBooking, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
