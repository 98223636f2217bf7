package api

import (
	"context"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const bookingServiceName = "shareit.booking.v1.BookingService"

const (
	methodCreateBooking       = "/" + bookingServiceName + "/CreateBooking"
	methodApproveBooking      = "/" + bookingServiceName + "/ApproveBooking"
	methodGetBooking          = "/" + bookingServiceName + "/GetBooking"
	methodListBookings        = "/" + bookingServiceName + "/ListBookings"
	methodGetItemSummary      = "/" + bookingServiceName + "/GetItemSummary"
	methodHasCompletedBooking = "/" + bookingServiceName + "/HasCompletedBooking"
)

type CreateBookingRequest struct {
	ItemID int64     `json:"item_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type ApproveBookingRequest struct {
	BookingID int64 `json:"booking_id"`
	Approved  bool  `json:"approved"`
}

type GetBookingRequest struct {
	BookingID int64 `json:"booking_id"`
}

// ListBookingsRequest lists the caller's bookings. Scope is "booker" (default) or "owner".
// A nil From or Size takes its default; a set value is validated as given.
type ListBookingsRequest struct {
	Scope string `json:"scope"`
	State string `json:"state"`
	From  *int   `json:"from,omitempty"`
	Size  *int   `json:"size,omitempty"`
}

type ListBookingsResponse struct {
	Bookings []*models.Booking `json:"bookings"`
}

type GetItemSummaryRequest struct {
	ItemID int64 `json:"item_id"`
}

type HasCompletedBookingRequest struct {
	ItemID int64 `json:"item_id"`
}

type HasCompletedBookingResponse struct {
	Completed bool `json:"completed"`
}

// BookingServiceServer is the server side of shareit.booking.v1.BookingService.
type BookingServiceServer interface {
	CreateBooking(context.Context, *CreateBookingRequest) (*models.Booking, error)
	ApproveBooking(context.Context, *ApproveBookingRequest) (*models.Booking, error)
	GetBooking(context.Context, *GetBookingRequest) (*models.Booking, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	GetItemSummary(context.Context, *GetItemSummaryRequest) (*models.ItemBookingSummary, error)
	HasCompletedBooking(context.Context, *HasCompletedBookingRequest) (*HasCompletedBookingResponse, error)
}

// BookingGRPCService adapts the booking engine to gRPC. The acting user comes from x-sharer-user-id metadata.
type BookingGRPCService struct {
	bookings        domain.BookingService
	defaultPageSize int
	now             func() time.Time
}

func NewBookingGRPCService(bookings domain.BookingService, defaultPageSize int) *BookingGRPCService {
	if defaultPageSize <= 0 {
		defaultPageSize = config.DefaultPageSize
	}
	return &BookingGRPCService{
		bookings:        bookings,
		defaultPageSize: defaultPageSize,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *BookingGRPCService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	userID, err := userIDFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.CreateBooking(ctx, userID, models.NewBooking{ItemID: req.ItemID, Start: req.Start, End: req.End})
	return booking, grpcError(err)
}

func (s *BookingGRPCService) ApproveBooking(ctx context.Context, req *ApproveBookingRequest) (*models.Booking, error) {
	userID, err := userIDFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.ApproveBooking(ctx, userID, req.BookingID, req.Approved)
	return booking, grpcError(err)
}

func (s *BookingGRPCService) GetBooking(ctx context.Context, req *GetBookingRequest) (*models.Booking, error) {
	userID, err := userIDFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetBooking(ctx, userID, req.BookingID)
	return booking, grpcError(err)
}

func (s *BookingGRPCService) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	userID, err := userIDFromMetadata(ctx)
	if err != nil {
		return nil, err
	}

	from, size := 0, s.defaultPageSize
	if req.From != nil {
		from = *req.From
	}
	if req.Size != nil {
		size = *req.Size
	}

	var bookings []*models.Booking
	switch strings.ToLower(strings.TrimSpace(req.Scope)) {
	case "", models.ScopeBooker.String():
		bookings, err = s.bookings.ListBookerBookings(ctx, userID, req.State, from, size)
	case models.ScopeOwner.String():
		bookings, err = s.bookings.ListOwnerBookings(ctx, userID, req.State, from, size)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown scope: %s", req.Scope)
	}
	if err != nil {
		return nil, grpcError(err)
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return &ListBookingsResponse{Bookings: bookings}, nil
}

func (s *BookingGRPCService) GetItemSummary(ctx context.Context, req *GetItemSummaryRequest) (*models.ItemBookingSummary, error) {
	userID, err := userIDFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.bookings.ItemBookingSummary(ctx, req.ItemID, userID, s.now())
	if err != nil {
		return nil, grpcError(err)
	}
	return &summary, nil
}

func (s *BookingGRPCService) HasCompletedBooking(ctx context.Context, req *HasCompletedBookingRequest) (*HasCompletedBookingResponse, error) {
	userID, err := userIDFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.bookings.HasCompletedApprovedBooking(ctx, userID, req.ItemID, s.now())
	if err != nil {
		return nil, grpcError(err)
	}
	return &HasCompletedBookingResponse{Completed: ok}, nil
}

func userIDFromMetadata(ctx context.Context) (int64, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	id, err := parseUserID(first(md.Get(userIDMetadataKey)))
	if err != nil {
		return 0, grpcError(err)
	}
	return id, nil
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&bookingServiceDesc, srv)
}

// unaryHandler builds a grpc.MethodDesc handler for one request type.
func unaryHandler[Req any](fullMethod string, call func(BookingServiceServer, context.Context, *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var bookingServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateBooking",
			Handler: unaryHandler(methodCreateBooking, func(s BookingServiceServer, ctx context.Context, in *CreateBookingRequest) (any, error) {
				return s.CreateBooking(ctx, in)
			}),
		},
		{
			MethodName: "ApproveBooking",
			Handler: unaryHandler(methodApproveBooking, func(s BookingServiceServer, ctx context.Context, in *ApproveBookingRequest) (any, error) {
				return s.ApproveBooking(ctx, in)
			}),
		},
		{
			MethodName: "GetBooking",
			Handler: unaryHandler(methodGetBooking, func(s BookingServiceServer, ctx context.Context, in *GetBookingRequest) (any, error) {
				return s.GetBooking(ctx, in)
			}),
		},
		{
			MethodName: "ListBookings",
			Handler: unaryHandler(methodListBookings, func(s BookingServiceServer, ctx context.Context, in *ListBookingsRequest) (any, error) {
				return s.ListBookings(ctx, in)
			}),
		},
		{
			MethodName: "GetItemSummary",
			Handler: unaryHandler(methodGetItemSummary, func(s BookingServiceServer, ctx context.Context, in *GetItemSummaryRequest) (any, error) {
				return s.GetItemSummary(ctx, in)
			}),
		},
		{
			MethodName: "HasCompletedBooking",
			Handler: unaryHandler(methodHasCompletedBooking, func(s BookingServiceServer, ctx context.Context, in *HasCompletedBookingRequest) (any, error) {
				return s.HasCompletedBooking(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shareit/booking/v1/booking.proto",
}
