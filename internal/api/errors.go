package api

import (
	"net/http"

	"shareit/internal/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorResponse is the REST error body.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

const internalErrorMessage = "internal server error"

// httpError maps a service error onto a status code and body.
// Only the error kind is inspected, so internal reasons never leak.
func httpError(err error) (int, errorResponse) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.ErrNotFound:
		return http.StatusNotFound, errorResponse{Error: kind.Error(), Description: err.Error()}
	case domain.ErrUnsupportedState:
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Description: err.Error()}
	case domain.ErrNotAvailable, domain.ErrValidation:
		return http.StatusBadRequest, errorResponse{Error: kind.Error(), Description: err.Error()}
	case domain.ErrConflict:
		return http.StatusConflict, errorResponse{Error: kind.Error(), Description: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: internalErrorMessage, Description: internalErrorMessage}
	}
}

func grpcError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.ErrNotAvailable:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.ErrValidation, domain.ErrUnsupportedState:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.ErrConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, internalErrorMessage)
	}
}
