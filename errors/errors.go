package errors

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = errors.New("worker panic")

	ErrIdentityNotFound          = errors.New("identity not found")
	ErrIdentityAlreadyExists     = errors.New("identity already exists")
	ErrConversationNotFound      = errors.New("conversation not found")
	ErrConversationAlreadyExists = errors.New("conversation already exists")
	ErrInvalidParticipants       = errors.New("a conversation needs two distinct non-empty participants")
	ErrInvalidUsername           = errors.New("invalid username")
	ErrInvalidRequest            = errors.New("invalid request")

	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("connection send buffer full")

	ErrUnknownStorageDriver = errors.New("unknown storage driver")
	ErrUnknownTypingScope   = errors.New("unknown typing scope")

	ErrMissingToken = errors.New("authorization token is missing")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("admin role required")
)

// Is and As let callers classify errors without importing the standard
// library package under another name.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

// MapToGRPCError translates domain errors into gRPC status errors for the admin API.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrIdentityNotFound), errors.Is(err, ErrConversationNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrIdentityAlreadyExists), errors.Is(err, ErrConversationAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrInvalidParticipants), errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus is the HTTP counterpart of MapToGRPCError.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrIdentityNotFound), errors.Is(err, ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIdentityAlreadyExists), errors.Is(err, ErrConversationAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidParticipants), errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
