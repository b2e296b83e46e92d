package auth

import (
	"chat-relay/errors"
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type contextKey string

const (
	SubjectKey contextKey = "subject"
	RolesKey   contextKey = "roles"
)

// NewAdminInterceptor rejects every call that does not carry a valid bearer
// token with the admin role.
func NewAdminInterceptor(log *slog.Logger, secret []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, errors.MapToGRPCError(errors.ErrMissingToken)
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, errors.MapToGRPCError(errors.ErrMissingToken)
		}

		claims, err := ValidateToken(secret, strings.TrimPrefix(values[0], "Bearer "))
		if err != nil {
			log.Debug("Admin call rejected", "method", info.FullMethod, "error", err)
			return nil, errors.MapToGRPCError(errors.ErrInvalidToken)
		}
		if !claims.HasRole(RoleAdmin) {
			log.Warn("Admin call without admin role", "method", info.FullMethod, "subject", claims.Subject)
			return nil, errors.MapToGRPCError(errors.ErrForbidden)
		}

		ctx = context.WithValue(ctx, SubjectKey, claims.Subject)
		ctx = context.WithValue(ctx, RolesKey, claims.Roles)
		return handler(ctx, req)
	}
}
