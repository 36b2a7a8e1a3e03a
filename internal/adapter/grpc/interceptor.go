package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ownerIDKey struct{}

// WithOwnerID returns a context carrying the authenticated owner
func WithOwnerID(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

// OwnerIDFromContext returns the owner stored by AuthInterceptor
func OwnerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	ownerID, ok := ctx.Value(ownerIDKey{}).(uuid.UUID)
	return ownerID, ok && ownerID != uuid.Nil
}

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the bearer token from the authorization metadata.
// The token must be an HS256 JWT signed with secret whose subject is the owner ID.
// If the token is missing or invalid, it returns status.Unauthenticated.
// If valid, it calls the handler with the owner ID in the context.
func AuthInterceptor(secret []byte) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		ownerID, err := ParseOwnerToken(secret, authHeaders[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(WithOwnerID(ctx, ownerID), req)
	}
}

// ParseOwnerToken verifies a bearer token and returns the owner ID in its subject
func ParseOwnerToken(secret []byte, header string) (uuid.UUID, error) {
	raw := strings.TrimSpace(header)
	if len(raw) > len("bearer ") && strings.EqualFold(raw[:len("bearer ")], "bearer ") {
		raw = strings.TrimSpace(raw[len("bearer "):])
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("token is not valid")
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil || ownerID == uuid.Nil {
		return uuid.Nil, errors.New("token subject is not an owner ID")
	}

	return ownerID, nil
}
