package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testSecret = []byte("test-secret-123")

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, subject string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func signTokenWithoutExpiry(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestAuthInterceptor(t *testing.T) {
	ownerID := uuid.New()
	interceptor := AuthInterceptor(testSecret)
	valid := signToken(t, jwt.SigningMethodHS256, testSecret, ownerID.String(), time.Now().Add(time.Hour))

	tests := []struct {
		name           string
		ctx            context.Context
		handlerCalled  bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+valid),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Valid Raw Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", valid),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Wrong Secret",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte("other"), ownerID.String(), time.Now().Add(time.Hour))),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Expired Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, ownerID.String(), time.Now().Add(-time.Minute))),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Token Without Expiry",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+signTokenWithoutExpiry(t, ownerID.String())),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Wrong Algorithm",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+signToken(t, jwt.SigningMethodHS512, testSecret, ownerID.String(), time.Now().Add(time.Hour))),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Subject Not An Owner ID",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, "user_123", time.Now().Add(time.Hour))),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Missing Metadata",
			ctx:            context.Background(),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			var seenOwner uuid.UUID
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				handlerCalled = true
				seenOwner, _ = OwnerIDFromContext(ctx)
				return "success", nil
			}

			info := &grpc.UnaryServerInfo{
				FullMethod: "/" + ServiceName + "/GetOverview",
			}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
				assert.Equal(t, ownerID, seenOwner)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func TestOwnerIDFromContext(t *testing.T) {
	_, ok := OwnerIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = OwnerIDFromContext(WithOwnerID(context.Background(), uuid.Nil))
	assert.False(t, ok)

	ownerID := uuid.New()
	got, ok := OwnerIDFromContext(WithOwnerID(context.Background(), ownerID))
	assert.True(t, ok)
	assert.Equal(t, ownerID, got)
}

func TestParseOwnerToken_RequiresExpiry(t *testing.T) {
	ownerID := uuid.New()

	_, err := ParseOwnerToken(testSecret, signTokenWithoutExpiry(t, ownerID.String()))
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)

	got, err := ParseOwnerToken(testSecret, signToken(t, jwt.SigningMethodHS256, testSecret, ownerID.String(), time.Now().Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, ownerID, got)
}
