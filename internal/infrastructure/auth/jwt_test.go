package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: 15 * time.Minute,
		Issuer:     "test-issuer",
	}
	return NewJWTService(cfg)
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		TenantID: uuid.New(),
		UserID:   uuid.New(),
		Username: "testuser",
		Roles:    []string{"member"},
	}
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:     "test-secret",
		Expiration: 15 * time.Minute,
		Issuer:     "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.Expiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateToken(input)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, _, err := svc.GenerateToken(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)

	require.NoError(t, err)
	assert.Equal(t, input.TenantID.String(), claims.TenantID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Username, claims.Username)
	assert.Equal(t, input.Roles, claims.Roles)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("not-a-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, _, err := svc.GenerateToken(input)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:     "a-completely-different-secret-key",
		Expiration: 15 * time.Minute,
		Issuer:     "test-issuer",
	})

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: -1 * time.Minute,
		Issuer:     "test-issuer",
	})

	token, _, err := svc.GenerateToken(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_MissingTenantID(t *testing.T) {
	svc := newTestJWTService()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestValidateAccessToken_MissingUserID(t *testing.T) {
	svc := newTestJWTService()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TenantID: uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidateAccessToken_WrongSigningMethod(t *testing.T) {
	svc := newTestJWTService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		TenantID: uuid.New().String(),
		UserID:   uuid.New().String(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_HasRole(t *testing.T) {
	claims := &Claims{Roles: []string{"member", RoleAdmin}}

	assert.True(t, claims.HasRole(RoleAdmin))
	assert.True(t, claims.HasRole("member"))
	assert.False(t, claims.HasRole("auditor"))
}

func TestClaims_TenantUUID(t *testing.T) {
	tenantID := uuid.New()
	claims := &Claims{TenantID: tenantID.String()}

	parsed, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, tenantID, parsed)

	claims.TenantID = "garbage"
	_, err = claims.TenantUUID()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_UserUUID(t *testing.T) {
	userID := uuid.New()
	claims := &Claims{UserID: userID.String()}

	parsed, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)

	claims.UserID = ""
	_, err = claims.UserUUID()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
