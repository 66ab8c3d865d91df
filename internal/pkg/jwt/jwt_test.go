package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-for-jwt", "1h")
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken("mgr-1", "1032456789")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), expiresAt, 5)

	managerID, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mgr-1", managerID)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-for-jwt", "1h")
	require.NoError(t, err)

	other, err := NewJWTService("another-secret", "1h")
	require.NoError(t, err)
	foreign, _, err := other.GenerateAccessToken("mgr-1", "1032456789")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(foreign)
	assert.Error(t, err, "signed with a different key")

	_, err = svc.ParseAccessToken("not-a-token")
	assert.Error(t, err)

	expired := &JWTService{
		accessTokenExpiration: time.Minute,
		tokenAuth:             svc.JWTAuth(),
		now:                   func() time.Time { return time.Now().Add(-time.Hour) },
	}
	old, _, err := expired.GenerateAccessToken("mgr-1", "1032456789")
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(old)
	assert.Error(t, err, "expired beyond the accepted skew")
}

func TestNewJWTService_InvalidExpiration(t *testing.T) {
	_, err := NewJWTService("secret", "forever")
	assert.Error(t, err)
}
