package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Minute)
	token, err := svc.GenerateToken(3, 11, "front_desk")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.TenantID)
	assert.Equal(t, int64(11), claims.UserID)
	assert.Equal(t, "front_desk", claims.Role)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := New("secret", time.Minute)

	expired, err := New("secret", -time.Minute).GenerateToken(1, 1, "admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	otherKey, err := New("other", time.Minute).GenerateToken(1, 1, "admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(otherKey)
	assert.Error(t, err)

	noTenant, err := svc.GenerateToken(0, 1, "admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(noTenant)
	assert.Error(t, err)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{TenantID: 1}).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(none)
	assert.Error(t, err)
}
