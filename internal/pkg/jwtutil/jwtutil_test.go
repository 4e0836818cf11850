package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	t.Run("Should round trip the session id", func(t *testing.T) {
		token, err := GenerateToken("s3cret", time.Hour, "sess-1")
		require.NoError(t, err)

		claims, err := ParseToken("s3cret", token)
		require.NoError(t, err)
		assert.Equal(t, "sess-1", claims.SessionID)
		assert.Equal(t, "sess-1", claims.Subject)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		token, err := GenerateToken("a", time.Hour, "sess-1")
		require.NoError(t, err)
		_, err = ParseToken("b", token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		token, err := GenerateToken("s", -time.Minute, "sess-1")
		require.NoError(t, err)
		_, err = ParseToken("s", token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject a token without a session", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})
		signed, err := token.SignedString([]byte("s"))
		require.NoError(t, err)
		_, err = ParseToken("s", signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should refuse to sign without a secret", func(t *testing.T) {
		_, err := GenerateToken("", time.Hour, "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
