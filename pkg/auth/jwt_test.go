package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer   abc", "abc", false},
		{"Bearer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := TokenFromHeader(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser(t *testing.T) {
	token, err := NewToken("s3cret", "auth0|u1", time.Hour)
	require.NoError(t, err)

	t.Run("Should verify and read the subject", func(t *testing.T) {
		p := NewParser("s3cret")
		assert.True(t, p.Verifies())

		userID, err := p.UserID(token)
		require.NoError(t, err)
		assert.Equal(t, "auth0|u1", userID)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		_, err := NewParser("other").UserID(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should decode without verification when no secret is set", func(t *testing.T) {
		p := NewParser("")
		assert.False(t, p.Verifies())

		userID, err := p.UserID(token)
		require.NoError(t, err)
		assert.Equal(t, "auth0|u1", userID)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		expired, err := NewToken("s3cret", "u1", -time.Minute)
		require.NoError(t, err)

		_, err = NewParser("s3cret").UserID(expired)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Should reject a token without subject", func(t *testing.T) {
		noSub, err := NewToken("s3cret", "", time.Hour)
		require.NoError(t, err)

		_, err = NewParser("s3cret").UserID(noSub)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		_, err := NewParser("").UserID("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
