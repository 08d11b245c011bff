package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := NewToken(testSecret, "user-1", time.Hour)
	req.NoError(err)

	claims, err := ParseToken(testSecret, token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := NewToken(testSecret, "user-1", time.Hour)
	req.NoError(err)

	_, err = ParseToken("other-secret", token)
	req.Error(err)
}

func TestParseToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := NewToken(testSecret, "user-1", -time.Minute)
	req.NoError(err)

	_, err = ParseToken(testSecret, token)
	req.Error(err)
}

func TestParseToken_Malformed(t *testing.T) {
	req := require.New(t)

	_, err := ParseToken(testSecret, "not.a.token")
	req.Error(err)
}

func TestAuthenticate_NoToken(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/chat", nil)

	id, err := Authenticate(testSecret, r)
	req.ErrorIs(err, ErrNoToken)
	req.Empty(id)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/chat?token=garbage", nil)

	id, err := Authenticate(testSecret, r)
	req.ErrorIs(err, ErrInvalidToken)
	req.Empty(id)
}

func TestAuthenticate_QueryParam(t *testing.T) {
	req := require.New(t)

	token, err := NewToken(testSecret, "user-1", time.Hour)
	req.NoError(err)

	r := httptest.NewRequest("GET", "/chat?token="+token, nil)

	id, err := Authenticate(testSecret, r)
	req.NoError(err)
	req.Equal("user-1", id)
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	req := require.New(t)

	token, err := NewToken(testSecret, "user-1", time.Hour)
	req.NoError(err)

	r := httptest.NewRequest("GET", "/chat", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	id, err := Authenticate(testSecret, r)
	req.NoError(err)
	req.Equal("user-1", id)
}
