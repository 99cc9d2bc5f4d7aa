package security

import (
	"testing"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret", "trip-comments", time.Hour)
	author := domain.Author{ID: "u1", Name: "Sara", Avatar: "https://cdn/a.png", IsVerified: true}

	token, err := iss.GenerateToken(author)
	require.NoError(t, err)

	claims, err := iss.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, author, claims.Author())
}

func TestIssuer_RejectsForeignSecret(t *testing.T) {
	token, err := NewIssuer("one", "trip-comments", time.Hour).GenerateToken(domain.Author{ID: "u1", Name: "A"})
	require.NoError(t, err)

	_, err = NewIssuer("two", "trip-comments", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	iss := NewIssuer("secret", "trip-comments", time.Minute)
	past := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return past }

	token, err := iss.GenerateToken(domain.Author{ID: "u1", Name: "A"})
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsGarbage(t *testing.T) {
	_, err := NewIssuer("secret", "trip-comments", time.Hour).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorFromToken(t *testing.T) {
	author := domain.Author{ID: "u1", Name: "Sara", Avatar: "https://cdn/a.png", IsVerified: true}
	token, err := NewIssuer("server-only-secret", "trip-comments", time.Hour).GenerateToken(author)
	require.NoError(t, err)

	got, err := AuthorFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, author, got)

	_, err = AuthorFromToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
