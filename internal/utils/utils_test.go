package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "admin", RoleAdmin, time.Hour)
	require.NoError(t, err)

	role, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", "admin", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret"))
	assert.False(t, CheckPassword(hash, ""))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestParseLimit(t *testing.T) {
	app := fiber.New()
	var got int
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParseLimit(c)
		return nil
	})

	for query, want := range map[string]int{"": 0, "?limit=5": 5, "?limit=-3": 0, "?limit=abc": 0} {
		_, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
		require.NoError(t, err)
		assert.Equal(t, want, got, query)
	}
}
