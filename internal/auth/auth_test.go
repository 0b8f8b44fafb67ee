package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Init("test-secret")

	userID := uuid.New()
	token, err := CreateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	Init("test-secret")
	userID := uuid.New()
	token, err := CreateToken(userID)
	require.NoError(t, err)

	Init("different-secret")
	_, err = VerifyToken(token)
	assert.Error(t, err, "a token signed under another secret must not verify")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	Init("test-secret")
	_, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.Error(t, CheckPassword(hash, "hunter3"))
}
