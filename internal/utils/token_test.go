package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghprime/jwt-pizza-service/internal/model"
)

func TestUserTokenRoundTrip(t *testing.T) {
	user := model.User{
		ID:    7,
		Name:  "Pat",
		Email: "pat@jwt.com",
		Roles: []model.RoleAssignment{{Role: model.RoleFranchisee, ObjectID: 3}},
	}

	token, err := SignUserToken("secret", user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ParseUserToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed.ID)
	assert.Equal(t, user.Email, parsed.Email)
	assert.True(t, parsed.HasRole(model.RoleFranchisee))
}

func TestParseUserTokenWrongSecret(t *testing.T) {
	token, err := SignUserToken("secret", model.User{ID: 1})
	require.NoError(t, err)

	_, err = ParseUserToken("other", token)
	assert.Error(t, err)
}

func TestParseUserTokenGarbage(t *testing.T) {
	_, err := ParseUserToken("secret", "not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 10)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}
