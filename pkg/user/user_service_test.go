package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServiceTest(t *testing.T) (Service, *StubUserRepository) {
	t.Helper()
	repo := NewStubUserRepository()
	return NewUserService(repo), repo
}

func TestUserServiceImpl_CreateUser(t *testing.T) {
	t.Run("should create user with generated uid", func(t *testing.T) {
		service, _ := setupServiceTest(t)

		created, err := service.CreateUser(context.Background(), User{Username: "jane", DisplayName: "Jane", Settings: Settings{Timezone: "Europe/Warsaw"}})

		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.NotEmpty(t, created.Uid)
	})

	t.Run("should reject taken username", func(t *testing.T) {
		service, _ := setupServiceTest(t)
		_, err := service.CreateUser(context.Background(), User{Username: "jane", DisplayName: "Jane"})
		require.NoError(t, err)

		_, err = service.CreateUser(context.Background(), User{Username: "jane", DisplayName: "Other"})

		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("should reject unknown timezone", func(t *testing.T) {
		service, _ := setupServiceTest(t)

		_, err := service.CreateUser(context.Background(), User{Username: "jane", DisplayName: "Jane", Settings: Settings{Timezone: "Mars/Olympus"}})

		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})
}

func TestUserServiceImpl_UpdateUser(t *testing.T) {
	t.Run("should update the user from context", func(t *testing.T) {
		service, _ := setupServiceTest(t)
		created, err := service.CreateUser(context.Background(), User{Username: "jane", DisplayName: "Jane"})
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		updated, err := service.UpdateUser(ctx, User{DisplayName: "Jane D.", Settings: Settings{Timezone: "America/New_York"}})

		require.NoError(t, err)
		assert.Equal(t, "Jane D.", updated.DisplayName)
		assert.Equal(t, "jane", updated.Username)
		assert.Equal(t, "America/New_York", updated.Settings.Timezone)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		service, _ := setupServiceTest(t)

		_, err := service.UpdateUser(context.Background(), User{DisplayName: "x"})

		assert.ErrorIs(t, err, ErrNoUser)
		assert.Contains(t, err.Error(), "failed to get current user")
	})
}

func TestSettings_Location(t *testing.T) {
	loc, err := Settings{}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	loc, err = Settings{Timezone: "Europe/Warsaw"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Warsaw", loc.String())
}
