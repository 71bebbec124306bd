package test_utils

import (
	"context"
	"time"
	_ "time/tzdata"

	"github.com/klokku/finance/pkg/user"
)

var TestLocation, _ = time.LoadLocation("Europe/Warsaw")

// TestUser is the user placed into contexts of service tests.
func TestUser() user.User {
	return user.User{
		Id:          123,
		Uid:         "00000000-0000-0000-0000-000000000123",
		Username:    "test_user",
		DisplayName: "Test User",
		Settings: user.Settings{
			Timezone: "Europe/Warsaw",
		},
	}
}

func TestUserContext() context.Context {
	return user.WithUser(context.Background(), TestUser())
}
