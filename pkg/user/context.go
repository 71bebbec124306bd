package user

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

type ctxKey struct{}

// ErrNoUser means the request or job runs without an identified user.
var ErrNoUser = errors.New("no user in context")

// WithUser binds the user every service call down the chain acts for.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(ctxKey{}).(User)
	if !ok {
		log.Trace("no user bound to context")
		return User{}, ErrNoUser
	}
	return u, nil
}

func CurrentId(ctx context.Context) (int, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return u.Id, nil
}

// CurrentLocation returns the timezone of the user bound to ctx.
func CurrentLocation(ctx context.Context) (*time.Location, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return u.Settings.Location()
}
