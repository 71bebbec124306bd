package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrUserDataInvalid = errors.New("invalid user data")
var ErrUsernameTaken = errors.New("username is already taken")

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, uid string) error
	GetAllUsers(ctx context.Context) ([]User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || strings.TrimSpace(user.DisplayName) == "" {
		return User{}, ErrUserDataInvalid
	}
	if _, err := user.Settings.Location(); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUserDataInvalid, err)
	}
	available, err := u.repo.IsUsernameAvailable(ctx, user.Username)
	if err != nil {
		return User{}, err
	}
	if !available {
		return User{}, ErrUsernameTaken
	}
	if user.Uid == "" {
		user.Uid = uuid.NewString()
	}

	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := user.Settings.Location(); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUserDataInvalid, err)
	}
	return u.repo.UpdateUser(ctx, userId, user)
}

func (u *UserServiceImpl) DeleteUser(ctx context.Context, uid string) error {
	return u.repo.DeleteUser(ctx, uid)
}

func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}
