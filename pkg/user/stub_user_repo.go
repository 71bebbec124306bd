package user

import (
	"context"
	"sort"
)

type StubUserRepository struct {
	nextId int
	data   map[int]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}}
}

func (s *StubUserRepository) CreateUser(_ context.Context, user User) (int, error) {
	s.nextId++
	user.Id = s.nextId
	s.data[s.nextId] = user
	return s.nextId, nil
}

func (s *StubUserRepository) GetUser(_ context.Context, id int) (User, error) {
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(_ context.Context, uid string) (User, error) {
	for _, user := range s.data {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) UpdateUser(_ context.Context, userId int, user User) (User, error) {
	stored, ok := s.data[userId]
	if !ok {
		return User{}, ErrUserNotFound
	}
	stored.DisplayName = user.DisplayName
	stored.Settings = user.Settings
	s.data[userId] = stored
	return stored, nil
}

func (s *StubUserRepository) DeleteUser(_ context.Context, uid string) error {
	for id, user := range s.data {
		if user.Uid == uid {
			delete(s.data, id)
			return nil
		}
	}
	return ErrUserNotFound
}

func (s *StubUserRepository) GetAllUsers(_ context.Context) ([]User, error) {
	users := make([]User, 0, len(s.data))
	for _, user := range s.data {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

func (s *StubUserRepository) IsUsernameAvailable(_ context.Context, username string) (bool, error) {
	for _, user := range s.data {
		if user.Username == username {
			return false, nil
		}
	}
	return true, nil
}
