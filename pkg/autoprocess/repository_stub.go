package autoprocess

import (
	"context"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu       sync.Mutex
	settings map[int]Settings
	marks    map[int]time.Time
	GetErr   error
	MarkErr  error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{settings: map[int]Settings{}, marks: map[int]time.Time{}}
}

func (s *RepositoryStub) Get(_ context.Context, userId int) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return Settings{}, s.GetErr
	}
	settings, ok := s.settings[userId]
	if !ok {
		return Settings{}, ErrSettingsNotFound
	}
	return settings, nil
}

func (s *RepositoryStub) Store(_ context.Context, userId int, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userId] = settings
	return nil
}

func (s *RepositoryStub) MarkConfirmationRequested(_ context.Context, userId int, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkErr != nil {
		return false, s.MarkErr
	}
	if _, ok := s.settings[userId]; !ok {
		return false, nil
	}
	day = civilDay(day)
	if last, ok := s.marks[userId]; ok && last.Equal(day) {
		return false, nil
	}
	s.marks[userId] = day
	return true, nil
}
