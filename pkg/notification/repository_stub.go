package notification

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu            sync.Mutex
	notifications map[int][]Notification
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{notifications: map[int][]Notification{}}
}

func (s *RepositoryStub) Store(_ context.Context, userId int, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[userId] = append(s.notifications[userId], n)
	return nil
}

func (s *RepositoryStub) List(_ context.Context, userId int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Notification, len(s.notifications[userId]))
	copy(result, s.notifications[userId])
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Created.After(result[j].Created)
	})
	return result, nil
}

func (s *RepositoryStub) Delete(_ context.Context, userId int, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications[userId] {
		if n.Id == id {
			s.notifications[userId] = append(s.notifications[userId][:i], s.notifications[userId][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
