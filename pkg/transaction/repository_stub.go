package transaction

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu           sync.Mutex
	transactions map[int]map[string]Transaction
	// insertion order, used to break ties between equal dates
	sequence map[string]int
	next     int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		transactions: map[int]map[string]Transaction{},
		sequence:     map[string]int{},
	}
}

func (s *RepositoryStub) Store(_ context.Context, userId int, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transactions[userId] == nil {
		s.transactions[userId] = map[string]Transaction{}
	}
	s.next++
	s.sequence[t.Id] = s.next
	s.transactions[userId][t.Id] = t
	return t, nil
}

func (s *RepositoryStub) Get(_ context.Context, userId int, id string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[userId][id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (s *RepositoryStub) Delete(_ context.Context, userId int, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[userId][id]; !ok {
		return false, nil
	}
	delete(s.transactions[userId], id)
	delete(s.sequence, id)
	return true, nil
}

func (s *RepositoryStub) List(_ context.Context, userId int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(userId, func(Transaction) bool { return true }), nil
}

func (s *RepositoryStub) ListByRecurringId(_ context.Context, userId int, recurringId string) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(userId, func(t Transaction) bool { return t.RecurringId == recurringId }), nil
}

func (s *RepositoryStub) sorted(userId int, filter func(Transaction) bool) []Transaction {
	result := make([]Transaction, 0)
	for _, t := range s.transactions[userId] {
		if filter(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return s.sequence[result[i].Id] > s.sequence[result[j].Id]
	})
	return result
}

func (s *RepositoryStub) Count(userId int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions[userId])
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = map[int]map[string]Transaction{}
	s.sequence = map[string]int{}
}
