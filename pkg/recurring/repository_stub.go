package recurring

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/klokku/finance/pkg/transaction"
)

// RepositoryStub keeps definitions in memory and stores produced transactions
// in the given transaction stub.
type RepositoryStub struct {
	mu           sync.Mutex
	definitions  map[int]map[string]Definition
	transactions *transaction.RepositoryStub
	// MaterializeErr, when set, is returned by Materialize without changing anything.
	MaterializeErr error
}

func NewRepositoryStub(transactions *transaction.RepositoryStub) *RepositoryStub {
	return &RepositoryStub{
		definitions:  map[int]map[string]Definition{},
		transactions: transactions,
	}
}

func (s *RepositoryStub) Create(_ context.Context, userId int, def Definition) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.definitions[userId] == nil {
		s.definitions[userId] = map[string]Definition{}
	}
	s.definitions[userId][def.Id] = def
	return def, nil
}

func (s *RepositoryStub) Get(_ context.Context, userId int, id string) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.definitions[userId][id]
	if !ok {
		return Definition{}, ErrDefinitionNotFound
	}
	return def, nil
}

func (s *RepositoryStub) List(_ context.Context, userId int) ([]Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Definition, 0, len(s.definitions[userId]))
	for _, def := range s.definitions[userId] {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].NextDueDate.Equal(result[j].NextDueDate) {
			return result[i].NextDueDate.Before(result[j].NextDueDate)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (s *RepositoryStub) Update(_ context.Context, userId int, def Definition) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.definitions[userId][def.Id]
	if !ok {
		return Definition{}, ErrDefinitionNotFound
	}
	stored.Type = def.Type
	stored.Amount = def.Amount
	stored.Description = def.Description
	stored.Category = def.Category
	stored.Frequency = def.Frequency
	stored.NextDueDate = def.NextDueDate
	stored.IsActive = def.IsActive
	stored.HasError = false
	stored.LastError = ""
	stored.LastErrorDate = nil
	s.definitions[userId][def.Id] = stored
	return stored, nil
}

func (s *RepositoryStub) Delete(_ context.Context, userId int, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[userId][id]; !ok {
		return false, nil
	}
	delete(s.definitions[userId], id)
	return true, nil
}

func (s *RepositoryStub) Materialize(ctx context.Context, userId int, o Occurrence) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaterializeErr != nil {
		return transaction.Transaction{}, s.MaterializeErr
	}
	def, ok := s.definitions[userId][o.RecurringId]
	if !ok {
		return transaction.Transaction{}, ErrDefinitionNotFound
	}
	if !def.NextDueDate.Equal(o.ExpectedNextDueDate) {
		return transaction.Transaction{}, ErrAlreadyProcessed
	}
	created, err := s.transactions.Store(ctx, userId, o.Transaction)
	if err != nil {
		return transaction.Transaction{}, err
	}
	processedAt := o.ProcessedAt
	def.NextDueDate = o.NextDueDate
	def.ProcessCount++
	def.LastProcessed = &processedAt
	def.HasError = false
	def.LastError = ""
	def.LastErrorDate = nil
	s.definitions[userId][def.Id] = def
	return created, nil
}

func (s *RepositoryStub) Revert(ctx context.Context, userId int, rv Reversal) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.definitions[userId][rv.RecurringId]
	if !ok {
		return Definition{}, ErrDefinitionNotFound
	}
	if !def.NextDueDate.Equal(rv.ExpectedNextDueDate) {
		return Definition{}, ErrAlreadyProcessed
	}
	if t, err := s.transactions.Get(ctx, userId, rv.TransactionId); err == nil && t.RecurringId == rv.RecurringId {
		if _, err := s.transactions.Delete(ctx, userId, rv.TransactionId); err != nil {
			return Definition{}, err
		}
	}
	undoneAt := rv.UndoneAt
	def.NextDueDate = rv.PreviousDueDate
	def.ProcessCount = max(def.ProcessCount-1, 0)
	def.LastUndone = &undoneAt
	s.definitions[userId][def.Id] = def
	return def, nil
}

func (s *RepositoryStub) RecordFailure(_ context.Context, userId int, id string, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.definitions[userId][id]
	if !ok {
		return ErrDefinitionNotFound
	}
	def.HasError = true
	def.LastError = reason
	def.LastErrorDate = &at
	s.definitions[userId][id] = def
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions = map[int]map[string]Definition{}
	s.MaterializeErr = nil
}
