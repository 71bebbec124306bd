package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/klokku/finance/internal/utils"
	"github.com/klokku/finance/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

type Service interface {
	List(ctx context.Context) ([]Transaction, error)
	ListByRecurringId(ctx context.Context, recurringId string) ([]Transaction, error)
	Get(ctx context.Context, id string) (Transaction, error)
	Create(ctx context.Context, transaction Transaction) (Transaction, error)
	Delete(ctx context.Context, id string) error
}

type ServiceImpl struct {
	repo  Repository
	clock utils.Clock
}

func NewService(repo Repository, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, clock: clock}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) ListByRecurringId(ctx context.Context, recurringId string) ([]Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListByRecurringId(ctx, userId, recurringId)
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

// Create stores a manually entered transaction. A missing date defaults to now.
func (s *ServiceImpl) Create(ctx context.Context, t Transaction) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	if !t.Type.Valid() || !t.Amount.IsPositive() || t.Description == "" || t.Category == "" {
		return Transaction{}, ErrInvalidTransaction
	}
	t.Id = uuid.NewString()
	if t.Date.IsZero() {
		t.Date = s.clock.Now()
	}
	return s.repo.Store(ctx, userId, t)
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Warnf("transaction not deleted, probably because it does not exist (%s) or the user (%d) is not the owner", id, userId)
		return ErrTransactionNotFound
	}
	return nil
}
