package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/finance/internal/test_utils"
	"github.com/klokku/finance/internal/utils"
	"github.com/klokku/finance/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func setupServiceTest(t *testing.T) (Service, *RepositoryStub, context.Context) {
	t.Helper()
	repo := NewRepositoryStub()
	service := NewService(repo, &utils.MockClock{FixedNow: now})
	return service, repo, test_utils.TestUserContext()
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create transaction dated now when date is missing", func(t *testing.T) {
		service, repo, ctx := setupServiceTest(t)

		created, err := service.Create(ctx, Transaction{
			Type:        Expense,
			Amount:      decimal.NewFromInt(42),
			Category:    " Food ",
			Description: "Groceries",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, now, created.Date)
		assert.Equal(t, "Food", created.Category)
		assert.Equal(t, 1, repo.Count(test_utils.TestUser().Id))
	})

	t.Run("should reject invalid transaction", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)

		_, err := service.Create(ctx, Transaction{Type: "gift", Amount: decimal.NewFromInt(-1)})

		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		service, _, _ := setupServiceTest(t)

		_, err := service.Create(context.Background(), Transaction{})

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_ListByRecurringId(t *testing.T) {
	service, repo, ctx := setupServiceTest(t)
	userId := test_utils.TestUser().Id
	_, _ = repo.Store(ctx, userId, Transaction{Id: "a", RecurringId: "r1", Date: now.Add(-48 * time.Hour)})
	_, _ = repo.Store(ctx, userId, Transaction{Id: "b", RecurringId: "r2", Date: now})
	_, _ = repo.Store(ctx, userId, Transaction{Id: "c", RecurringId: "r1", Date: now})

	result, err := service.ListByRecurringId(ctx, "r1")

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "c", result[0].Id)
	assert.Equal(t, "a", result[1].Id)
}

func TestServiceImpl_Delete(t *testing.T) {
	t.Run("should delete existing transaction", func(t *testing.T) {
		service, repo, ctx := setupServiceTest(t)
		created, err := service.Create(ctx, Transaction{Type: Income, Amount: decimal.NewFromInt(1), Category: "c", Description: "d"})
		require.NoError(t, err)

		err = service.Delete(ctx, created.Id)

		require.NoError(t, err)
		assert.Equal(t, 0, repo.Count(test_utils.TestUser().Id))
	})

	t.Run("should report missing transaction", func(t *testing.T) {
		service, _, ctx := setupServiceTest(t)

		err := service.Delete(ctx, "missing")

		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}
