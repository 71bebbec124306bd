package recurring

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/finance/internal/test_utils"
	"github.com/klokku/finance/pkg/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	var cleanup func()
	db, cleanup = test_utils.TestWithDB()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, int, Definition) {
	ctx := context.Background()
	repo := NewRepository(db)
	userId := test_utils.CreateUser(t, db)
	def := rentDefinition()
	def.Id = uuid.NewString()
	created, err := repo.Create(ctx, userId, def)
	require.NoError(t, err)
	return ctx, repo, userId, created
}

func occurrenceOf(def Definition, processedAt time.Time) Occurrence {
	return Occurrence{
		RecurringId:         def.Id,
		ExpectedNextDueDate: def.NextDueDate,
		NextDueDate:         NextDueDate(def.Frequency, def.NextDueDate),
		ProcessedAt:         processedAt,
		Transaction: transaction.Transaction{
			Id:          uuid.NewString(),
			RecurringId: def.Id,
			Type:        def.Type,
			Amount:      def.Amount,
			Category:    def.Category,
			Description: def.Description + AutoSuffix,
			Date:        processedAt,
		},
	}
}

func TestRepositoryImpl_CreateAndGet(t *testing.T) {
	ctx, repo, userId, created := setupTestRepository(t)

	fetched, err := repo.Get(ctx, userId, created.Id)

	require.NoError(t, err)
	assert.Equal(t, transaction.Expense, fetched.Type)
	assertDecimal(t, "1500", fetched.Amount)
	assert.Equal(t, Monthly, fetched.Frequency)
	assert.True(t, fetched.NextDueDate.Equal(date(2024, time.January, 1)))
	assert.True(t, fetched.IsActive)
	assert.Nil(t, fetched.LastProcessed)
	assert.Empty(t, fetched.LastError)

	_, err = repo.Get(ctx, test_utils.CreateUser(t, db), created.Id)
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestRepositoryImpl_Materialize(t *testing.T) {
	t.Run("should store transaction and advance definition", func(t *testing.T) {
		ctx, repo, userId, def := setupTestRepository(t)
		processedAt := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)

		created, err := repo.Materialize(ctx, userId, occurrenceOf(def, processedAt))

		require.NoError(t, err)
		assert.Equal(t, def.Id, created.RecurringId)
		assert.Equal(t, "Rent (Auto)", created.Description)
		advanced, err := repo.Get(ctx, userId, def.Id)
		require.NoError(t, err)
		assert.True(t, advanced.NextDueDate.Equal(date(2024, time.February, 1)))
		assert.Equal(t, 1, advanced.ProcessCount)
		require.NotNil(t, advanced.LastProcessed)
		assert.True(t, advanced.LastProcessed.Equal(processedAt))
	})

	t.Run("should reject stale occurrence without side effects", func(t *testing.T) {
		ctx, repo, userId, def := setupTestRepository(t)
		processedAt := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)
		_, err := repo.Materialize(ctx, userId, occurrenceOf(def, processedAt))
		require.NoError(t, err)

		_, err = repo.Materialize(ctx, userId, occurrenceOf(def, processedAt))

		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		transactions, err := transaction.NewRepository(db).ListByRecurringId(ctx, userId, def.Id)
		require.NoError(t, err)
		assert.Len(t, transactions, 1)
	})

	t.Run("should roll back definition when transaction insert fails", func(t *testing.T) {
		ctx, repo, userId, def := setupTestRepository(t)
		occurrence := occurrenceOf(def, time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC))
		occurrence.Transaction.Type = "gift"

		_, err := repo.Materialize(ctx, userId, occurrence)

		require.Error(t, err)
		unchanged, err := repo.Get(ctx, userId, def.Id)
		require.NoError(t, err)
		assert.True(t, unchanged.NextDueDate.Equal(def.NextDueDate))
		assert.Equal(t, 0, unchanged.ProcessCount)
	})

	t.Run("should return not found for unknown definition", func(t *testing.T) {
		ctx, repo, userId, def := setupTestRepository(t)
		def.Id = uuid.NewString()

		_, err := repo.Materialize(ctx, userId, occurrenceOf(def, time.Now()))

		assert.ErrorIs(t, err, ErrDefinitionNotFound)
	})
}

func TestRepositoryImpl_Revert(t *testing.T) {
	ctx, repo, userId, def := setupTestRepository(t)
	created, err := repo.Materialize(ctx, userId, occurrenceOf(def, time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	undoneAt := time.Date(2024, time.January, 6, 9, 0, 0, 0, time.UTC)

	reverted, err := repo.Revert(ctx, userId, Reversal{
		RecurringId:         def.Id,
		TransactionId:       created.Id,
		ExpectedNextDueDate: date(2024, time.February, 1),
		PreviousDueDate:     date(2024, time.January, 1),
		UndoneAt:            undoneAt,
	})

	require.NoError(t, err)
	assert.True(t, reverted.NextDueDate.Equal(date(2024, time.January, 1)))
	assert.Equal(t, 0, reverted.ProcessCount)
	require.NotNil(t, reverted.LastUndone)
	assert.True(t, reverted.LastUndone.Equal(undoneAt))
	_, err = transaction.NewRepository(db).Get(ctx, userId, created.Id)
	assert.ErrorIs(t, err, transaction.ErrTransactionNotFound)

	t.Run("should floor process count at zero", func(t *testing.T) {
		again, err := repo.Revert(ctx, userId, Reversal{
			RecurringId:         def.Id,
			TransactionId:       uuid.NewString(),
			ExpectedNextDueDate: date(2024, time.January, 1),
			PreviousDueDate:     date(2023, time.December, 1),
			UndoneAt:            undoneAt,
		})

		require.NoError(t, err)
		assert.Equal(t, 0, again.ProcessCount)
	})
}

func TestRepositoryImpl_UpdateClearsFailure(t *testing.T) {
	ctx, repo, userId, def := setupTestRepository(t)
	require.NoError(t, repo.RecordFailure(ctx, userId, def.Id, "boom", time.Now()))
	failed, err := repo.Get(ctx, userId, def.Id)
	require.NoError(t, err)
	require.True(t, failed.HasError)
	assert.Equal(t, "boom", failed.LastError)

	def.Amount = decimal.RequireFromString("1550.25")
	updated, err := repo.Update(ctx, userId, def)

	require.NoError(t, err)
	assertDecimal(t, "1550.25", updated.Amount)
	assert.False(t, updated.HasError)
	assert.Empty(t, updated.LastError)
	assert.Nil(t, updated.LastErrorDate)
}

func TestRepositoryImpl_ListAndDelete(t *testing.T) {
	ctx, repo, userId, def := setupTestRepository(t)
	second := rentDefinition()
	second.Id = uuid.NewString()
	second.NextDueDate = date(2023, time.December, 15)
	_, err := repo.Create(ctx, userId, second)
	require.NoError(t, err)

	defs, err := repo.List(ctx, userId)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, second.Id, defs[0].Id)

	deleted, err := repo.Delete(ctx, userId, def.Id)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, userId, def.Id)
	require.NoError(t, err)
	assert.False(t, deleted)
}
