package notification

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/finance/internal/test_utils"
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

func TestRepositoryImpl(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(db)
	userId := test_utils.CreateUser(t, db)
	older := Notification{
		Id: uuid.NewString(), Kind: KindProcessed, Title: "t1", Message: "m1",
		Count: 2, Amount: decimal.RequireFromString("10.50"), Created: now,
	}
	newer := Notification{
		Id: uuid.NewString(), Kind: KindFailed, Title: "t2", Message: "m2",
		Count: 1, Amount: decimal.Zero, Created: now.Add(time.Hour),
	}
	require.NoError(t, repo.Store(ctx, userId, older))
	require.NoError(t, repo.Store(ctx, userId, newer))

	notifications, err := repo.List(ctx, userId)

	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, newer.Id, notifications[0].Id)
	assert.Equal(t, older.Id, notifications[1].Id)
	assert.True(t, older.Amount.Equal(notifications[1].Amount))

	deleted, err := repo.Delete(ctx, userId, older.Id)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, test_utils.CreateUser(t, db), newer.Id)
	require.NoError(t, err)
	assert.False(t, deleted)
}
