package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type Repository interface {
	Store(ctx context.Context, userId int, transaction Transaction) (Transaction, error)
	Get(ctx context.Context, userId int, id string) (Transaction, error)
	Delete(ctx context.Context, userId int, id string) (bool, error)
	List(ctx context.Context, userId int) ([]Transaction, error)
	// ListByRecurringId returns the transactions produced by one recurring definition, newest first.
	ListByRecurringId(ctx context.Context, userId int, recurringId string) ([]Transaction, error)
}

// Querier is the subset of pgx shared by pools and transactions, so the insert
// can join a transaction started by another repository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const columns = `id, COALESCE(recurring_id::text, ''), type, amount, category, description, date`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.Id, &t.RecurringId, &t.Type, &t.Amount, &t.Category, &t.Description, &t.Date)
	return t, err
}

// Insert stores the transaction using q, which may be a pool or an open transaction.
func Insert(ctx context.Context, q Querier, userId int, t Transaction) (Transaction, error) {
	var recurringId any
	if t.RecurringId != "" {
		recurringId = t.RecurringId
	}
	query := `INSERT INTO ledger_transaction (id, user_id, recurring_id, type, amount, category, description, date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + columns
	stored, err := scanTransaction(q.QueryRow(ctx, query,
		t.Id,
		userId,
		recurringId,
		t.Type,
		t.Amount,
		t.Category,
		t.Description,
		t.Date.UTC(),
	))
	if err != nil {
		err := fmt.Errorf("could not insert transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return stored, nil
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	return Insert(ctx, r.db, userId, t)
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id string) (Transaction, error) {
	query := `SELECT ` + columns + ` FROM ledger_transaction WHERE id = $1 AND user_id = $2`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, id, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		err := fmt.Errorf("could not get transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return t, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM ledger_transaction WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Transaction, error) {
	query := `SELECT ` + columns + ` FROM ledger_transaction WHERE user_id = $1 ORDER BY date DESC, created DESC`
	return r.query(ctx, query, userId)
}

func (r *RepositoryImpl) ListByRecurringId(ctx context.Context, userId int, recurringId string) ([]Transaction, error) {
	query := `SELECT ` + columns + ` FROM ledger_transaction
				WHERE user_id = $1 AND recurring_id = $2 ORDER BY date DESC, created DESC`
	return r.query(ctx, query, userId, recurringId)
}

func (r *RepositoryImpl) query(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return transactions, nil
}
