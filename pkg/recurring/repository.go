package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/finance/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

var (
	ErrDefinitionNotFound = errors.New("recurring transaction not found")
	// ErrAlreadyProcessed means the due date moved since the definition was read,
	// usually because another run processed or undid the same occurrence.
	ErrAlreadyProcessed = errors.New("recurring transaction was already processed")
)

// Occurrence is one materialization of a definition.
type Occurrence struct {
	RecurringId         string
	ExpectedNextDueDate time.Time
	NextDueDate         time.Time
	ProcessedAt         time.Time
	Transaction         transaction.Transaction
}

// Reversal rewinds one materialization of a definition.
type Reversal struct {
	RecurringId         string
	TransactionId       string
	ExpectedNextDueDate time.Time
	PreviousDueDate     time.Time
	UndoneAt            time.Time
}

type Repository interface {
	Create(ctx context.Context, userId int, def Definition) (Definition, error)
	Get(ctx context.Context, userId int, id string) (Definition, error)
	List(ctx context.Context, userId int) ([]Definition, error)
	// Update stores the user editable fields and clears the recorded error.
	Update(ctx context.Context, userId int, def Definition) (Definition, error)
	Delete(ctx context.Context, userId int, id string) (bool, error)
	// Materialize stores the occurrence transaction and advances the definition
	// atomically. ErrAlreadyProcessed is returned when the definition is no
	// longer at ExpectedNextDueDate.
	Materialize(ctx context.Context, userId int, occurrence Occurrence) (transaction.Transaction, error)
	// Revert removes the reversal transaction and rewinds the definition atomically.
	Revert(ctx context.Context, userId int, reversal Reversal) (Definition, error)
	RecordFailure(ctx context.Context, userId int, id string, reason string, at time.Time) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const columns = `id, type, amount, description, category, frequency, next_due_date, is_active, process_count,
	last_processed, last_undone, has_error, COALESCE(last_error, ''), last_error_date`

func scanDefinition(row pgx.Row) (Definition, error) {
	var d Definition
	err := row.Scan(
		&d.Id,
		&d.Type,
		&d.Amount,
		&d.Description,
		&d.Category,
		&d.Frequency,
		&d.NextDueDate,
		&d.IsActive,
		&d.ProcessCount,
		&d.LastProcessed,
		&d.LastUndone,
		&d.HasError,
		&d.LastError,
		&d.LastErrorDate,
	)
	return d, err
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, def Definition) (Definition, error) {
	query := `INSERT INTO recurring_definition (id, user_id, type, amount, description, category, frequency,
					next_due_date, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING ` + columns
	created, err := scanDefinition(r.db.QueryRow(ctx, query,
		def.Id,
		userId,
		def.Type,
		def.Amount,
		def.Description,
		def.Category,
		def.Frequency,
		def.NextDueDate.UTC(),
		def.IsActive,
	))
	if err != nil {
		err := fmt.Errorf("could not create recurring transaction: %w", err)
		log.Error(err)
		return Definition{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id string) (Definition, error) {
	query := `SELECT ` + columns + ` FROM recurring_definition WHERE id = $1 AND user_id = $2`
	def, err := scanDefinition(r.db.QueryRow(ctx, query, id, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, ErrDefinitionNotFound
		}
		err := fmt.Errorf("could not get recurring transaction: %w", err)
		log.Error(err)
		return Definition{}, err
	}
	return def, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Definition, error) {
	query := `SELECT ` + columns + ` FROM recurring_definition WHERE user_id = $1 ORDER BY next_due_date, created`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query recurring transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	definitions := make([]Definition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			err := fmt.Errorf("could not scan recurring transaction: %w", err)
			log.Error(err)
			return nil, err
		}
		definitions = append(definitions, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over recurring transactions: %w", err)
	}
	return definitions, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, def Definition) (Definition, error) {
	query := `UPDATE recurring_definition
				SET type = $1, amount = $2, description = $3, category = $4, frequency = $5, next_due_date = $6,
					is_active = $7, has_error = FALSE, last_error = NULL, last_error_date = NULL
				WHERE id = $8 AND user_id = $9
				RETURNING ` + columns
	updated, err := scanDefinition(r.db.QueryRow(ctx, query,
		def.Type,
		def.Amount,
		def.Description,
		def.Category,
		def.Frequency,
		def.NextDueDate.UTC(),
		def.IsActive,
		def.Id,
		userId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, ErrDefinitionNotFound
		}
		err := fmt.Errorf("could not update recurring transaction: %w", err)
		log.Error(err)
		return Definition{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM recurring_definition WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) Materialize(ctx context.Context, userId int, o Occurrence) (transaction.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE recurring_definition
				SET next_due_date = $1, process_count = process_count + 1, last_processed = $2,
					has_error = FALSE, last_error = NULL, last_error_date = NULL
				WHERE id = $3 AND user_id = $4 AND next_due_date = $5`
	result, err := tx.Exec(ctx, query, o.NextDueDate.UTC(), o.ProcessedAt.UTC(), o.RecurringId, userId, o.ExpectedNextDueDate.UTC())
	if err != nil {
		err := fmt.Errorf("could not advance recurring transaction: %w", err)
		log.Error(err)
		return transaction.Transaction{}, err
	}
	if result.RowsAffected() == 0 {
		return transaction.Transaction{}, r.missingOrMoved(ctx, tx, userId, o.RecurringId)
	}

	created, err := transaction.Insert(ctx, tx, userId, o.Transaction)
	if err != nil {
		return transaction.Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return transaction.Transaction{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func (r *RepositoryImpl) Revert(ctx context.Context, userId int, rv Reversal) (Definition, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE recurring_definition
				SET next_due_date = $1, process_count = GREATEST(process_count - 1, 0), last_undone = $2
				WHERE id = $3 AND user_id = $4 AND next_due_date = $5
				RETURNING ` + columns
	reverted, err := scanDefinition(tx.QueryRow(ctx, query, rv.PreviousDueDate.UTC(), rv.UndoneAt.UTC(), rv.RecurringId, userId, rv.ExpectedNextDueDate.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, r.missingOrMoved(ctx, tx, userId, rv.RecurringId)
		}
		err := fmt.Errorf("could not rewind recurring transaction: %w", err)
		log.Error(err)
		return Definition{}, err
	}

	_, err = tx.Exec(ctx, `DELETE FROM ledger_transaction WHERE id = $1 AND user_id = $2 AND recurring_id = $3`,
		rv.TransactionId, userId, rv.RecurringId)
	if err != nil {
		err := fmt.Errorf("could not delete recurring transaction occurrence: %w", err)
		log.Error(err)
		return Definition{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Definition{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return reverted, nil
}

// missingOrMoved explains an UPDATE guarded by next_due_date that matched no row.
func (r *RepositoryImpl) missingOrMoved(ctx context.Context, tx pgx.Tx, userId int, id string) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM recurring_definition WHERE id = $1 AND user_id = $2)`, id, userId).Scan(&exists)
	if err != nil {
		return fmt.Errorf("could not check recurring transaction: %w", err)
	}
	if !exists {
		return ErrDefinitionNotFound
	}
	return ErrAlreadyProcessed
}

func (r *RepositoryImpl) RecordFailure(ctx context.Context, userId int, id string, reason string, at time.Time) error {
	query := `UPDATE recurring_definition SET has_error = TRUE, last_error = $1, last_error_date = $2
				WHERE id = $3 AND user_id = $4`
	if _, err := r.db.Exec(ctx, query, reason, at.UTC(), id, userId); err != nil {
		err := fmt.Errorf("could not record recurring transaction failure: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
