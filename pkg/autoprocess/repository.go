package autoprocess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSettingsNotFound = errors.New("auto-processing settings not found")

type Repository interface {
	Get(ctx context.Context, userId int) (Settings, error)
	Store(ctx context.Context, userId int, settings Settings) error
	// MarkConfirmationRequested sets the day of the last confirmation request and
	// reports whether it changed. Users without stored settings are never marked.
	MarkConfirmationRequested(ctx context.Context, userId int, day time.Time) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int) (Settings, error) {
	query := `SELECT enabled, auto_process_income, auto_process_expenses, max_amount, exclude_categories,
				processing_time, weekends_only, require_confirmation
			  FROM auto_processing_settings WHERE user_id = $1`
	var s Settings
	err := r.db.QueryRow(ctx, query, userId).Scan(
		&s.Enabled,
		&s.AutoProcessIncome,
		&s.AutoProcessExpenses,
		&s.MaxAmount,
		&s.ExcludeCategories,
		&s.ProcessingTime,
		&s.WeekendsOnly,
		&s.RequireConfirmation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrSettingsNotFound
		}
		err := fmt.Errorf("could not get auto-processing settings: %w", err)
		log.Error(err)
		return Settings{}, err
	}
	return s, nil
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, s Settings) error {
	query := `INSERT INTO auto_processing_settings (user_id, enabled, auto_process_income, auto_process_expenses,
					max_amount, exclude_categories, processing_time, weekends_only, require_confirmation)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (user_id) DO UPDATE SET
					enabled = EXCLUDED.enabled,
					auto_process_income = EXCLUDED.auto_process_income,
					auto_process_expenses = EXCLUDED.auto_process_expenses,
					max_amount = EXCLUDED.max_amount,
					exclude_categories = EXCLUDED.exclude_categories,
					processing_time = EXCLUDED.processing_time,
					weekends_only = EXCLUDED.weekends_only,
					require_confirmation = EXCLUDED.require_confirmation`
	excluded := s.ExcludeCategories
	if excluded == nil {
		excluded = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		userId,
		s.Enabled,
		s.AutoProcessIncome,
		s.AutoProcessExpenses,
		s.MaxAmount,
		excluded,
		s.ProcessingTime,
		s.WeekendsOnly,
		s.RequireConfirmation,
	)
	if err != nil {
		err := fmt.Errorf("could not store auto-processing settings: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) MarkConfirmationRequested(ctx context.Context, userId int, day time.Time) (bool, error) {
	query := `UPDATE auto_processing_settings SET last_confirmation_on = $2
			  WHERE user_id = $1 AND last_confirmation_on IS DISTINCT FROM $2`
	tag, err := r.db.Exec(ctx, query, userId, civilDay(day))
	if err != nil {
		err := fmt.Errorf("could not mark confirmation request: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// civilDay strips the clock and zone from the local date.
func civilDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
