package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Repository interface {
	Store(ctx context.Context, userId int, notification Notification) error
	// List returns the notifications of the user, newest first.
	List(ctx context.Context, userId int) ([]Notification, error)
	Delete(ctx context.Context, userId int, id string) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, n Notification) error {
	query := `INSERT INTO notification (id, user_id, kind, title, message, count, amount, created)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query, n.Id, userId, n.Kind, n.Title, n.Message, n.Count, n.Amount, n.Created.UTC())
	if err != nil {
		err := fmt.Errorf("could not store notification: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Notification, error) {
	query := `SELECT id, kind, title, message, count, amount, created FROM notification
				WHERE user_id = $1 ORDER BY created DESC`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query notifications: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Id, &n.Kind, &n.Title, &n.Message, &n.Count, &n.Amount, &n.Created); err != nil {
			err := fmt.Errorf("could not scan notification: %w", err)
			log.Error(err)
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over notifications: %w", err)
	}
	return notifications, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM notification WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}
