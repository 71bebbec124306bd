package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	DeleteUser(ctx context.Context, uid string) error
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, username, display_name, timezone`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName, &user.Settings.Timezone)
	return user, err
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	timezone := user.Settings.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	query := `INSERT INTO users (uid, username, display_name, timezone) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query, user.Uid, user.Username, user.DisplayName, timezone).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, timezone = $2 WHERE id = $3`
	result, err := u.db.Exec(ctx, query, user.DisplayName, user.Settings.Timezone, userId)
	if err != nil {
		log.Errorf("failed to update user: %v", err)
		return User{}, err
	}
	if result.RowsAffected() == 0 {
		return User{}, ErrUserNotFound
	}
	return u.GetUser(ctx, userId)
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, uid string) error {
	result, err := u.db.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		log.Errorf("failed to delete user: %v", err)
		return err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of deleting user")
		return fmt.Errorf("user %s: %w", uid, ErrUserNotFound)
	}
	return nil
}

func (u *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	rows, err := u.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		log.Errorf("failed to get users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, 10)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return users, nil
}

func (u *UserRepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := u.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}
