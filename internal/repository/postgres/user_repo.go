package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"academicevents/internal/domain"
)

const userColumns = `id, email, name, password_hash, is_active, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User, roleID string) error {
	query := `
		INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id string
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query, u.Email, u.Name, u.PasswordHash, u.IsActive, u.CreatedAt, u.UpdatedAt).Scan(&id)
		if isUniqueViolation(err, "") {
			return domain.ErrDuplicateEmail
		}
		if err != nil {
			return err
		}
		return assignRole(ctx, tx, id, roleID)
	})
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash, updatedAt, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateEmail(ctx context.Context, userID, email string, updatedAt time.Time) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE users SET email = $1, updated_at = $2 WHERE id = $3`, email, updatedAt, userID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	return assignRole(ctx, r.DB, userID, roleID)
}

func assignRole(ctx context.Context, q execQuerier, userID, roleID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID, roleID)
	return err
}
