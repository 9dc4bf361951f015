package postgres

import (
	"context"
	"database/sql"
	"errors"

	"academicevents/internal/domain"
)

type roleRepository struct {
	DB *sql.DB
}

func NewRoleRepository(db *sql.DB) domain.RoleRepository {
	return &roleRepository{DB: db}
}

const roleColumns = `r.id, r.code`

func (r *roleRepository) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	role, err := scanRole(r.DB.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles r WHERE r.code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return role, err
}

// ListByUserID returns the user's roles ordered by code; a user with no
// roles yields an empty slice.
func (r *roleRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+roleColumns+`
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []*domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanRole(s rowScanner) (*domain.Role, error) {
	role := &domain.Role{}
	if err := s.Scan(&role.ID, &role.Code); err != nil {
		return nil, err
	}
	return role, nil
}

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(db *sql.DB) domain.CategoryRepository {
	return &categoryRepository{DB: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, description, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.DB.QueryRowContext(ctx, `SELECT id, name, description, color FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(s rowScanner) (*domain.Category, error) {
	c := &domain.Category{}
	var desc, color sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &desc, &color); err != nil {
		return nil, err
	}
	c.Description = stringPtr(desc)
	c.Color = stringPtr(color)
	return c, nil
}
