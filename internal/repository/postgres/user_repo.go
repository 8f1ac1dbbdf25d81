package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `user_id, email, name, role, password_hash, created_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (user_id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, u.UserID, u.Email, u.Name, u.Role, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getWhere(ctx, "user_id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getWhere(ctx, "email = $1", email)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, args ...any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, args...).
		Scan(&u.UserID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context, role *domain.Role) ([]*domain.User, error) {
	where := ""
	args := []any{}
	if role != nil {
		where = "WHERE role = $1"
		args = append(args, *role)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users `+where+` ORDER BY name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.UserID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE user_id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
