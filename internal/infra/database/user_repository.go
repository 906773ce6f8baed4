package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, email_verified, created_at, updated_at`

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Phone,
		string(u.Role),
		u.EmailVerified,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if isUniqueViolation(err, "users_email_key") {
		return entity.ErrEmailAlreadyExists
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) ListByRoles(ctx context.Context, roles ...entity.Role) ([]entity.User, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = ANY($1)
		ORDER BY array_position($1, role), last_name, first_name
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET reset_password_token = $1, reset_password_expires = $2, updated_at = NOW() WHERE id = $3`,
		tokenHash, expires, userID,
	)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrUserNotFound)
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_password_token = $1 AND reset_password_expires > $2`,
		tokenHash, now,
	)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_password_token = NULL, reset_password_expires = NULL, updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.DB.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	return expectOne(res, entity.ErrUserNotFound)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	return u, err
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return &u, nil
}
