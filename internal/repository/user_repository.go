package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// UserRepository defines persistence access for complaint submitters.
type UserRepository interface {
	// UpsertByEmail returns the submitter for user.Email, creating it on first use.
	// An existing row keeps its stored name and phone.
	UpsertByEmail(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) UpsertByEmail(ctx context.Context, user *domain.User) error {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const query = `
        INSERT INTO users (name, email, phone)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
        RETURNING id, name, phone, created_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
	).Scan(&user.ID, &user.Name, &user.Phone, &user.CreatedAt)
}
