package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// AdminRepository handles persistence for administrators.
type AdminRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	// CreateIfMissing inserts admin unless the username exists and reports whether it did.
	CreateIfMissing(ctx context.Context, admin *domain.Admin) (bool, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

const adminSelect = `
        SELECT a.id, a.username, a.password_hash, a.department_id, d.name, a.created_at
        FROM admins a
        LEFT JOIN departments d ON d.id = a.department_id`

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	return r.fetchSingle(ctx, adminSelect+` WHERE a.id=$1`, id)
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return r.fetchSingle(ctx, adminSelect+` WHERE a.username=$1`, username)
}

func (r *adminRepository) CreateIfMissing(ctx context.Context, admin *domain.Admin) (bool, error) {
	const query = `
        INSERT INTO admins (username, password_hash, department_id)
        VALUES ($1,$2,$3)
        ON CONFLICT (username) DO NOTHING
        RETURNING id, created_at`

	rows, err := r.pool.Query(ctx, query, admin.Username, admin.PasswordHash, admin.DepartmentID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	created := false
	for rows.Next() {
		if err := rows.Scan(&admin.ID, &admin.CreatedAt); err != nil {
			return false, err
		}
		created = true
	}
	return created, rows.Err()
}

func (r *adminRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Admin, error) {
	var admin domain.Admin
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.DepartmentID,
		&admin.DepartmentName,
		&admin.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &admin, nil
}
