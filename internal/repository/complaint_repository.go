package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// ComplaintFilter captures admin list parameters. Department matches by exact name.
type ComplaintFilter struct {
	Department *string
	Status     *domain.ComplaintStatus
	Limit      int
	Offset     int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByTicket(ctx context.Context, ticketNumber string) (*domain.ComplaintView, error)
	GetViewByID(ctx context.Context, id int64) (*domain.ComplaintView, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.ComplaintView, error)
	Report(ctx context.Context) (*domain.Report, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintViewColumns = `
        c.id, c.ticket_number, c.user_id, c.department_id, c.description, c.address,
        c.status, c.image_path, c.created_at, c.updated_at,
        COALESCE(d.name, 'Unknown'), COALESCE(u.name, ''), COALESCE(u.email, '')`

const complaintViewFrom = `
        FROM complaints c
        LEFT JOIN departments d ON d.id = c.department_id
        LEFT JOIN users u ON u.id = c.user_id`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (ticket_number, user_id, department_id, description, address, status, image_path)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	if complaint.Status == "" {
		complaint.Status = domain.ComplaintStatusPending
	}
	return r.pool.QueryRow(ctx, query,
		complaint.TicketNumber,
		complaint.UserID,
		complaint.DepartmentID,
		complaint.Description,
		complaint.Address,
		complaint.Status,
		complaint.ImagePath,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByTicket(ctx context.Context, ticketNumber string) (*domain.ComplaintView, error) {
	query := `SELECT` + complaintViewColumns + complaintViewFrom + ` WHERE c.ticket_number=$1`
	return r.fetchSingle(ctx, query, ticketNumber)
}

func (r *complaintRepository) GetViewByID(ctx context.Context, id int64) (*domain.ComplaintView, error) {
	query := `SELECT` + complaintViewColumns + complaintViewFrom + ` WHERE c.id=$1`
	return r.fetchSingle(ctx, query, id)
}

// UpdateStatus sets the status and refreshes updated_at. Unknown ids yield pgx.ErrNoRows.
func (r *complaintRepository) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) (*domain.Complaint, error) {
	const query = `
        UPDATE complaints SET status=$1, updated_at=clock_timestamp()
        WHERE id=$2
        RETURNING id, ticket_number, user_id, department_id, description, address,
                  status, image_path, created_at, updated_at`

	var c domain.Complaint
	if err := r.pool.QueryRow(ctx, query, status, id).Scan(
		&c.ID,
		&c.TicketNumber,
		&c.UserID,
		&c.DepartmentID,
		&c.Description,
		&c.Address,
		&c.Status,
		&c.ImagePath,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ComplaintView, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views, err := scanComplaintViews(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &views[0], nil
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.ComplaintView, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Department != nil && strings.TrimSpace(*filter.Department) != "" {
		args = append(args, strings.TrimSpace(*filter.Department))
		clauses = append(clauses, fmt.Sprintf("d.name=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("c.status=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY c.created_at DESC, c.id DESC`,
		complaintViewColumns, complaintViewFrom, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query = fmt.Sprintf("%s LIMIT %d OFFSET %d", query, filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaintViews(rows)
}

func (r *complaintRepository) Report(ctx context.Context) (*domain.Report, error) {
	const totalsQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'Resolved'),
               COUNT(*) FILTER (WHERE status = 'Pending'),
               COUNT(*) FILTER (WHERE status = 'In Progress')
        FROM complaints`
	const byDepartmentQuery = `
        SELECT d.name, COUNT(c.id)
        FROM departments d
        LEFT JOIN complaints c ON c.department_id = d.id
        GROUP BY d.id, d.name
        ORDER BY d.name`
	const byStatusQuery = `
        SELECT status, COUNT(*)
        FROM complaints
        GROUP BY status
        ORDER BY status`

	report := &domain.Report{}
	stats := &report.Statistics
	if err := r.pool.QueryRow(ctx, totalsQuery).Scan(
		&stats.TotalComplaints,
		&stats.ResolvedComplaints,
		&stats.PendingComplaints,
		&stats.InProgressComplaints,
	); err != nil {
		return nil, err
	}

	deptRows, err := r.pool.Query(ctx, byDepartmentQuery)
	if err != nil {
		return nil, err
	}
	report.ByDepartment, err = pgx.CollectRows(deptRows, func(row pgx.CollectableRow) (domain.DepartmentCount, error) {
		var dc domain.DepartmentCount
		err := row.Scan(&dc.Department, &dc.Total)
		return dc, err
	})
	if err != nil {
		return nil, err
	}

	statusRows, err := r.pool.Query(ctx, byStatusQuery)
	if err != nil {
		return nil, err
	}
	report.ByStatus, err = pgx.CollectRows(statusRows, func(row pgx.CollectableRow) (domain.StatusCount, error) {
		var sc domain.StatusCount
		err := row.Scan(&sc.Status, &sc.Count)
		return sc, err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func scanComplaintViews(rows pgx.Rows) ([]domain.ComplaintView, error) {
	var result []domain.ComplaintView
	for rows.Next() {
		var view domain.ComplaintView
		if err := rows.Scan(
			&view.ID,
			&view.TicketNumber,
			&view.UserID,
			&view.DepartmentID,
			&view.Description,
			&view.Address,
			&view.Status,
			&view.ImagePath,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.DepartmentName,
			&view.UserName,
			&view.UserEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}
