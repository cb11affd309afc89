package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ComplaintFilter narrows the admin listing.
type ComplaintFilter struct {
	Statuses []domain.ComplaintStatus
	Limit    int
	Offset   int
}

func (f ComplaintFilter) normalized() ComplaintFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ComplaintRepository encapsulates complaint persistence. Every mutation touches a single
// row in a single statement, and a missing id yields pgx.ErrNoRows.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Complaint, error)
	ListAll(ctx context.Context, filter ComplaintFilter) ([]domain.ComplaintWithOwner, error)
	CountByStatus(ctx context.Context) (map[domain.ComplaintStatus]int, error)
	UpdateStatus(ctx context.Context, id string, change domain.StatusChange) (*domain.Complaint, error)
	UpdateFields(ctx context.Context, id, title, description string) (*domain.Complaint, error)
	Delete(ctx context.Context, id string) error
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, title, description, status, admin_reply, resolved_at, created_by, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (title, description, status, admin_reply, resolved_at, created_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		complaint.Title,
		complaint.Description,
		complaint.Status,
		complaint.AdminReply,
		complaint.ResolvedAt,
		complaint.CreatedBy,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	return scanComplaint(r.pool.QueryRow(ctx, query, id))
}

func (r *complaintRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE created_by=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Complaint{}
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func (r *complaintRepository) ListAll(ctx context.Context, filter ComplaintFilter) ([]domain.ComplaintWithOwner, error) {
	filter = filter.normalized()
	base := `SELECT c.id, c.title, c.description, c.status, c.admin_reply, c.resolved_at, c.created_by,
                    c.created_at, c.updated_at, COALESCE(u.name, ''), COALESCE(u.email, '')
             FROM complaints c LEFT JOIN users u ON u.id = c.created_by`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ComplaintWithOwner{}
	for rows.Next() {
		var item domain.ComplaintWithOwner
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Status,
			&item.AdminReply,
			&item.ResolvedAt,
			&item.CreatedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.OwnerName,
			&item.OwnerEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *complaintRepository) CountByStatus(ctx context.Context) (map[domain.ComplaintStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ComplaintStatus]int, len(domain.ComplaintStatuses))
	for _, status := range domain.ComplaintStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			status domain.ComplaintStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, change domain.StatusChange) (*domain.Complaint, error) {
	query := `
        UPDATE complaints SET status=$1, admin_reply=$2, resolved_at=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING ` + complaintColumns
	return scanComplaint(r.pool.QueryRow(ctx, query, change.Status, change.AdminReply, change.ResolvedAt, id))
}

func (r *complaintRepository) UpdateFields(ctx context.Context, id, title, description string) (*domain.Complaint, error) {
	query := `
        UPDATE complaints SET title=$1, description=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING ` + complaintColumns
	return scanComplaint(r.pool.QueryRow(ctx, query, title, description, id))
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM complaints WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := row.Scan(
		&complaint.ID,
		&complaint.Title,
		&complaint.Description,
		&complaint.Status,
		&complaint.AdminReply,
		&complaint.ResolvedAt,
		&complaint.CreatedBy,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}
