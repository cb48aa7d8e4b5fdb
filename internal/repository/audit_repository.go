package repository

import (
	"context"
	"fmt"
	"strings"

	"inventory-api/internal/domain"

	"github.com/jmoiron/sqlx"
)

// AuditRepository defines the interface for product audit data access.
// Audit rows are never updated or deleted.
type AuditRepository interface {
	Create(ctx context.Context, audit *domain.ProductAudit) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error)
}

type auditRepository struct {
	q sqlx.ExtContext
}

// NewAuditRepository creates a new instance of AuditRepository
func NewAuditRepository(q sqlx.ExtContext) AuditRepository {
	return &auditRepository{q: q}
}

// Create appends audit and fills in its generated ID
func (r *auditRepository) Create(ctx context.Context, audit *domain.ProductAudit) error {
	query := `
		INSERT INTO product_audit (operation, product_id, changed_data, user_id, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	row := r.q.QueryRowxContext(ctx, query,
		audit.Operation,
		audit.ProductID,
		audit.ChangedData,
		audit.UserID,
		audit.ChangedAt,
	)
	if err := row.Scan(&audit.ID); err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// List returns the audit entries whose changed_at falls within filter,
// oldest first, each resolved to the acting user's name
func (r *auditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("a.changed_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("a.changed_at <= $%d", len(args)))
	}

	query := `
		SELECT a.id, a.operation, a.product_id, a.changed_data, u.username, a.changed_at
		FROM product_audit a
		JOIN users u ON u.id = a.user_id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.changed_at ASC, a.id ASC"

	entries := []*domain.AuditEntry{}
	if err := sqlx.SelectContext(ctx, r.q, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}
