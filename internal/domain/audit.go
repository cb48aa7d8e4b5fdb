package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditOperation names the kind of product mutation an audit entry describes
type AuditOperation string

const (
	AuditCreated AuditOperation = "Created"
	AuditUpdated AuditOperation = "Updated"
	AuditDeleted AuditOperation = "Deleted"
)

// ProductAudit is an append-only record of a single product mutation
type ProductAudit struct {
	ID          int64          `json:"id" db:"id"`
	Operation   AuditOperation `json:"operation" db:"operation"`
	ProductID   int64          `json:"productId" db:"product_id"`
	ChangedData string         `json:"changedData" db:"changed_data"`
	UserID      uuid.UUID      `json:"userId" db:"user_id"`
	ChangedAt   time.Time      `json:"changedAt" db:"changed_at"`
}

// AuditEntry is a ProductAudit resolved to the acting user's name
type AuditEntry struct {
	ID          int64          `json:"id" db:"id"`
	Operation   AuditOperation `json:"operation" db:"operation"`
	ProductID   int64          `json:"productId" db:"product_id"`
	ChangedData string         `json:"changedData" db:"changed_data"`
	Username    string         `json:"username" db:"username"`
	ChangedAt   time.Time      `json:"changedAt" db:"changed_at"`
}

// AuditFilter bounds an audit query; nil bounds are open. Both bounds are inclusive.
type AuditFilter struct {
	From *time.Time
	To   *time.Time
}

// AuditChange is the JSON document stored in ProductAudit.ChangedData
type AuditChange struct {
	Old *ProductSnapshot `json:"old,omitempty"`
	New *ProductSnapshot `json:"new,omitempty"`
}
