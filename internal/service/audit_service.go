package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"
)

// accepted layouts for audit filter bounds; the date-only layout must stay last
var auditTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	dateOnlyLayout,
}

const dateOnlyLayout = "2006-01-02"

// AuditService defines the interface for querying the product audit trail
type AuditService interface {
	Query(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error)
}

type auditService struct {
	audits repository.AuditRepository
}

// NewAuditService creates a new instance of AuditService
func NewAuditService(audits repository.AuditRepository) AuditService {
	return &auditService{audits: audits}
}

// Query returns the audit entries within filter, oldest first
func (s *auditService) Query(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	entries, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	return entries, nil
}

// ParseAuditFilter builds a filter from optional from/to strings. Times
// without a zone are UTC. A date-only to covers that whole day.
func ParseAuditFilter(from, to string) (domain.AuditFilter, error) {
	var filter domain.AuditFilter

	if from = strings.TrimSpace(from); from != "" {
		t, _, err := parseAuditTime(from)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}

	if to = strings.TrimSpace(to); to != "" {
		t, dateOnly, err := parseAuditTime(to)
		if err != nil {
			return filter, err
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		filter.To = &t
	}

	return filter, nil
}

func parseAuditTime(s string) (time.Time, bool, error) {
	for _, layout := range auditTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), layout == dateOnlyLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDateFilter, s)
}
