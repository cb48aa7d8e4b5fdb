package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/pricing"
	"inventory-api/internal/repository"
	"inventory-api/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService defines the interface for product business logic.
// Every successful mutation is recorded in the audit trail within the same transaction.
type ProductService interface {
	List(ctx context.Context) ([]domain.ProductView, error)
	Get(ctx context.Context, id int64) (*domain.ProductView, error)
	Create(ctx context.Context, actor string, input domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, actor string, id int64, input domain.ProductInput) error
	Delete(ctx context.Context, actor string, id int64) error
	View(product *domain.Product) domain.ProductView
}

// ProductOption configures a ProductService
type ProductOption func(*productService)

// WithAuditHook registers fn to be called after each audited mutation commits
func WithAuditHook(fn func(domain.AuditOperation)) ProductOption {
	return func(s *productService) {
		s.onAudit = fn
	}
}

// WithClock overrides the source of audit timestamps
func WithClock(now func() time.Time) ProductOption {
	return func(s *productService) {
		s.now = now
	}
}

type productService struct {
	store      repository.Store
	calculator *pricing.Calculator
	logger     *zap.Logger
	now        func() time.Time
	onAudit    func(domain.AuditOperation)
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	store repository.Store,
	calculator *pricing.Calculator,
	logger *zap.Logger,
	opts ...ProductOption,
) ProductService {
	s := &productService{
		store:      store,
		calculator: calculator,
		logger:     logger,
		now:        time.Now,
		onAudit:    func(domain.AuditOperation) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every product priced with VAT, ordered by id
func (s *productService) List(ctx context.Context) ([]domain.ProductView, error) {
	products, err := s.store.Products().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return s.calculator.Views(products), nil
}

// Get returns a single product priced with VAT
func (s *productService) Get(ctx context.Context, id int64) (*domain.ProductView, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	view := s.calculator.View(product)
	return &view, nil
}

// View prices product with VAT
func (s *productService) View(product *domain.Product) domain.ProductView {
	return s.calculator.View(product)
}

// Create validates input, inserts the product and records a Created audit entry
func (s *productService) Create(ctx context.Context, actor string, input domain.ProductInput) (*domain.Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Title:    input.Title,
		Quantity: input.Quantity,
		Price:    input.Price,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		userID, err := resolveActor(ctx, tx, actor)
		if err != nil {
			return err
		}

		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}

		created := product.Snapshot()
		return s.record(ctx, tx, domain.AuditCreated, product.ID, userID, domain.AuditChange{New: &created})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.audited(domain.AuditCreated, product.ID, actor)
	return product, nil
}

// Update replaces the product's fields and records an Updated audit entry
// holding the values before and after. The id in the body must match id.
func (s *productService) Update(ctx context.Context, actor string, id int64, input domain.ProductInput) error {
	if input.ID != id {
		return ErrProductIDMismatch
	}
	if err := validateProduct(input); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		userID, err := resolveActor(ctx, tx, actor)
		if err != nil {
			return err
		}

		product, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}

		before := product.Snapshot()
		product.Title = input.Title
		product.Quantity = input.Quantity
		product.Price = input.Price

		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}

		after := product.Snapshot()
		return s.record(ctx, tx, domain.AuditUpdated, id, userID, domain.AuditChange{Old: &before, New: &after})
	})
	if err != nil {
		return s.mutationError(ctx, "update", id, err)
	}

	s.audited(domain.AuditUpdated, id, actor)
	return nil
}

// Delete removes the product and records a Deleted audit entry holding its last values
func (s *productService) Delete(ctx context.Context, actor string, id int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		userID, err := resolveActor(ctx, tx, actor)
		if err != nil {
			return err
		}

		product, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.Products().Delete(ctx, id, product.Version); err != nil {
			return err
		}

		before := product.Snapshot()
		return s.record(ctx, tx, domain.AuditDeleted, id, userID, domain.AuditChange{Old: &before})
	})
	if err != nil {
		return s.mutationError(ctx, "delete", id, err)
	}

	s.audited(domain.AuditDeleted, id, actor)
	return nil
}

// record appends an audit entry through tx
func (s *productService) record(
	ctx context.Context,
	tx repository.Store,
	op domain.AuditOperation,
	productID int64,
	userID uuid.UUID,
	change domain.AuditChange,
) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode audit data: %w", err)
	}

	return tx.Audits().Create(ctx, &domain.ProductAudit{
		Operation:   op,
		ProductID:   productID,
		ChangedData: string(data),
		UserID:      userID,
		ChangedAt:   s.now().UTC(),
	})
}

func (s *productService) audited(op domain.AuditOperation, productID int64, actor string) {
	s.onAudit(op)
	s.logger.Info("Product audited",
		zap.String("operation", string(op)),
		zap.Int64("product_id", productID),
		zap.String("username", actor),
	)
}

// mutationError maps a failed update or delete transaction to the error
// reported to callers. A lost version race is reported as ErrConflict while
// the row still exists and as ErrProductNotFound once it is gone.
func (s *productService) mutationError(ctx context.Context, action string, id int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, ErrUnknownActor):
		return err
	case errors.Is(err, repository.ErrConcurrentUpdate):
		exists, existsErr := s.store.Products().Exists(ctx, id)
		if existsErr != nil {
			return fmt.Errorf("failed to %s product: %w", action, existsErr)
		}
		if !exists {
			return ErrProductNotFound
		}
		s.logger.Warn("Concurrent product modification",
			zap.String("action", action),
			zap.Int64("product_id", id),
		)
		return ErrConflict
	default:
		return fmt.Errorf("failed to %s product: %w", action, err)
	}
}

func resolveActor(ctx context.Context, tx repository.Store, username string) (uuid.UUID, error) {
	user, err := tx.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return uuid.Nil, ErrUnknownActor
		}
		return uuid.Nil, fmt.Errorf("failed to resolve acting user: %w", err)
	}
	return user.ID, nil
}

func validateProduct(input domain.ProductInput) error {
	if err := validation.Struct(input); err != nil {
		if msgs := validation.Messages(err); len(msgs) > 0 {
			return &ValidationError{Errors: msgs}
		}
		return fmt.Errorf("failed to validate product: %w", err)
	}
	return nil
}
