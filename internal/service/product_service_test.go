package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"inventory-api/internal/auth"
	"inventory-api/internal/domain"
	"inventory-api/internal/pricing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC)

func newTestProductService(t *testing.T, store *mockStore, opts ...ProductOption) ProductService {
	t.Helper()
	calc, err := pricing.NewCalculator(decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	opts = append([]ProductOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewProductService(store, calc, zap.NewNop(), opts...)
}

func input(title string, quantity int, price string) domain.ProductInput {
	return domain.ProductInput{Title: title, Quantity: quantity, Price: decimal.RequireFromString(price)}
}

func decodeChange(t *testing.T, data string) domain.AuditChange {
	t.Helper()
	var change domain.AuditChange
	require.NoError(t, json.Unmarshal([]byte(data), &change))
	return change
}

func TestProductService_CreateRecordsAudit(t *testing.T) {
	store := newMockStore()
	admin := store.addUser("admin", domain.RoleAdmin)

	var hooked []domain.AuditOperation
	svc := newTestProductService(t, store, WithAuditHook(func(op domain.AuditOperation) {
		hooked = append(hooked, op)
	}))

	product, err := svc.Create(context.Background(), "admin", input("Laptop", 2, "1000.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), product.ID)

	audits := store.committed().audits
	require.Len(t, audits, 1)
	assert.Equal(t, domain.AuditCreated, audits[0].Operation)
	assert.Equal(t, product.ID, audits[0].ProductID)
	assert.Equal(t, admin.ID, audits[0].UserID)
	assert.Equal(t, fixedNow, audits[0].ChangedAt)

	change := decodeChange(t, audits[0].ChangedData)
	assert.Nil(t, change.Old)
	require.NotNil(t, change.New)
	assert.Equal(t, "Laptop", change.New.Title)
	assert.Equal(t, 2, change.New.Quantity)
	assert.True(t, change.New.Price.Equal(decimal.RequireFromString("1000")))
	assert.Contains(t, audits[0].ChangedData, `"price":1000`)

	assert.Equal(t, []domain.AuditOperation{domain.AuditCreated}, hooked)

	view := svc.View(product)
	assert.Equal(t, "2400", view.TotalPriceWithVat.String())
}

func TestProductService_CreateValidationListsEveryViolation(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)

	_, err := svc.Create(context.Background(), "admin", input("  ", -1, "0"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"Title is required.",
		"Quantity must be non-negative.",
		"Price must be greater than 0.",
	}, verr.Errors)
	assert.Empty(t, store.committed().products)
	assert.Empty(t, store.committed().audits)
}

func TestProductService_CreateTitleTooLong(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)

	_, err := svc.Create(context.Background(), "admin", input(strings.Repeat("a", domain.MaxTitleLength+1), 1, "1"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Title cannot exceed 4000 characters."}, verr.Errors)

	_, err = svc.Create(context.Background(), "admin", input(strings.Repeat("a", domain.MaxTitleLength), 1, "1"))
	assert.NoError(t, err)
}

func TestProductService_CreateQuantityOutOfRange(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)

	_, err := svc.Create(context.Background(), "admin", input("Widget", domain.MaxQuantity+1, "1"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Quantity cannot exceed 2147483647."}, verr.Errors)
	assert.Empty(t, store.committed().products)
	assert.Empty(t, store.committed().audits)

	p, err := svc.Create(context.Background(), "admin", input("Widget", domain.MaxQuantity, "1"))
	require.NoError(t, err)
	assert.Equal(t, domain.MaxQuantity, p.Quantity)
}

func TestProductService_UpdateQuantityOutOfRange(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	p, err := svc.Create(context.Background(), "admin", input("Widget", 1, "1"))
	require.NoError(t, err)

	in := input("Widget", domain.MaxQuantity+1, "1")
	in.ID = p.ID
	err = svc.Update(context.Background(), "admin", p.ID, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Quantity cannot exceed 2147483647."}, verr.Errors)
	assert.Len(t, store.committed().audits, 1)
}

func TestProductService_CreateRollsBackWhenAuditFails(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	store.auditErr = errors.New("audit table unavailable")
	svc := newTestProductService(t, store)

	_, err := svc.Create(context.Background(), "admin", input("Laptop", 1, "10"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.auditErr)
	assert.Empty(t, store.committed().products)
	assert.Empty(t, store.committed().audits)
}

func TestProductService_CreateUnknownActor(t *testing.T) {
	store := newMockStore()
	svc := newTestProductService(t, store)

	_, err := svc.Create(context.Background(), "ghost", input("Laptop", 1, "10"))
	assert.ErrorIs(t, err, ErrUnknownActor)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Empty(t, store.committed().products)
}

func TestProductService_UpdateIDMismatchTouchesNothing(t *testing.T) {
	store := newMockStore()
	svc := newTestProductService(t, store)

	in := input("Laptop", 1, "10")
	in.ID = 2
	err := svc.Update(context.Background(), "admin", 1, in)

	assert.ErrorIs(t, err, ErrProductIDMismatch)
	assert.Zero(t, *store.calls)
}

func TestProductService_UpdateRecordsOldAndNew(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	ctx := context.Background()

	product, err := svc.Create(ctx, "admin", input("Pen", 5, "2.50"))
	require.NoError(t, err)

	in := input("Blue Pen", 7, "3.75")
	in.ID = product.ID
	require.NoError(t, svc.Update(ctx, "admin", product.ID, in))

	stored := store.committed().products[product.ID]
	assert.Equal(t, "Blue Pen", stored.Title)
	assert.Equal(t, int64(2), stored.Version)

	audits := store.committed().audits
	require.Len(t, audits, 2)
	assert.Equal(t, domain.AuditUpdated, audits[1].Operation)
	assert.Equal(t, product.ID, audits[1].ProductID)

	change := decodeChange(t, audits[1].ChangedData)
	require.NotNil(t, change.Old)
	require.NotNil(t, change.New)
	assert.Equal(t, "Pen", change.Old.Title)
	assert.Equal(t, 5, change.Old.Quantity)
	assert.Equal(t, "Blue Pen", change.New.Title)
	assert.True(t, change.New.Price.Equal(decimal.RequireFromString("3.75")))
}

func TestProductService_UpdateNotFound(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)

	in := input("Pen", 1, "1")
	in.ID = 99
	err := svc.Update(context.Background(), "admin", 99, in)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, store.committed().audits)
}

func TestProductService_UpdateValidation(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)

	in := input("", 1, "1")
	in.ID = 1
	err := svc.Update(context.Background(), "admin", 1, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Title is required."}, verr.Errors)
}

func TestProductService_UpdateLostRaceIsConflict(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	ctx := context.Background()

	product, err := svc.Create(ctx, "admin", input("Pen", 5, "2.50"))
	require.NoError(t, err)

	store.conflict = func(*memState) {}
	in := input("Pen", 6, "2.50")
	in.ID = product.ID

	assert.ErrorIs(t, svc.Update(ctx, "admin", product.ID, in), ErrConflict)
	assert.Len(t, store.committed().audits, 1)
}

func TestProductService_UpdateRowVanishedIsNotFound(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	ctx := context.Background()

	product, err := svc.Create(ctx, "admin", input("Pen", 5, "2.50"))
	require.NoError(t, err)

	store.conflict = func(committed *memState) {
		delete(committed.products, product.ID)
	}
	in := input("Pen", 6, "2.50")
	in.ID = product.ID

	assert.ErrorIs(t, svc.Update(ctx, "admin", product.ID, in), ErrProductNotFound)
}

func TestProductService_DeleteRecordsOldSnapshot(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	ctx := context.Background()

	product, err := svc.Create(ctx, "admin", input("Mug", 3, "9.99"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "admin", product.ID))
	assert.Empty(t, store.committed().products)

	audits := store.committed().audits
	require.Len(t, audits, 2)
	assert.Equal(t, domain.AuditDeleted, audits[1].Operation)

	change := decodeChange(t, audits[1].ChangedData)
	assert.Nil(t, change.New)
	require.NotNil(t, change.Old)
	assert.Equal(t, "Mug", change.Old.Title)

	assert.ErrorIs(t, svc.Delete(ctx, "admin", product.ID), ErrProductNotFound)
	assert.Len(t, store.committed().audits, 2)
}

func TestProductService_DeleteRollsBackWhenAuditFails(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	ctx := context.Background()

	product, err := svc.Create(ctx, "admin", input("Mug", 3, "9.99"))
	require.NoError(t, err)

	store.auditErr = errors.New("boom")
	require.Error(t, svc.Delete(ctx, "admin", product.ID))
	assert.Contains(t, store.committed().products, product.ID)
	assert.Len(t, store.committed().audits, 1)
}

func TestProductService_ListAndGetIncludeVAT(t *testing.T) {
	store := newMockStore()
	store.addUser("admin", domain.RoleAdmin)
	svc := newTestProductService(t, store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin", input("Laptop", 2, "1000.00"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "admin", input("Mouse", 5, "20.00"))
	require.NoError(t, err)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Laptop", views[0].ItemName)
	assert.True(t, views[0].TotalPriceWithVat.Equal(decimal.RequireFromString("2400.00")))
	assert.Equal(t, "Mouse", views[1].ItemName)
	assert.True(t, views[1].TotalPriceWithVat.Equal(decimal.RequireFromString("120.00")))

	view, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Mouse", view.ItemName)

	_, err = svc.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProperty_EveryMutationHasExactlyOneAudit(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("successful mutations and audit entries pair one to one", prop.ForAll(
		func(ops []int, quantities []int) bool {
			if len(quantities) == 0 {
				return true
			}
			store := newMockStore()
			store.addUser("admin", domain.RoleAdmin)
			svc := newTestProductService(t, store)
			ctx := context.Background()

			var (
				expected []domain.AuditOperation
				ids      []int64
			)
			for i, op := range ops {
				quantity := quantities[i%len(quantities)]
				switch {
				case op == 0 || len(ids) == 0:
					p, err := svc.Create(ctx, "admin", input("Item", quantity, "1.50"))
					if err != nil {
						if quantity < 0 {
							continue
						}
						return false
					}
					ids = append(ids, p.ID)
					expected = append(expected, domain.AuditCreated)
				case op == 1:
					id := ids[i%len(ids)]
					in := input("Item", quantity, "2.00")
					in.ID = id
					if err := svc.Update(ctx, "admin", id, in); err != nil {
						if quantity < 0 {
							continue
						}
						return false
					}
					expected = append(expected, domain.AuditUpdated)
				default:
					idx := i % len(ids)
					if err := svc.Delete(ctx, "admin", ids[idx]); err != nil {
						return false
					}
					ids = append(ids[:idx], ids[idx+1:]...)
					expected = append(expected, domain.AuditDeleted)
				}
			}

			audits := store.committed().audits
			if len(audits) != len(expected) {
				return false
			}
			for i, a := range audits {
				if a.Operation != expected[i] {
					return false
				}
			}
			return len(store.committed().products) == len(ids)
		},
		gen.SliceOf(gen.IntRange(0, 2)),
		gen.SliceOfN(5, gen.IntRange(-2, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
