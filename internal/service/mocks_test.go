package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
)

// memState is the committed content of a mockStore
type memState struct {
	products      map[int64]domain.Product
	audits        []domain.ProductAudit
	users         map[string]domain.User
	nextProductID int64
	nextAuditID   int64
}

func newMemState() *memState {
	return &memState{
		products: make(map[int64]domain.Product),
		users:    make(map[string]domain.User),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		products:      make(map[int64]domain.Product, len(s.products)),
		audits:        append([]domain.ProductAudit(nil), s.audits...),
		users:         make(map[string]domain.User, len(s.users)),
		nextProductID: s.nextProductID,
		nextAuditID:   s.nextAuditID,
	}
	for id, p := range s.products {
		c.products[id] = p
	}
	for k, u := range s.users {
		u.Roles = append([]string(nil), u.Roles...)
		c.users[k] = u
	}
	return c
}

// mockStore is an in-memory repository.Store. Transactions work on a copy of
// the state that replaces the committed state only when the callback succeeds.
type mockStore struct {
	mu    *sync.Mutex
	base  **memState
	state *memState
	inTx  bool

	// calls counts repository method invocations and transactions
	calls *int

	// auditErr makes every audit insert fail
	auditErr error

	// conflict makes product writes lose the version race; it receives the
	// committed state so tests can simulate the concurrent writer
	conflict func(committed *memState)
}

func newMockStore() *mockStore {
	state := newMemState()
	base := &state
	calls := 0
	return &mockStore{mu: &sync.Mutex{}, base: base, state: state, calls: &calls}
}

func (m *mockStore) committed() *memState {
	return *m.base
}

func (m *mockStore) touch() {
	*m.calls++
}

func (m *mockStore) Products() repository.ProductRepository {
	return &mockProductRepository{store: m}
}

func (m *mockStore) Audits() repository.AuditRepository {
	return &mockAuditRepository{store: m}
}

func (m *mockStore) Users() repository.UserRepository {
	return &mockUserRepository{store: m}
}

func (m *mockStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	m.touch()
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := *m
	tx.state = m.committed().clone()
	tx.inTx = true
	if err := fn(&tx); err != nil {
		return err
	}
	*m.base = tx.state
	m.state = tx.state
	return nil
}

// current returns the state visible to this store handle
func (m *mockStore) current() *memState {
	if m.inTx {
		return m.state
	}
	return m.committed()
}

func (m *mockStore) addUser(username string, roles ...string) domain.User {
	user := domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "hash",
		Roles:        roles,
	}
	m.committed().users[strings.ToLower(username)] = user
	return user
}

type mockProductRepository struct {
	store *mockStore
}

func (r *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	r.store.touch()
	state := r.store.current()
	products := make([]*domain.Product, 0, len(state.products))
	for _, p := range state.products {
		p := p
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.store.touch()
	p, ok := r.store.current().products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (r *mockProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.store.touch()
	_, ok := r.store.current().products[id]
	return ok, nil
}

func (r *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.store.touch()
	state := r.store.current()
	state.nextProductID++
	product.ID = state.nextProductID
	product.Version = 1
	state.products[product.ID] = *product
	return nil
}

func (r *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.store.touch()
	if r.store.conflict != nil {
		r.store.conflict(r.store.committed())
		return repository.ErrConcurrentUpdate
	}
	state := r.store.current()
	stored, ok := state.products[product.ID]
	if !ok || stored.Version != product.Version {
		return repository.ErrConcurrentUpdate
	}
	product.Version++
	state.products[product.ID] = *product
	return nil
}

func (r *mockProductRepository) Delete(ctx context.Context, id, version int64) error {
	r.store.touch()
	if r.store.conflict != nil {
		r.store.conflict(r.store.committed())
		return repository.ErrConcurrentUpdate
	}
	state := r.store.current()
	stored, ok := state.products[id]
	if !ok || stored.Version != version {
		return repository.ErrConcurrentUpdate
	}
	delete(state.products, id)
	return nil
}

type mockAuditRepository struct {
	store *mockStore
}

func (r *mockAuditRepository) Create(ctx context.Context, audit *domain.ProductAudit) error {
	r.store.touch()
	if r.store.auditErr != nil {
		return r.store.auditErr
	}
	state := r.store.current()
	state.nextAuditID++
	audit.ID = state.nextAuditID
	state.audits = append(state.audits, *audit)
	return nil
}

func (r *mockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	r.store.touch()
	state := r.store.current()
	entries := []*domain.AuditEntry{}
	for _, a := range state.audits {
		if filter.From != nil && a.ChangedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.ChangedAt.After(*filter.To) {
			continue
		}
		entry := &domain.AuditEntry{
			ID:          a.ID,
			Operation:   a.Operation,
			ProductID:   a.ProductID,
			ChangedData: a.ChangedData,
			ChangedAt:   a.ChangedAt,
		}
		for _, u := range state.users {
			if u.ID == a.UserID {
				entry.Username = u.Username
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type mockUserRepository struct {
	store *mockStore
}

func (r *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.touch()
	state := r.store.current()
	key := strings.ToLower(user.Username)
	if _, exists := state.users[key]; exists {
		return repository.ErrUserAlreadyExists
	}
	stored := *user
	stored.Roles = nil
	state.users[key] = stored
	return nil
}

func (r *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.touch()
	user, ok := r.store.current().users[strings.ToLower(username)]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (r *mockUserRepository) AddToRole(ctx context.Context, userID uuid.UUID, role string) error {
	r.store.touch()
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return repository.ErrRoleNotFound
	}
	state := r.store.current()
	for key, user := range state.users {
		if user.ID == userID {
			if !user.HasRole(role) {
				user.Roles = append(user.Roles, role)
				state.users[key] = user
			}
			return nil
		}
	}
	return repository.ErrUserNotFound
}
