package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"inventory-api/internal/auth"
	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedAccount describes a user created at startup when absent
type SeedAccount struct {
	Username string
	Password string
	Role     string
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.TokenResponse, error)
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Seed(ctx context.Context, accounts []SeedAccount) error
}

type authService struct {
	store   repository.Store
	issuer  *auth.Issuer
	logger  *zap.Logger
	cost    int
	compare func(hash, password []byte) error

	// decoyOnce guards decoyHash, a hash of no real password at s.cost
	decoyOnce sync.Once
	decoyHash []byte
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(store repository.Store, issuer *auth.Issuer, logger *zap.Logger) AuthService {
	return &authService{
		store:   store,
		issuer:  issuer,
		logger:  logger,
		cost:    BcryptCost,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// Login verifies the credentials and issues a signed token carrying the user's roles.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials,
// and both pay for one bcrypt comparison.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.compare(s.decoy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(user.Username, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &domain.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// decoy returns the hash compared against when the username does not exist
func (s *authService) decoy() []byte {
	s.decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cost)
		if err != nil {
			s.logger.Error("Failed to generate decoy password hash", zap.Error(err))
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// Register creates a user in the User role. Password policy violations and
// a taken username are reported as a *ValidationError.
func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.createUser(ctx, username, password, domain.RoleUser)
}

// Seed creates each account that does not exist yet and makes sure every
// account holds its role
func (s *authService) Seed(ctx context.Context, accounts []SeedAccount) error {
	for _, account := range accounts {
		existing, err := s.store.Users().FindByUsername(ctx, account.Username)
		switch {
		case err == nil:
			if !existing.HasRole(account.Role) {
				if err := s.store.Users().AddToRole(ctx, existing.ID, account.Role); err != nil {
					return fmt.Errorf("failed to grant role %s to %s: %w", account.Role, account.Username, err)
				}
			}
			continue
		case !errors.Is(err, repository.ErrUserNotFound):
			return fmt.Errorf("failed to look up seed user %s: %w", account.Username, err)
		}

		if _, err := s.createUser(ctx, account.Username, account.Password, account.Role); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", account.Username, err)
		}
		s.logger.Info("Seeded user",
			zap.String("username", account.Username),
			zap.String("role", account.Role),
		)
	}
	return nil
}

func (s *authService) createUser(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	var problems []string
	problems = append(problems, usernameErrors(username)...)
	problems = append(problems, PasswordPolicyErrors(password)...)
	if len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Roles:        []string{role},
		CreatedAt:    time.Now().UTC(),
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Users().AddToRole(ctx, user.ID, role)
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, &ValidationError{Errors: []string{fmt.Sprintf("Username '%s' is already taken.", username)}}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
