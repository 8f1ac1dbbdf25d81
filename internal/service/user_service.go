package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// UserService handles the auth boundary: credential checks, the login and
// logout log entries, and user administration.
type UserService struct {
	users    domain.UserRepository
	activity domain.ActivityRepository
	log      *slog.Logger
}

func NewUserService(users domain.UserRepository, activity domain.ActivityRepository, log *slog.Logger) *UserService {
	return &UserService{users: users, activity: activity, log: log}
}

// Login verifies credentials and writes the login entry.
func (s *UserService) Login(ctx context.Context, email, password, ip string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	entry := newEntry(domain.Principal{UserID: user.UserID, Name: user.Name, Role: user.Role},
		domain.ActionLogin, fmt.Sprintf("Zalogowano: %s", user.Name))
	entry.IPAddress = ip
	if err := s.activity.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info("user logged in", "user", user.UserID, "role", user.Role)
	return user, nil
}

// Logout only records the event; token invalidation is the client's side of
// the contract (tokens are short-lived JWTs).
func (s *UserService) Logout(ctx context.Context, actor domain.Principal, ip string) error {
	entry := newEntry(actor, domain.ActionLogout, fmt.Sprintf("Wylogowano: %s", actor.Name))
	entry.IPAddress = ip
	return s.activity.Append(ctx, entry)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx, nil)
}

func (s *UserService) Workers(ctx context.Context) ([]*domain.User, error) {
	workerRole := domain.RoleWorker
	return s.users.List(ctx, &workerRole)
}

func (s *UserService) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if role != domain.RoleAdmin && role != domain.RoleWorker {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	return s.users.UpdateRole(ctx, id, role)
}

// EnsureAdmin seeds the bootstrap admin account on first start.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &domain.User{
		UserID:       domain.NewID("user"),
		Email:        email,
		Name:         name,
		Role:         domain.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", "email", email)
	return nil
}
