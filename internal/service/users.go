package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/store"
	"farmacia-bermat/backend/internal/xid"
)

// Authenticate checks the password of an active account, stamps its last
// login and returns the actor to carry in the access token.
func (s *Service) Authenticate(ctx context.Context, username string, password string) (domain.Actor, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, ErrInvalidCredentials
		}
		return domain.Actor{}, err
	}
	if !verifyPassword(user.PasswordHash, password) {
		return domain.Actor{}, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return domain.Actor{}, ErrAccountInactive
	}

	now := s.now().UTC()
	user.LastLogin = &now
	if _, err := s.repo.UpdateUser(ctx, *user); err != nil {
		s.log.Warn().Err(err).Str("username", user.Username).Msg("failed to record last login")
	}

	actor := domain.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
	s.logSession(WithActor(ctx, actor), "Login efetuado")
	return actor, nil
}

// ResolveActor checks the account behind an access token on every request.
// Deactivated or removed accounts lose access before their token expires,
// and the returned actor carries the current role.
func (s *Service) ResolveActor(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	user, err := s.repo.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, ErrUnauthenticated
		}
		return domain.Actor{}, err
	}
	if user.Status != domain.UserStatusActive {
		return domain.Actor{}, ErrAccountInactive
	}
	return domain.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *Service) RecordLogout(ctx context.Context) error {
	if _, err := s.authenticated(ctx); err != nil {
		return err
	}
	s.logSession(ctx, "Logout efetuado")
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := s.authorize(ctx, access.ModuleEmployees); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

func (s *Service) RegisterUser(ctx context.Context, req domain.UserCreateRequest) (domain.User, error) {
	if _, err := s.authorize(ctx, access.ModuleEmployees); err != nil {
		return domain.User{}, err
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validateRequest(req); err != nil {
		return domain.User{}, err
	}
	if strings.ContainsAny(req.Username, " \t\r\n") {
		return domain.User{}, fmt.Errorf("%w: username must not contain spaces", store.ErrInvalidTransaction)
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.repo.CreateUser(ctx, domain.User{
		ID:           xid.New("user"),
		Username:     req.Username,
		Role:         req.Role,
		FullName:     req.FullName,
		TaxID:        strings.TrimSpace(req.TaxID),
		Phone:        strings.TrimSpace(req.Phone),
		Status:       domain.UserStatusActive,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return domain.User{}, err
	}
	s.logSession(ctx, fmt.Sprintf("Funcionário registado: %s (%s)", created.Username, created.Role))
	return *created, nil
}

// ToggleUserStatus flips an account between active and inactive. Callers
// cannot deactivate themselves.
func (s *Service) ToggleUserStatus(ctx context.Context, id string) (domain.User, error) {
	actor, err := s.authorize(ctx, access.ModuleEmployees)
	if err != nil {
		return domain.User{}, err
	}
	if actor.UserID == id {
		return domain.User{}, fmt.Errorf("%w: cannot change own status", store.ErrInvalidTransaction)
	}

	target, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, err)
	}

	if target.Status == domain.UserStatusActive {
		target.Status = domain.UserStatusInactive
	} else {
		target.Status = domain.UserStatusActive
	}
	updated, err := s.repo.UpdateUser(ctx, *target)
	if err != nil {
		return domain.User{}, err
	}
	s.logSession(ctx, fmt.Sprintf("Estado do funcionário %s: %s", updated.Username, updated.Status))
	return *updated, nil
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
