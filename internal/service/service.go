package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"farmacia-bermat/backend/internal/access"
	"farmacia-bermat/backend/internal/audit"
	"farmacia-bermat/backend/internal/cart"
	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/logger"
	"farmacia-bermat/backend/internal/store"
	"farmacia-bermat/backend/internal/xid"
)

var (
	ErrForbidden            = errors.New("forbidden for this role")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrUnknownDocumentKind  = errors.New("unknown document kind")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountInactive      = errors.New("account is inactive")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	carts    *cart.Registry
	auditor  *audit.Engine
	validate *validator.Validate
	now      func() time.Time
	log      zerolog.Logger
}

func New(repo store.Repository, auditor *audit.Engine) *Service {
	if auditor == nil {
		auditor = audit.NewEngine(nil, nil, 0)
	}
	return &Service{
		repo:     repo,
		carts:    cart.NewRegistry(),
		auditor:  auditor,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		log:      logger.WithComponent("service"),
	}
}

// Modules lists the application modules the caller may open.
func (s *Service) Modules(ctx context.Context) ([]string, error) {
	actor, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	return access.ModulesFor(actor.Role), nil
}

func (s *Service) authenticated(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		return domain.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

func (s *Service) authorize(ctx context.Context, module string) (domain.Actor, error) {
	actor, err := s.authenticated(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if !access.RoleAllows(actor.Role, module) {
		return domain.Actor{}, fmt.Errorf("%w: %s", ErrForbidden, module)
	}
	return actor, nil
}

func (s *Service) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidTransaction, err)
	}
	return nil
}

func (s *Service) today() time.Time {
	return domain.DateUTC(s.now())
}

// logSession appends to the session log. A failed write is logged and never
// fails the action that produced it.
func (s *Service) logSession(ctx context.Context, action string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{UserID: "system", Username: "system"}
	}

	if err := s.repo.AppendSessionLog(ctx, domain.SessionLog{
		ID:            xid.New("log"),
		ActorID:       actor.UserID,
		ActorUsername: actor.Username,
		Action:        action,
		Timestamp:     s.now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to write session log")
	}
}

// SessionLogs returns the newest session log entries first.
func (s *Service) SessionLogs(ctx context.Context, limit int) ([]domain.SessionLog, error) {
	if _, err := s.authorize(ctx, access.ModuleReports); err != nil {
		return nil, err
	}
	return s.repo.ListSessionLogs(ctx, limit)
}

func parseDate(raw string, fallback time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", store.ErrInvalidTransaction, raw)
	}
	return parsed.UTC(), nil
}
