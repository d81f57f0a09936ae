package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/smartcart/internal/logging"
	"github.com/Skotchmaster/smartcart/internal/models"
	"github.com/Skotchmaster/smartcart/internal/mykafka"
	"github.com/Skotchmaster/smartcart/internal/repo"
	"github.com/Skotchmaster/smartcart/internal/shared"
)

// bcrypt ignores everything past 72 bytes.
const MaxPasswordBytes = 72

const DefaultEventsTopic = "user_events"

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	ListAll(ctx context.Context) ([]models.User, error)
	ListPage(ctx context.Context, offset, limit int) ([]models.User, int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(email string, role models.Role) (string, time.Time, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type AuthService struct {
	Store  UserStore
	Hasher PasswordHasher
	Tokens TokenIssuer
	// Events is optional; nil disables publishing.
	Events      EventPublisher
	EventsTopic string

	dummyMu sync.Mutex
	dummy   string
}

type AuthResult struct {
	Token     string
	Email     string
	Role      models.Role
	ExpiresAt time.Time
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrValidation)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password longer than %d bytes", shared.ErrValidation, MaxPasswordBytes)
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
}

// dummyHash is verified against when the email is unknown so that both
// failure paths of Login pay for one bcrypt comparison.
func (s *AuthService) dummyHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummy != "" {
		return s.dummy
	}
	h, err := s.Hasher.Hash("smartcart-timing-equalizer")
	if err != nil {
		// not cached: the next unknown-email login tries again
		logging.FromContext(ctx).Error("dummy_hash_failed", "err", err)
		return ""
	}
	s.dummy = h
	return s.dummy
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := validateCredentials(email, password); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "validation")
		return nil, err
	}

	user, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Hasher.Verify(password, s.dummyHash(ctx))
			l.Warn("login_failed", "status", 401, "reason", "unknown_email")
			return nil, shared.ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 503, "reason", "store", "error", err)
		return nil, storeErr(err)
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "password_mismatch", "user_id", user.ID)
		return nil, shared.ErrInvalidCredentials
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	s.publish(ctx, mykafka.EventUserLoggedIn, user)
	l.Info("login_successful", "user_id", user.ID, "role", user.Role)
	return res, nil
}

// Register always creates a Customer; there is no way to request another role.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateCredentials(email, password); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "validation")
		return nil, err
	}

	if _, err := s.Store.FindByEmail(ctx, email); err == nil {
		l.Warn("register_failed", "status", 409, "reason", "user already exist")
		return nil, shared.ErrDuplicateUser
	} else if !errors.Is(err, repo.ErrNotFound) {
		l.Error("register_failed", "status", 503, "reason", "store", "error", err)
		return nil, storeErr(err)
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%w: hash password: %w", shared.ErrInternal, err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleCustomer,
	}
	if err := s.Store.Insert(ctx, user); err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("register_failed", "status", 409, "reason", "unique index violation")
			return nil, shared.ErrDuplicateUser
		}
		l.Error("register_failed", "status", 503, "reason", "store", "error", err)
		return nil, storeErr(err)
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	s.publish(ctx, mykafka.EventUserRegistered, user)
	l.Info("register_successful", "user_id", user.ID)
	return res, nil
}

// EnsureAdmin creates the bootstrap Admin account if the email is free.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.ensure_admin")

	if err := validateCredentials(email, password); err != nil {
		return false, err
	}

	existing, err := s.Store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			l.Warn("bootstrap_admin_skipped", "reason", "email taken by non-admin", "user_id", existing.ID)
		}
		return false, nil
	case !errors.Is(err, repo.ErrNotFound):
		return false, storeErr(err)
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("%w: hash password: %w", shared.ErrInternal, err)
	}

	admin := &models.User{Email: email, PasswordHash: digest, Role: models.RoleAdmin}
	if err := s.Store.Insert(ctx, admin); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return false, nil
		}
		return false, storeErr(err)
	}

	l.Info("bootstrap_admin_created", "user_id", admin.ID)
	return true, nil
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %w", shared.ErrInternal, err)
	}
	return &AuthResult{
		Token:     token,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: exp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, u *models.User) {
	if s.Events == nil {
		return
	}
	topic := s.EventsTopic
	if topic == "" {
		topic = DefaultEventsTopic
	}

	ev := mykafka.UserEvent{
		Type:   eventType,
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role.String(),
		At:     time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, topic, strconv.FormatUint(uint64(u.ID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "event", eventType, "topic", topic, "error", err)
	}
}
