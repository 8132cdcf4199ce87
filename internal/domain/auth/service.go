// Package auth checks employee PINs against the roster and the manager
// secret against configuration, and hands out session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tokens "tipsheet/internal/auth"
	"tipsheet/internal/domain/roster"
	"tipsheet/internal/domain/timesheet"
)

// ErrInvalidCredentials never says which of name or PIN was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type RosterSource interface {
	Find(ctx context.Context, name string) (roster.Entry, bool, error)
}

type Config struct {
	ManagerPassword     string
	ManagerPasswordHash string
	JWTSecret           string
	SessionTTL          time.Duration
	StoreTimeout        time.Duration
}

type Service struct {
	roster RosterSource
	cfg    Config
}

type Session struct {
	Token     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

func NewService(source RosterSource, cfg Config) *Service {
	return &Service{roster: source, cfg: cfg}
}

func (s *Service) find(ctx context.Context, name string) (roster.Entry, bool, error) {
	if s.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StoreTimeout)
		defer cancel()
	}
	entry, ok, err := s.roster.Find(ctx, name)
	if err != nil {
		return roster.Entry{}, false, fmt.Errorf("read roster: %w: %v", timesheet.ErrStoreUnavailable, err)
	}
	return entry, ok, nil
}

// VerifyEmployee returns the roster's canonical spelling of name when pin
// matches. Shape errors are reported before the roster is read.
func (s *Service) VerifyEmployee(ctx context.Context, name, pin string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", timesheet.ErrInvalidInput)
	}
	if !roster.ValidPIN(pin) {
		return "", fmt.Errorf("%w: PIN must be 4 digits", timesheet.ErrInvalidInput)
	}

	entry, ok, err := s.find(ctx, name)
	if err != nil {
		return "", err
	}
	stored := entry.PIN
	if !ok {
		stored = "----"
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1
	if !ok || !match {
		slog.Debug("employee verification failed", "name", name)
		return "", ErrInvalidCredentials
	}
	return entry.Name, nil
}

// EmployeeActive returns the canonical name while name is still on the
// roster.
func (s *Service) EmployeeActive(ctx context.Context, name string) (string, error) {
	entry, ok, err := s.find(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	return entry.Name, nil
}

// VerifyManager checks secret against the bcrypt hash when one is
// configured, otherwise against the plain secret. An unconfigured secret
// never matches.
func (s *Service) VerifyManager(secret string) bool {
	if secret == "" {
		return false
	}
	if s.cfg.ManagerPasswordHash != "" {
		return tokens.CheckPassword(s.cfg.ManagerPasswordHash, secret) == nil
	}
	if s.cfg.ManagerPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.cfg.ManagerPassword), []byte(secret)) == 1
}

func (s *Service) IssueSession(name, role string) (Session, error) {
	token, expires, err := tokens.GenerateToken(s.cfg.JWTSecret, tokens.Claims{Name: name, Role: role}, s.cfg.SessionTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Name: name, Role: role, ExpiresAt: expires}, nil
}

func (s *Service) ParseSession(token string) (*tokens.Claims, error) {
	return tokens.ParseToken(s.cfg.JWTSecret, token)
}
