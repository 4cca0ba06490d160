package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

const (
	minPasswordLength = 6
	defaultPendingTTL = 24 * time.Hour
	tokenBytes        = 32
)

// AuthConfig tunes signup and login behaviour.
type AuthConfig struct {
	// PublicURL is the base of the verification link sent by email.
	PublicURL string
	// EmailPattern, when set, restricts which addresses may sign up.
	EmailPattern *regexp.Regexp
	// NotifyTo receives a notification for every successful login. Empty disables it.
	NotifyTo   string
	PendingTTL time.Duration
}

// AuthService implements signup with email verification, login and password changes.
type AuthService struct {
	repo      ports.AccountRepository
	tokens    *TokenManager
	mailer    ports.Mailer
	notifier  ports.Notifier
	cfg       AuthConfig
	log       zerolog.Logger
	now       func() time.Time
	dummyHash []byte
}

func NewAuthService(
	repo ports.AccountRepository,
	tokens *TokenManager,
	mailer ports.Mailer,
	notifier ports.Notifier,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = defaultPendingTTL
	}
	// Compared against when the email is unknown so both login failures cost the same.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		mailer:    mailer,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Signup stores a pending registration and emails its verification link.
func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	email, err := s.validateEmail(email)
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return domain.Validationf("password must be at least %d characters", minPasswordLength)
	}

	if err := s.ensureNoAccount(ctx, email, domain.ErrAccountExists); err != nil {
		return err
	}
	if _, err := s.repo.FindPendingByEmail(ctx, email); err == nil {
		return domain.ErrSignupPending
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("signup: hash password: %w", err)
	}
	token, err := newVerificationToken()
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	pending := &domain.PendingSignup{
		Email:        email,
		PasswordHash: string(hash),
		Token:        token,
		ExpiresAt:    now.Add(s.cfg.PendingTTL),
		CreatedAt:    now,
	}
	if err := s.repo.CreatePending(ctx, pending); err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	if err := s.sendVerification(ctx, email, token); err != nil {
		// Drop the row so the user can sign up again instead of being stuck pending.
		if delErr := s.repo.DeletePending(ctx, email); delErr != nil {
			s.log.Error().Err(delErr).Str("email", email).Msg("failed to remove pending signup after email failure")
		}
		return err
	}

	s.log.Info().Str("email", email).Msg("signup pending verification")
	return nil
}

// Verify consumes a verification token and creates the account.
func (s *AuthService) Verify(ctx context.Context, token string) (*domain.Account, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrInvalidToken
	}

	pending, err := s.repo.FindPendingByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if pending.Expired(s.now()) {
		return nil, domain.ErrInvalidToken
	}

	if err := s.ensureNoAccount(ctx, pending.Email, domain.ErrAccountExists); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			if delErr := s.repo.DeletePending(ctx, pending.Email); delErr != nil {
				s.log.Warn().Err(delErr).Str("email", pending.Email).Msg("failed to remove stale pending signup")
			}
		}
		return nil, err
	}

	account, err := s.repo.ActivatePending(ctx, pending)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("account_id", account.ID).Str("email", account.Email).Msg("account verified")
	return account, nil
}

// Login checks credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ports.LoginMeta) (string, *domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !account.Verified {
		return "", nil, fmt.Errorf("%w: email address is not verified", domain.ErrForbidden)
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return "", nil, err
	}

	s.notifyLogin(account, meta)
	s.log.Info().Int64("account_id", account.ID).Str("role", string(account.Role)).Msg("login")
	return token, account, nil
}

// ChangePassword replaces the password of an authenticated account.
func (s *AuthService) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return domain.Validationf("new password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, accountID, string(hash)); err != nil {
		return err
	}

	s.log.Info().Int64("account_id", accountID).Msg("password changed")
	return nil
}

// ResendVerification rotates the token of a pending signup and emails it again.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Validationf("email is required")
	}

	if err := s.ensureNoAccount(ctx, email, domain.ErrAlreadyVerified); err != nil {
		return err
	}
	if _, err := s.repo.FindPendingByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no pending signup for this email", domain.ErrNotFound)
		}
		return fmt.Errorf("resend verification: %w", err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	if err := s.repo.ReplacePendingToken(ctx, email, token, s.now().UTC().Add(s.cfg.PendingTTL)); err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}

	return s.sendVerification(ctx, email, token)
}

// ensureNoAccount returns exists when an account with email is already stored.
func (s *AuthService) ensureNoAccount(ctx context.Context, email string, exists error) error {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return exists
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup account: %w", err)
	}
}

func (s *AuthService) validateEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	if email == "" {
		return "", domain.Validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Validationf("email is not a valid address")
	}
	if s.cfg.EmailPattern != nil && !s.cfg.EmailPattern.MatchString(email) {
		return "", domain.Validationf("email is not an allowed campus address")
	}
	return email, nil
}

func (s *AuthService) sendVerification(ctx context.Context, email, token string) error {
	link := strings.TrimRight(s.cfg.PublicURL, "/") + "/verify?token=" + url.QueryEscape(token)
	msg, err := verificationMessage(email, link)
	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("verification email failed")
		return fmt.Errorf("%w: could not send verification email", domain.ErrDependency)
	}
	return nil
}

func (s *AuthService) notifyLogin(account *domain.Account, meta ports.LoginMeta) {
	if s.notifier == nil || s.cfg.NotifyTo == "" {
		return
	}
	msg, err := loginNotificationMessage(s.cfg.NotifyTo, account.Email, s.now(), meta)
	if err != nil {
		s.log.Warn().Err(err).Msg("render login notification")
		return
	}
	s.notifier.Notify(msg)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func newVerificationToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
