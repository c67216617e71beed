// Package account is the email/password sign-in provider. Accounts live in
// the remote database so the same identity works on every device.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ai-financer/internal/config"
	"ai-financer/internal/models"
	"ai-financer/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
	ErrUserNotFound  = errors.New("no account found with this email")
	ErrWrongPassword = errors.New("incorrect password")
	ErrEmailInUse    = errors.New("email already registered")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Grant is the outcome of a successful sign-in.
type Grant struct {
	UID         string
	Email       string
	DisplayName string
	Token       string
}

type Service struct {
	DB         *gorm.DB
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
	Log        zerolog.Logger
}

func NewService(db *gorm.DB, cfg config.JWTConfig, log zerolog.Logger) *Service {
	ttlHours := cfg.ExpireHours
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Service{
		DB:         db,
		JWTSecret:  cfg.Secret,
		Issuer:     cfg.Issuer,
		TokenTTL:   time.Duration(ttlHours) * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
		Log:        log.With().Str("component", "account").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(email, password string) error {
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < 6 {
		return ErrWeakPassword
	}
	return nil
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (Grant, error) {
	email = normalizeEmail(email)
	if err := validate(email, password); err != nil {
		return Grant{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return Grant{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	acc := models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.SplitN(email, "@", 2)[0],
		LastLoginAt:  &now,
	}
	// the unique email index decides races between concurrent sign-ups
	if err := s.DB.WithContext(ctx).Create(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Grant{}, ErrEmailInUse
		}
		return Grant{}, fmt.Errorf("create account: %w", err)
	}
	return s.grant(&acc)
}

// SignIn checks the password and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Grant, error) {
	email = normalizeEmail(email)
	if err := validate(email, password); err != nil {
		return Grant{}, err
	}

	var acc models.Account
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Grant{}, ErrUserNotFound
		}
		return Grant{}, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Grant{}, ErrWrongPassword
	}

	now := time.Now()
	acc.LastLoginAt = &now
	if err := s.DB.WithContext(ctx).Model(&acc).Update("last_login_at", now).Error; err != nil {
		s.Log.Warn().Err(err).Str("uid", acc.UID).Msg("record last login")
	}

	return s.grant(&acc)
}

// Verify returns the uid carried by a valid token. Only signature and expiry
// are checked so a signed-in device keeps working while the remote database
// is unreachable.
func (s *Service) Verify(_ context.Context, token string) (string, error) {
	claims, err := util.ParseToken(s.JWTSecret, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.UID, nil
}

// Lookup returns the account for uid.
func (s *Service) Lookup(ctx context.Context, uid string) (models.Account, error) {
	var acc models.Account
	if err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return acc, ErrUserNotFound
		}
		return acc, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

// UpdateDisplayName sets the name shown in the profile header.
func (s *Service) UpdateDisplayName(ctx context.Context, uid, name string) (models.Account, error) {
	acc, err := s.Lookup(ctx, uid)
	if err != nil {
		return acc, err
	}
	name = strings.TrimSpace(name)
	if err := s.DB.WithContext(ctx).Model(&acc).Update("display_name", name).Error; err != nil {
		return acc, fmt.Errorf("update display name: %w", err)
	}
	acc.DisplayName = name
	return acc, nil
}

// ChangePassword replaces the password after checking the current one.
// Tokens issued before the change stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}
	acc, err := s.Lookup(ctx, uid)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&acc).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *Service) grant(acc *models.Account) (Grant, error) {
	token, err := util.GenerateToken(s.JWTSecret, s.Issuer, acc.UID, s.TokenTTL)
	if err != nil {
		return Grant{}, fmt.Errorf("generate token: %w", err)
	}
	return Grant{
		UID:         acc.UID,
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		Token:       token,
	}, nil
}
