package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"deepwork-api/internal/domain"
	"deepwork-api/internal/email"
	"deepwork-api/internal/repository"
)

// AccountService coordina reglas de negocio para cuentas de identidad.
type AccountService struct {
	logger       *zap.Logger
	accounts     repository.AccountRepository
	emailSender  email.Sender
	resetLimiter ResetRateLimiter
}

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrResetNotRequested  = errors.New("reset not requested")
	ErrResetExpired       = errors.New("reset code expired")
	ErrResetInvalid       = errors.New("reset code invalid")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

const (
	resetCodeTTL      = 30 * time.Minute
	minPasswordLength = 8
)

func NewAccountService(logger *zap.Logger, accounts repository.AccountRepository, emailSender email.Sender, resetLimiter ResetRateLimiter) *AccountService {
	if resetLimiter == nil {
		resetLimiter = NewResetRateLimiter(resetCodeTTL, 3)
	}
	return &AccountService{
		logger:       logger,
		accounts:     accounts,
		emailSender:  emailSender,
		resetLimiter: resetLimiter,
	}
}

type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

// SignUp crea una cuenta nueva con la contrasena hasheada. El Profile
// de dominio no se crea aqui, lo crea la reconciliacion al resolver la
// primera sesion.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, errors.New("account service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.Account{}, ErrInvalidEmail
	}
	password := strings.TrimSpace(input.Password)
	if len(password) < minPasswordLength {
		return domain.Account{}, ErrInvalidPassword
	}

	if _, err := s.accounts.GetByEmail(ctx, emailAddr); err == nil {
		return domain.Account{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		FullName:     strings.TrimSpace(input.FullName),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

// Authenticate valida credenciales por email y contrasena.
func (s *AccountService) Authenticate(ctx context.Context, emailAddr, password string) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, errors.New("account service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.Account{}, ErrInvalidCredentials
	}
	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrInvalidCredentials
		}
		return domain.Account{}, err
	}
	if account.PasswordHash == "" {
		return domain.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return domain.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// GetAccount busca la cuenta por id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return account, nil
}

// RequestPasswordReset genera un codigo de reset y lo envia por correo.
// Para un email no registrado responde exito sin enviar nada, de modo
// que el llamador no puede enumerar cuentas.
func (s *AccountService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	if s.accounts == nil {
		return errors.New("account service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	if s.resetLimiter != nil && !s.resetLimiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	code, hash, expiresAt, err := generateResetCode()
	if err != nil {
		return err
	}

	if err := s.accounts.UpdateResetCode(ctx, account.ID, hash, expiresAt); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendPasswordReset(ctx, emailAddr, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send password reset failed", zap.Error(err), zap.String("email", emailAddr))
		}
		return ErrEmailSendFailure
	}

	return nil
}

// ConfirmPasswordReset valida el codigo recibido y fija la contrasena
// nueva, invalidando el codigo.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, emailAddr, code, newPassword string) error {
	if s.accounts == nil {
		return errors.New("account service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	newPassword = strings.TrimSpace(newPassword)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if !isValidResetCode(code) {
		return ErrResetInvalid
	}
	if len(newPassword) < minPasswordLength {
		return ErrInvalidPassword
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}

	if account.ResetCodeHash == "" || account.ResetCodeExpires == nil {
		return ErrResetNotRequested
	}
	if time.Now().UTC().After(*account.ResetCodeExpires) {
		return ErrResetExpired
	}
	if !verifyResetCode(code, account.ResetCodeHash) {
		return ErrResetInvalid
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePassword(ctx, account.ID, string(hashBytes))
}

func generateResetCode() (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	expiresAt := time.Now().UTC().Add(resetCodeTTL)
	return code, saltStr + ":" + hash, expiresAt, nil
}

func verifyResetCode(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidResetCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
