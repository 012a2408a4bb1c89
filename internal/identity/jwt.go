package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"deepwork-api/internal/domain"
)

// TokenService emite y valida los tokens JWT que respaldan las sesiones.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	store      RefreshTokenStore
}

// Claims son los claims de identidad embebidos en cada token. Las
// pistas full_name y avatar_url viajan en el token para que el cliente
// pueda sintetizar un Profile por defecto sin otra llamada.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     "deepwork-api",
		store:      NewMemoryRefreshTokenStore(),
	}
}

func NewTokenServiceWithStore(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *TokenService {
	svc := NewTokenService(secret, accessTTL, refreshTTL)
	if store != nil {
		svc.store = store
	}
	return svc
}

// IssueSession genera el par access/refresh para la cuenta y lo
// devuelve como Session de dominio.
func (s *TokenService) IssueSession(account domain.Account) (domain.Session, error) {
	if len(s.secret) == 0 {
		return domain.Session{}, ErrJWTInvalid
	}
	now := time.Now().UTC()
	access, err := s.signToken(account, now, s.accessTTL, "access", "")
	if err != nil {
		return domain.Session{}, err
	}
	jti := uuid.NewString()
	refresh, err := s.signToken(account, now, s.refreshTTL, "refresh", jti)
	if err != nil {
		return domain.Session{}, err
	}
	if s.store != nil {
		if err := s.store.Store(jti, account.ID, s.refreshTTL); err != nil {
			return domain.Session{}, err
		}
	}

	sess := domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.accessTTL),
		Subject:      account.ID,
		Email:        account.Email,
	}
	if account.FullName != "" {
		name := account.FullName
		sess.FullName = &name
	}
	if account.AvatarURL != "" {
		avatar := account.AvatarURL
		sess.AvatarURL = &avatar
	}
	return sess, nil
}

// RefreshSession consume un refresh token valido y emite un par nuevo.
// El jti consumido queda revocado, la rotacion es de un solo uso.
func (s *TokenService) RefreshSession(refreshToken string) (domain.Session, error) {
	if len(s.secret) == 0 {
		return domain.Session{}, ErrJWTInvalid
	}
	if strings.TrimSpace(refreshToken) == "" {
		return domain.Session{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return domain.Session{}, err
	}
	if claims.TokenType != "refresh" {
		return domain.Session{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return domain.Session{}, ErrJWTInvalid
	}
	if claims.ID == "" || s.store == nil {
		return domain.Session{}, ErrJWTInvalid
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return domain.Session{}, ErrJWTInvalid
	}
	if err := s.store.Revoke(claims.ID); err != nil {
		return domain.Session{}, ErrJWTInvalid
	}

	account := domain.Account{
		ID:        claims.UserID,
		Email:     claims.Email,
		FullName:  claims.FullName,
		AvatarURL: claims.AvatarURL,
	}
	return s.IssueSession(account)
}

// RevokeRefresh invalida el refresh token (logout).
func (s *TokenService) RevokeRefresh(refreshToken string) error {
	if len(s.secret) == 0 {
		return ErrJWTInvalid
	}
	if strings.TrimSpace(refreshToken) == "" {
		return ErrJWTInvalid
	}
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return err
	}
	if !s.isValidClaims(claims) {
		return ErrJWTInvalid
	}
	if claims.TokenType != "refresh" || claims.ID == "" {
		return ErrJWTInvalid
	}
	if s.store == nil {
		return ErrJWTInvalid
	}
	return s.store.Revoke(claims.ID)
}

func (s *TokenService) ParseAccessToken(accessToken string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "access" {
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *TokenService) signToken(account domain.Account, now time.Time, ttl time.Duration, tokenType, jti string) (string, error) {
	claims := Claims{
		UserID:    account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		AvatarURL: account.AvatarURL,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *TokenService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
