package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/metrics"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing.
	BcryptCost = 12

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	msgBadCredentials = "No active account found with the given credentials"
	msgStaffOnly      = "Only staff members are allowed to obtain a token."
	msgInvalidToken   = "Token is invalid or expired"
)

// JWTClaims represents the claims in a JWT token.
type JWTClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Service handles authentication operations.
type Service struct {
	db            *bun.DB
	jwtSecret     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	sessions      SessionStore
}

// NewService creates a new auth service.
func NewService(db *bun.DB, cfg *config.Config, sessions SessionStore) *Service {
	return &Service{
		db:            db,
		jwtSecret:     []byte(cfg.JWTSecret),
		accessExpiry:  cfg.JWTAccessExpiry,
		refreshExpiry: cfg.JWTRefreshExpiry,
		sessions:      sessions,
	}
}

// Authenticate validates credentials and returns the user if valid.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.username = ?", username).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.Unauthorized(msgBadCredentials)
		}
		return nil, errors.WithStack(err)
	}

	if !user.HasUsablePassword() || !CheckPassword(password, user.PasswordHash) {
		return nil, errcodes.Unauthorized(msgBadCredentials)
	}

	return user, nil
}

// ObtainTokens logs a staff member in. Other users are turned away even with
// the right password.
func (s *Service) ObtainTokens(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if !user.IsStaff {
		return nil, errcodes.NonFieldError(msgStaffOnly)
	}

	refresh, refreshClaims, err := s.generateToken(user.ID, TokenTypeRefresh, s.refreshExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, refreshClaims.ID, user.ID, s.refreshExpiry); err != nil {
		return nil, err
	}

	access, _, err := s.generateToken(user.ID, TokenTypeAccess, s.accessExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// RefreshAccessToken issues a new access token for a refresh token that's
// still valid, hasn't been revoked, and belongs to an active user.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", errcodes.Unauthorized(msgInvalidToken)
	}

	active, err := s.sessions.Active(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if !active {
		return "", errcodes.Unauthorized(msgInvalidToken)
	}

	if _, err := s.GetUserByID(ctx, claims.UserID); err != nil {
		return "", errcodes.Unauthorized(msgInvalidToken)
	}

	access, _, err := s.generateToken(claims.UserID, TokenTypeAccess, s.accessExpiry)
	return access, err
}

// Logout revokes a refresh token. Access tokens already handed out stay valid
// until they expire.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return errcodes.Unauthorized(msgInvalidToken)
	}
	return s.sessions.Revoke(ctx, claims.ID)
}

func (s *Service) generateToken(userID int, tokenType string, ttl time.Duration) (string, *JWTClaims, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, errors.WithStack(err)
	}

	metrics.TokensIssued.WithLabelValues(tokenType).Inc()
	return signedToken, claims, nil
}

// ValidateToken validates a JWT token of the given type and returns the
// claims.
func (s *Service) ValidateToken(tokenString, tokenType string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, errors.Errorf("expected %s token, got %q", tokenType, claims.TokenType)
	}

	return claims, nil
}

// GetUserByID retrieves an active user by ID.
func (s *Service) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
