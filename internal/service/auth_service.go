package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type authAccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account, student *models.StudentProfile, recruiter *models.RecruiterProfile) error
}

type refreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// AuthService handles signup and the token session lifecycle.
type AuthService struct {
	accounts  authAccountRepository
	tokens    refreshTokenRepository
	audit     auditTrail
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts authAccountRepository, tokens refreshTokenRepository, audit auditRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		audit:     newAuditTrail(audit, logger),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Signup registers an account with the profile matching its role and opens a session.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.FullName = strings.TrimSpace(req.FullName)

	if err := validationFailure("invalid signup payload", s.validator.Struct(req), nil); err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:       uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}

	var (
		student   *models.StudentProfile
		recruiter *models.RecruiterProfile
	)
	switch req.Role {
	case models.RoleStudent:
		student = &models.StudentProfile{}
	case models.RoleRecruiter:
		recruiter = &models.RecruiterProfile{CompanyName: req.CompanyName}
	default:
		return nil, appErrors.Validation("invalid signup payload", map[string]string{"role": "Select a valid choice."})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	account.PasswordHash = string(hash)

	if err := s.accounts.CreateAccount(ctx, account, student, recruiter); err != nil {
		if conflict := accountConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.metrics.RecordSignup(account.Role)
	s.audit.record(ctx, account.ID, models.AuditActionSignup, "account", account.ID, map[string]string{"role": string(account.Role)})

	return s.openSession(ctx, account, req.IP, req.UserAgent)
}

// Login authenticates by username and password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if err := validationFailure("invalid login payload", s.validator.Struct(req), nil); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, account, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, account.ID, models.AuditActionLogin, "auth", account.ID, map[string]string{"status": "success"})
	return session, nil
}

// Refresh rotates a refresh token into a new session.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.Session, error) {
	if err := validationFailure("invalid refresh payload", s.validator.Struct(req), nil); err != nil {
		return nil, err
	}

	stored, err := s.tokens.FindByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch refresh token")
	}
	if stored.Revoked || time.Now().UTC().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	account, err := s.accounts.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	if err := s.tokens.Revoke(ctx, stored.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}

	return s.openSession(ctx, account, req.IP, req.UserAgent)
}

// Logout revokes a refresh token owned by the caller.
func (s *AuthService) Logout(ctx context.Context, identity models.Identity, req models.LogoutRequest) error {
	if err := validationFailure("invalid logout payload", s.validator.Struct(req), nil); err != nil {
		return err
	}

	stored, err := s.tokens.FindByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}
	if stored.UserID != identity.UserID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
	}

	if err := s.tokens.Revoke(ctx, stored.ID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
	}

	s.audit.record(ctx, identity.UserID, models.AuditActionLogout, "auth", identity.UserID, nil)
	return nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, identity models.Identity) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return account, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if _, err := models.ParseRole(string(claims.Role)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token role")
	}
	return claims, nil
}

func (s *AuthService) openSession(ctx context.Context, account *models.Account, ip, userAgent string) (*models.Session, error) {
	redirect, err := account.Role.DashboardPath()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unsupported account role")
	}

	issuedAt := time.Now().UTC()
	accessToken, err := s.generateAccessToken(account, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshValue, err := generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	if err := s.tokens.Create(ctx, &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		TokenHash: hashToken(refreshValue),
		ExpiresAt: issuedAt.Add(s.config.RefreshTokenExpiry),
		CreatedAt: issuedAt,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return &models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     issuedAt,
		User:         models.Identity{UserID: account.ID, Username: account.Username, Role: account.Role},
		Redirect:     redirect,
	}, nil
}

func (s *AuthService) generateAccessToken(account *models.Account, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   account.ID,
		Username: account.Username,
		Role:     account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// accountConflict maps a duplicate username or email into a field conflict.
func accountConflict(err error) error {
	uv, ok := repository.AsUniqueViolation(err)
	if !ok {
		return nil
	}
	conflict := appErrors.Clone(appErrors.ErrConflict, "account already exists")
	conflict.Err = err
	switch uv.Constraint {
	case repository.ConstraintUsername:
		conflict.Fields = map[string]string{"username": "A user with that username already exists."}
	case repository.ConstraintEmail:
		conflict.Fields = map[string]string{"email": "A user with that email already exists."}
	}
	return conflict
}
