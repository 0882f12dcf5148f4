package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// maxTwoFactorAttempts is how many wrong codes burn a login challenge
	maxTwoFactorAttempts = 5
	// totpReuseWindow covers every step ValidateTOTP accepts a code for
	totpReuseWindow = 90 * time.Second
)

var (
	errInvalidCredentials = api.NewError("invalid credentials", http.StatusUnauthorized, "UNAUTHORIZED")
	errInvalidCode        = api.NewError("invalid two-factor code", http.StatusUnauthorized, "UNAUTHORIZED")
	errChallengeUsed      = api.NewError("login challenge is no longer valid", http.StatusUnauthorized, "UNAUTHORIZED")
	errTooManyAttempts    = api.NewError("too many invalid two-factor codes, sign in again", http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
	errTokenRevoked       = api.NewError("token has been revoked", http.StatusUnauthorized, "UNAUTHORIZED")
)

// LoginRequest signs a user in to a tenant
type LoginRequest struct {
	Tenant   string `json:"tenant" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries either an access token or a 2FA challenge
type LoginResponse struct {
	AccessToken       string       `json:"access_token,omitempty"`
	ExpiresAt         *time.Time   `json:"expires_at,omitempty"`
	User              *models.User `json:"user,omitempty"`
	TwoFactorRequired bool         `json:"two_factor_required,omitempty"`
	ChallengeToken    string       `json:"challenge_token,omitempty"`
}

// VerifyTwoFactorRequest completes a login that requires a TOTP code
type VerifyTwoFactorRequest struct {
	ChallengeToken string `json:"challenge_token" validate:"required"`
	Code           string `json:"code" validate:"required,len=6,numeric"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// CodeRequest carries a TOTP code
type CodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// AuthService signs users in and manages their credentials
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	VerifyTwoFactor(ctx context.Context, req VerifyTwoFactorRequest) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context) (*models.User, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	SetupTwoFactor(ctx context.Context) (*auth.TOTPKey, error)
	EnableTwoFactor(ctx context.Context, req CodeRequest) error
	DisableTwoFactor(ctx context.Context, req CodeRequest) error
}

type authService struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	tokens  *auth.TokenManager
	cache   cache.Cache
	cfg     config.AuthConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	tenants repository.TenantRepository,
	users repository.UserRepository,
	tokens *auth.TokenManager,
	c cache.Cache,
	cfg config.AuthConfig,
	m *metrics.Metrics,
) AuthService {
	return &authService{
		tenants: tenants,
		users:   users,
		tokens:  tokens,
		cache:   c,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
	}
}

// Login checks credentials. Every failure is the same 401 so callers cannot
// tell which of tenant, user or password was wrong.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	ctx = appctx.WithoutTenantScope(ctx)

	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		s.metrics.IncrementCounter(metrics.LoginFailed)
		return nil, err
	}

	if user.TwoFactorEnabled {
		token, _, err := s.tokens.IssueChallenge(user)
		if err != nil {
			return nil, err
		}
		return &LoginResponse{TwoFactorRequired: true, ChallengeToken: token}, nil
	}
	return s.completeLogin(ctx, user)
}

func (s *authService) checkCredentials(ctx context.Context, req LoginRequest) (*models.User, error) {
	tenant, err := s.tenants.FindBySlug(ctx, req.Tenant)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !tenant.Active {
		return nil, errInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, tenant.ID, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.Active || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, errInvalidCredentials
	}
	return user, nil
}

func (s *authService) completeLogin(ctx context.Context, user *models.User) (*LoginResponse, error) {
	token, claims, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record last login")
	}
	s.metrics.IncrementCounter(metrics.LoginSucceeded)

	expiresAt := claims.ExpiresAt.Time
	return &LoginResponse{AccessToken: token, ExpiresAt: &expiresAt, User: user}, nil
}

// VerifyTwoFactor completes a challenged login. A challenge is spent by a
// successful login or by maxTwoFactorAttempts wrong codes, and an accepted
// code cannot be used again inside its validity window.
func (s *authService) VerifyTwoFactor(ctx context.Context, req VerifyTwoFactorRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	claims, err := s.tokens.Parse(req.ChallengeToken, auth.PurposeChallenge)
	if err != nil {
		return nil, api.NewError(err.Error(), http.StatusUnauthorized, "UNAUTHORIZED")
	}
	if s.isRevoked(ctx, claims.ID) {
		return nil, errChallengeUsed
	}

	ctx = appctx.WithoutTenantScope(ctx)
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if user.TenantID != claims.TenantID || !user.Active || !user.TwoFactorEnabled {
		return nil, errInvalidCredentials
	}
	if !auth.ValidateTOTP(req.Code, user.TwoFactorSecret) {
		s.metrics.IncrementCounter(metrics.LoginFailed)
		return nil, s.failedCode(ctx, claims)
	}
	if s.codeReused(ctx, user.ID, req.Code) {
		s.metrics.IncrementCounter(metrics.LoginFailed)
		return nil, errInvalidCode
	}

	s.revoke(ctx, claims)
	return s.completeLogin(ctx, user)
}

// failedCode counts a wrong code against the challenge and burns the
// challenge once the limit is reached
func (s *authService) failedCode(ctx context.Context, claims *auth.Claims) error {
	n, err := s.cache.Increment(ctx, cache.TwoFactorAttemptsKey(claims.ID), s.cfg.ChallengeTTL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count two-factor attempt")
		return errInvalidCode
	}
	if n >= maxTwoFactorAttempts {
		log.Warn().Str("user_id", claims.UserID.String()).Msg("Two-factor challenge locked after repeated failures")
		s.revoke(ctx, claims)
		return errTooManyAttempts
	}
	return errInvalidCode
}

// codeReused records code as spent for the user and reports whether it
// already was
func (s *authService) codeReused(ctx context.Context, userID uuid.UUID, code string) bool {
	n, err := s.cache.Increment(ctx, cache.TOTPUsedKey(userID, code), totpReuseWindow)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record two-factor code")
		return false
	}
	return n > 1
}

func (s *authService) isRevoked(ctx context.Context, tokenID string) bool {
	revoked, err := s.cache.Exists(ctx, cache.RevokedTokenKey(tokenID))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check token deny-list")
		return false
	}
	return revoked
}

// revoke deny-lists a token for the rest of its lifetime
func (s *authService) revoke(ctx context.Context, claims *auth.Claims) {
	ttl := s.tokens.Remaining(claims)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, cache.RevokedTokenKey(claims.ID), true, ttl); err != nil {
		log.Warn().Err(err).Str("purpose", claims.Purpose).Msg("Failed to revoke token")
	}
}

// Authenticate verifies an access token and rejects revoked ones: tokens on
// the deny-list and tokens issued before their user or role was revoked.
// A cache outage fails open: the token is still verified cryptographically.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token, auth.PurposeAccess)
	if err != nil {
		return nil, api.NewError(err.Error(), http.StatusUnauthorized, "UNAUTHORIZED")
	}
	revoked, err := s.cache.Exists(ctx, cache.RevokedTokenKey(claims.ID))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check token deny-list")
		return claims, nil
	}
	if revoked || s.issuedBeforeRevocation(ctx, cache.UserRevokedKey(claims.UserID), claims) {
		return nil, errTokenRevoked
	}
	if claims.RoleID != uuid.Nil && s.issuedBeforeRevocation(ctx, cache.RoleRevokedKey(claims.RoleID), claims) {
		return nil, errTokenRevoked
	}
	return claims, nil
}

func (s *authService) issuedBeforeRevocation(ctx context.Context, key string, claims *auth.Claims) bool {
	var revokedAt int64
	if err := s.cache.Get(ctx, key, &revokedAt); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to check token revocation")
		}
		return false
	}
	return claims.IssuedAt != nil && claims.IssuedAt.Unix() <= revokedAt
}

// revokeTokens rejects every token issued up to now under key, which is a
// cache.UserRevokedKey or cache.RoleRevokedKey. Tokens issued in the same
// second as the revocation are rejected too.
func revokeTokens(ctx context.Context, c cache.Cache, key string, ttl time.Duration, now time.Time) {
	if err := c.Set(ctx, key, now.Unix(), ttl); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to revoke tokens")
	}
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	ttl := s.tokens.Remaining(claims)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, cache.RevokedTokenKey(claims.ID), true, ttl); err != nil {
		return api.NewError("failed to revoke token", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
	}
	return nil
}

func (s *authService) currentUser(ctx context.Context) (*models.User, error) {
	user, err := s.users.FindByID(ctx, appctx.UserID(ctx))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *authService) Me(ctx context.Context) (*models.User, error) {
	return s.currentUser(ctx)
}

func (s *authService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return api.NewValidationError("current password is incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	revokeTokens(ctx, s.cache, cache.UserRevokedKey(user.ID), s.cfg.AccessTokenTTL, s.now())
	return nil
}

func (s *authService) SetupTwoFactor(ctx context.Context) (*auth.TOTPKey, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, api.NewConflictError("two-factor authentication is already enabled")
	}
	key, err := auth.GenerateTOTP(s.cfg.TOTPIssuer, user.Username)
	if err != nil {
		return nil, err
	}
	user.TwoFactorPendingSecret = key.Secret
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *authService) EnableTwoFactor(ctx context.Context, req CodeRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if user.TwoFactorPendingSecret == "" {
		return api.NewValidationError("two-factor setup has not been started")
	}
	if !auth.ValidateTOTP(req.Code, user.TwoFactorPendingSecret) {
		return api.NewValidationError("invalid two-factor code")
	}
	user.TwoFactorSecret = user.TwoFactorPendingSecret
	user.TwoFactorPendingSecret = ""
	user.TwoFactorEnabled = true
	return s.users.Update(ctx, user)
}

func (s *authService) DisableTwoFactor(ctx context.Context, req CodeRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return api.NewValidationError("two-factor authentication is not enabled")
	}
	if !auth.ValidateTOTP(req.Code, user.TwoFactorSecret) {
		return api.NewValidationError("invalid two-factor code")
	}
	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	return s.users.Update(ctx, user)
}
