package auth

import (
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Token purposes
const (
	PurposeAccess    = "access"
	PurposeChallenge = "2fa"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongPurpose = errors.New("token not valid for this purpose")
)

// Claims are the JWT claims issued by the ERP
type Claims struct {
	UserID      uuid.UUID `json:"uid"`
	TenantID    uuid.UUID `json:"tid"`
	RoleID      uuid.UUID `json:"rid,omitempty"`
	Username    string    `json:"username"`
	Permissions []string  `json:"permissions,omitempty"`
	Purpose     string    `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens
type TokenManager struct {
	secret       []byte
	issuer       string
	accessTTL    time.Duration
	challengeTTL time.Duration
	now          func() time.Time
}

// NewTokenManager creates a token manager from auth config
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:       []byte(cfg.JWTSecret),
		issuer:       cfg.Issuer,
		accessTTL:    cfg.AccessTokenTTL,
		challengeTTL: cfg.ChallengeTTL,
		now:          time.Now,
	}
}

// IssueAccess issues an access token carrying the user's permissions
func (m *TokenManager) IssueAccess(user *models.User) (string, *Claims, error) {
	return m.issue(user, PurposeAccess, user.Permissions(), m.accessTTL)
}

// IssueChallenge issues a short-lived token that can only complete a 2FA login
func (m *TokenManager) IssueChallenge(user *models.User) (string, *Claims, error) {
	return m.issue(user, PurposeChallenge, nil, m.challengeTTL)
}

func (m *TokenManager) issue(user *models.User, purpose string, permissions []string, ttl time.Duration) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		RoleID:      user.RoleID,
		Username:    user.Username,
		Permissions: permissions,
		Purpose:     purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to sign token")
	}
	return token, claims, nil
}

// Parse verifies a token and checks it was issued for purpose
func (m *TokenManager) Parse(tokenString, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	if claims.UserID == uuid.Nil || claims.TenantID == uuid.Nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Remaining returns how long until the claims expire
func (m *TokenManager) Remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	d := claims.ExpiresAt.Time.Sub(m.now())
	if d < 0 {
		return 0
	}
	return d
}
