package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims are the claims of an access token. Subject is the user id,
// Role is the role at issuance time.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// RefreshClaims are the claims of a refresh token. Subject is the user id
// and ID (jti) names the refresh record.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies both token kinds. Access and refresh tokens use
// different keys so one can never be accepted as the other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
	newID         func() string
}

// NewIssuer validates the key material and lifetimes.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// NewSession creates the refresh record for a session about to be issued.
// It must be persisted before the refresh token referencing it is handed out.
func (i *Issuer) NewSession(userID string) *models.RefreshRecord {
	now := i.now()
	return &models.RefreshRecord{
		TokenID:   i.newID(),
		UserID:    userID,
		ExpiresAt: now.Add(i.refreshTTL),
		CreatedAt: now,
	}
}

// IssueAccessToken signs {sub, role} with the access key.
func (i *Issuer) IssueAccessToken(user *models.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		Role: user.Role,
	})

	s, err := token.SignedString(i.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}

// IssueRefreshToken signs {sub, jti} with the refresh key. The token expires
// together with its record.
func (i *Issuer) IssueRefreshToken(user *models.User, rec *models.RefreshRecord) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        rec.TokenID,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
	})

	s, err := token.SignedString(i.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return s, nil
}

// VerifyAccessToken checks signature, algorithm and expiry. Every failure
// is reported as common.ErrInvalidToken.
func (i *Issuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken checks signature, algorithm and expiry and requires
// both sub and jti.
func (i *Issuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) parse(tokenString string, claims jwt.Claims, key []byte) error {
	if tokenString == "" {
		return common.ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return common.ErrInvalidToken
	}
	return nil
}
