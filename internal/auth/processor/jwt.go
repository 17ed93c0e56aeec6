package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referral-server/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidJWTToken = errors.New("invalid jwt token")
	ErrParseJWTToken   = errors.New("failed to parse jwt token")
	ErrExpiredToken    = errors.New("token expired")
	ErrMissingAccount  = errors.New("token has no account")
	ErrFailedSignToken = errors.New("failed to sign token")
)

const issuer = "referral-server"

// AuthConfig holds the signing material for access tokens
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// AuthProcessor issues and validates operator access tokens
type AuthProcessor struct {
	config AuthConfig
	logger *observability.Logger
}

// New creates a new AuthProcessor
func New(config AuthConfig, logger *observability.Logger) AuthProcessor {
	if config.TokenTTL == 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return AuthProcessor{config: config, logger: logger}
}

// BaseClaims are the claims carried by every access token
type BaseClaims struct {
	ExpirationTime *jwt.NumericDate `json:"exp"`
	IssuedAt       *jwt.NumericDate `json:"iat"`
	NotBefore      *jwt.NumericDate `json:"nbf"`
	Issuer         string           `json:"iss"`
	Subject        string           `json:"sub"`
	Audience       jwt.ClaimStrings `json:"aud"`
	AccountID      string           `json:"account_id"`
}

func (b *BaseClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return b.ExpirationTime, nil
}

func (b *BaseClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return b.IssuedAt, nil
}

func (b *BaseClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return b.NotBefore, nil
}

func (b *BaseClaims) GetIssuer() (string, error) {
	return b.Issuer, nil
}

func (b *BaseClaims) GetSubject() (string, error) {
	return b.Subject, nil
}

func (b *BaseClaims) GetAudience() (jwt.ClaimStrings, error) {
	return b.Audience, nil
}

// GenerateToken signs an HS256 token for the given operator
func (p *AuthProcessor) GenerateToken(ctx context.Context, userID, accountID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &BaseClaims{
		ExpirationTime: jwt.NewNumericDate(now.Add(p.config.TokenTTL)),
		IssuedAt:       jwt.NewNumericDate(now),
		Issuer:         issuer,
		Subject:        userID.String(),
		Audience:       jwt.ClaimStrings{issuer},
		AccountID:      accountID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(p.config.JWTSecret))
	if err != nil {
		p.logger.Error(ctx, "failed to sign token", err)
		return "", ErrFailedSignToken
	}
	return tokenString, nil
}

// ValidateJWTToken parses token and checks its signature, expiry and account claim
func (p *AuthProcessor) ValidateJWTToken(ctx context.Context, token string) (BaseClaims, error) {
	var baseClaims BaseClaims
	t, err := jwt.ParseWithClaims(token, &baseClaims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			p.logger.InfoWithError(ctx, "token expired", err)
			return BaseClaims{}, ErrExpiredToken
		}

		p.logger.InfoWithError(ctx, "failed to parse token", err)
		return BaseClaims{}, ErrParseJWTToken
	}
	if !t.Valid {
		return BaseClaims{}, ErrInvalidJWTToken
	}

	claims, ok := t.Claims.(*BaseClaims)
	if !ok {
		return BaseClaims{}, ErrParseJWTToken
	}
	if claims.AccountID == "" {
		return BaseClaims{}, ErrMissingAccount
	}

	return *claims, nil
}
