// Package auth guards the admin-only operations: password login issuing a
// signed bearer token, token verification, and logout via a revocation set.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aTrapDeer/portfolio-backend/internal/metrics"
)

const AdminRole = "admin"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordRequired   = errors.New("password is required")
)

// RateLimitedError is returned by Login while the client is locked out.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

type Config struct {
	PasswordHash []byte
	Secret       []byte
	TokenTTL     time.Duration
	FailureDelay time.Duration
	MaxAttempts  int
	Window       time.Duration
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Gate struct {
	cfg      Config
	revoked  Revocations
	attempts *AttemptLimiter
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
	compare  func(hash, password []byte) error
}

func NewGate(cfg Config, revoked Revocations) (*Gate, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if _, err := bcrypt.Cost(cfg.PasswordHash); err != nil {
		return nil, fmt.Errorf("auth: admin password hash: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	g := &Gate{
		cfg:     cfg,
		revoked: revoked,
		now:     time.Now,
		sleep:   sleepContext,
		compare: bcrypt.CompareHashAndPassword,
	}
	g.attempts = NewAttemptLimiter(cfg.MaxAttempts, cfg.Window, func() time.Time { return g.now() })
	return g, nil
}

// HashPassword returns the bcrypt hash stored in ADMIN_PASSWORD_HASH.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Login checks password for client and issues a token. Failures are delayed
// by FailureDelay so a wrong password answers no faster than a right one.
func (g *Gate) Login(ctx context.Context, client, password string) (string, time.Time, error) {
	attempt, retry, ok := g.attempts.Reserve(client)
	if !ok {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		return "", time.Time{}, &RateLimitedError{RetryAfter: retry}
	}
	if password == "" {
		metrics.LoginAttempts.WithLabelValues("missing_password").Inc()
		return "", time.Time{}, ErrPasswordRequired
	}

	if err := g.compare(g.cfg.PasswordHash, []byte(password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		_ = g.sleep(ctx, g.cfg.FailureDelay)
		return "", time.Time{}, ErrInvalidCredentials
	}
	g.attempts.Release(client, attempt)

	now := g.now()
	expires := now.Add(g.cfg.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminRole,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(g.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return signed, expires, nil
}

// Verify accepts only unrevoked, unexpired admin tokens signed with our secret.
func (g *Gate) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrUnauthorized
	}
	revoked, err := g.revoked.IsRevoked(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Role != AdminRole {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Logout revokes tokenString for the rest of its lifetime.
func (g *Gate) Logout(ctx context.Context, tokenString string) error {
	claims, err := g.Verify(ctx, tokenString)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(g.now())
	if err := g.revoked.Revoke(ctx, tokenString, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
