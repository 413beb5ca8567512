package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	issuer    = "rafflego"
)

type Config struct {
	Secret       string
	TTL          time.Duration
	Username     string
	PasswordHash string
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates the single configured administrator and issues
// HS256 bearer tokens for the admin API.
type Service struct {
	secret   []byte
	ttl      time.Duration
	username string
	hash     []byte
	now      func() time.Time
}

func New(cfg Config) (*Service, error) {
	const op = "service.auth.New"

	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("%s: jwt secret must be at least 16 bytes", op)
	}

	if cfg.Username == "" {
		return nil, fmt.Errorf("%s: admin username is required", op)
	}

	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return nil, fmt.Errorf("%s: admin password hash: %w", op, err)
	}

	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}

	return &Service{
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TTL,
		username: cfg.Username,
		hash:     []byte(cfg.PasswordHash),
		now:      time.Now,
	}, nil
}

// HashPassword returns the bcrypt hash accepted as Config.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login checks the admin credentials and issues a token.
//
// Returns:
//   - string: the signed token.
//   - time.Time: when the token expires.
//   - error: auth.ErrInvalidCredentials for a wrong username or password.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	const op = "service.auth.Login"

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.hash, []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	now := s.now()
	exp := now.Add(s.ttl)

	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s:%w", op, err)
	}

	return signed, exp, nil
}

// Verify parses a bearer token and returns its claims when it is a valid,
// unexpired admin token signed with HS256.
func (s *Service) Verify(token string) (*Claims, error) {
	const op = "service.auth.Verify"

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: token expired:%w", op, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %v:%w", op, err, ErrUnauthorized)
	}

	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("%s: role %q:%w", op, claims.Role, ErrUnauthorized)
	}

	return claims, nil
}
