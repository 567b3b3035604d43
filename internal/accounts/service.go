package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

const issuer = "krishi-mitra"

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Language string `json:"language,omitempty"`
}

var registerSchema = schema.Schema{
	schema.String("name", "display name").Len(1, 0),
	schema.String("phone", "mobile number used to log in").Len(1, 0),
	// bcrypt rejects passwords longer than 72 bytes.
	schema.String("password", "6 to 72 bytes").Len(6, 72),
	schema.Enum("language", "preferred language", "en", "hi", "mr", "ta", "te", "kn", "bn", "gu", "pa").Opt(),
}

// Claims are the JWT claims of a session token.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Service registers users and issues tokens.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
}

// NewService creates a Service signing tokens with secret.
func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl}
}

// Register creates a user and returns a session token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	values := map[string]any{"name": in.Name, "phone": in.Phone, "password": in.Password}
	if in.Language != "" {
		values["language"] = in.Language
	}
	if err := schema.Validate(registerSchema, values); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}
	u := &User{
		Name:         strings.TrimSpace(in.Name),
		Phone:        normalizePhone(in.Phone),
		PasswordHash: string(hash),
		Language:     in.Language,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login checks the password and returns a fresh token.
func (s *Service) Login(ctx context.Context, phone, password string) (*User, string, error) {
	u, err := s.repo.GetByPhone(ctx, normalizePhone(phone))
	if errors.Is(err, ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// User returns the user with the given ID.
func (s *Service) User(ctx context.Context, id string) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Verify parses token and returns the user ID it was issued for.
func (s *Service) Verify(token string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) issue(u *User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func normalizePhone(p string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(p))
}
