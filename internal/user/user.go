// Package user provides account storage and JWT-based authentication.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("user not found")
	// ErrBadCredentials covers a wrong password.
	ErrBadCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, expired, or mis-signed JWTs.
	ErrInvalidToken = errors.New("invalid token")
)

const bcryptCost = 10

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	password  string
	Phone     string    `json:"phone"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckPassword compares a candidate against the stored bcrypt hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.password), []byte(candidate)) == nil
}

// Claims is the JWT payload for API access tokens.
type Claims struct {
	UserID  int    `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// Service handles registration, login, and token verification.
type Service struct {
	pool       *pgxpool.Pool
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

func NewService(pool *pgxpool.Pool, secret string, expiration time.Duration) *Service {
	return &Service{
		pool:       pool,
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password, phone string, isAdmin bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Name: name, Email: email, Phone: phone, IsAdmin: isAdmin}
	err = s.pool.QueryRow(ctx, "insert_user", name, email, string(hash), phone, isAdmin).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account plus a signed
// access token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if !u.CheckPassword(password) {
		return nil, "", ErrBadCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// VerifyToken parses and validates an access token.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ByID fetches an account by id.
func (s *Service) ByID(ctx context.Context, id int) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, "user_by_id", id))
}

func (s *Service) byEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, "user_by_email", email))
}

func (s *Service) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.password, &u.Phone, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  u.ID,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func isUniqueViolation(err error) bool {
	// 23505 is Postgres unique_violation.
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
