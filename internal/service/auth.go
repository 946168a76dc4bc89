package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignupBonus is the credit grant for every new account.
const SignupBonus = 20

const (
	minPasswordLen = 8
	tokenTTL       = 7 * 24 * time.Hour
	loginLinkTTL   = 15 * time.Minute
)

// AuthService handles signup, login, magic links, and JWT token operations.
type AuthService struct {
	users      domain.UserRepository
	ledger     domain.LedgerRepository
	tokens     domain.LoginTokenRepository
	jwtSecret  []byte
	bcryptCost int
	baseURL    string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, ledger domain.LedgerRepository, tokens domain.LoginTokenRepository, jwtSecret, baseURL string, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		ledger:     ledger,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Signup creates a new account with the signup bonus and returns the user
// plus a signed session token.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, "", fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	balance, err := s.ledger.Credit(ctx, user.ID, SignupBonus, domain.ReasonSignupBonus)
	if err != nil {
		return nil, "", fmt.Errorf("grant signup bonus: %w", err)
	}
	user.Credits = balance

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the user plus a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	// Demo and magic-link accounts have no password hash.
	if user.PasswordHash == "" {
		return nil, "", fmt.Errorf("%w: account has no password set", domain.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrUnauthorized
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return user, token, nil
}

// DemoSignup finds or creates a passwordless account for the marketing-site
// demo flow and returns it with a session token. New accounts receive the
// signup bonus.
func (s *AuthService) DemoSignup(ctx context.Context, name, email string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		name = strings.TrimSpace(name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &domain.User{Name: name, Email: email}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", err
		}
		balance, err := s.ledger.Credit(ctx, user.ID, SignupBonus, domain.ReasonSignupBonus)
		if err != nil {
			return nil, "", fmt.Errorf("grant signup bonus: %w", err)
		}
		user.Credits = balance
	} else if err != nil {
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return user, token, nil
}

// RequestLoginLink creates a single-use magic-link token for the account and
// returns the verification URL. Unknown emails fail with ErrNotFound; the
// handler hides that from the caller.
func (s *AuthService) RequestLoginLink(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := &domain.LoginToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(loginLinkTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("create login token: %w", err)
	}

	return s.baseURL + "/api/auth/verify?token=" + token.Token, nil
}

// VerifyLoginToken consumes a magic-link token. Valid tokens are deleted and
// exchanged for a session; missing or expired tokens fail with
// ErrUnauthorized (expired ones are also deleted).
func (s *AuthService) VerifyLoginToken(ctx context.Context, token string) (*domain.User, string, error) {
	if token == "" {
		return nil, "", fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}

	record, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", fmt.Errorf("get login token: %w", err)
	}

	if time.Now().UTC().After(record.ExpiresAt) {
		if err := s.tokens.Delete(ctx, token); err != nil {
			slog.Error("delete expired login token", "error", err)
		}
		return nil, "", domain.ErrUnauthorized
	}

	// Single use: consume before issuing the session.
	if err := s.tokens.Delete(ctx, token); err != nil {
		return nil, "", fmt.Errorf("consume login token: %w", err)
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	jwtToken, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return user, jwtToken, nil
}

// ValidateToken parses and validates a JWT token string.
// Returns the user ID from the sub claim.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	return userID, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
