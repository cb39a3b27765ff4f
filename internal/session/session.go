// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/logger"
)

var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	ErrSessionRevoked          = errors.New("session has been signed out")
	customLog                  = logger.NewLogger()
)

const (
	issuer      = "taxacurator"
	adminsTable = "admins"
)

// Session is the authenticated curator a request or workflow acts for.
// It is passed explicitly to every operation that needs an actor.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"token"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ActorDisplay is the display name, falling back to the email.
func (s *Session) ActorDisplay() string {
	if s == nil {
		return ""
	}
	if strings.TrimSpace(s.DisplayName) != "" {
		return s.DisplayName
	}
	return s.Email
}

// ActorID returns the user id, or "" for a nil session.
func (s *Session) ActorID() string {
	if s == nil {
		return ""
	}
	return s.UserID
}

// Claims is the JWT payload of a session token.
type Claims struct {
	UserID      string `json:"userID"`
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Manager acquires, refreshes and clears sessions.
type Manager struct {
	gw     gateway.Gateway
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewManager creates a Manager signing HS256 tokens with secret.
func NewManager(gw gateway.Gateway, secret string, ttl time.Duration) *Manager {
	return &Manager{
		gw:      gw,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Login verifies credentials against the admins table and acquires a session.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	admin, err := m.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gateway.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, admin.PasswordHash) {
		customLog.Warnf("Login failed for %s: password mismatch", email)
		return nil, ErrInvalidCredentials
	}
	return m.issue(admin.ID, admin.Email, admin.DisplayName)
}

// Validate parses a token and returns its session unless it was cleared.
func (m *Manager) Validate(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			customLog.Warnf("Validate: Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		customLog.Warnf("Validate: Token parsing error: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return nil, err
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrTokenClaimsInvalid
	}
	if m.isRevoked(claims.ID) {
		return nil, ErrSessionRevoked
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return &Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Token:       tokenString,
		TokenID:     claims.ID,
		ExpiresAt:   expires,
	}, nil
}

// Refresh issues a new token for s and clears the old one.
func (m *Manager) Refresh(ctx context.Context, s *Session) (*Session, error) {
	if s == nil {
		return nil, ErrUnauthorized
	}
	admin, err := m.FindAdminByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, gateway.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	next, err := m.issue(admin.ID, admin.Email, admin.DisplayName)
	if err != nil {
		return nil, err
	}
	m.Clear(s)
	return next, nil
}

// Clear signs the session out. Later validation of its token fails.
func (m *Manager) Clear(s *Session) {
	if s == nil || s.TokenID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.revoked {
		if exp.Before(now) {
			delete(m.revoked, id)
		}
	}
	exp := s.ExpiresAt
	if exp.IsZero() {
		exp = now.Add(m.ttl)
	}
	m.revoked[s.TokenID] = exp
}

func (m *Manager) isRevoked(tokenID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok
}

func (m *Manager) issue(userID, email, display string) (*Session, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	tokenID := uuid.NewString()
	claims := Claims{
		UserID:      userID,
		Email:       email,
		DisplayName: display,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		customLog.Warnf("Error signing JWT for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to generate token")
	}
	return &Session{
		UserID:      userID,
		Email:       email,
		DisplayName: display,
		Token:       signed,
		TokenID:     tokenID,
		ExpiresAt:   expires,
	}, nil
}

// --- Admin accounts ---

// FindAdminByEmail loads an account by email (case-insensitive).
func (m *Manager) FindAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return m.findAdmin(ctx, gateway.Eq("email", strings.ToLower(strings.TrimSpace(email))))
}

// FindAdminByID loads an account by id.
func (m *Manager) FindAdminByID(ctx context.Context, id string) (*domain.Admin, error) {
	return m.findAdmin(ctx, gateway.Eq("id", id))
}

func (m *Manager) findAdmin(ctx context.Context, filter gateway.Filter) (*domain.Admin, error) {
	res, err := m.gw.Select(ctx, gateway.Query{
		Table:  adminsTable,
		Select: "id,email,display_name,password_hash,created_at",
		Eq:     []gateway.Filter{filter},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(res.Rows) == 0 {
		return nil, gateway.ErrRecordNotFound
	}
	row := res.Rows[0]
	created, _ := time.Parse(time.RFC3339, row.String("created_at"))
	return &domain.Admin{
		ID:           row.String("id"),
		Email:        row.String("email"),
		DisplayName:  row.String("display_name"),
		PasswordHash: row.String("password_hash"),
		CreatedAt:    created,
	}, nil
}

// EnsureAdmin creates the account when no account with email exists.
func (m *Manager) EnsureAdmin(ctx context.Context, email, password, display string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := m.FindAdminByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gateway.ErrRecordNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = m.gw.Insert(ctx, adminsTable, domain.Record{
		"id":            uuid.NewString(),
		"email":         email,
		"display_name":  display,
		"password_hash": hash,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	customLog.Printf("Seeded admin account %s", email)
	return nil
}

// --- Password Utilities ---

// HashPassword generates a bcrypt hash for the given password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		customLog.Warnf("Error generating bcrypt hash: %v", err)
		return "", fmt.Errorf("failed to hash password")
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		customLog.Warnf("Unexpected error comparing password hash: %v", err)
	}
	return err == nil
}
