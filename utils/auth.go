package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Collections used by the identity provider
const (
	collectionCredentials = "credentials"
	collectionEmailIndex  = "credential_emails"
	collectionResets      = "password_resets"
)

// Authentication failures surfaced to handlers
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("weak password")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthClaims represents JWT claims
type AuthClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Session represents an authenticated session
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionEvent notifies listeners of a session lifecycle change
type SessionEvent struct {
	Session  *Session
	SignedIn bool
}

// SessionProvider exposes the current-session surface consumed by
// request handling: look up the session behind a token, and observe
// sign-in/sign-out transitions
type SessionProvider interface {
	Current(token string) (*Session, bool)
	Subscribe(fn func(SessionEvent)) (unsubscribe func())
}

// AuthManager handles registration, sign-in and session lifecycle.
// Credentials live in the document store; sessions are process state.
type AuthManager struct {
	jwtSecret   string
	store       DocumentStore
	tokenExpiry time.Duration
	rateLimiter *RateLimiter
	mailer      *EmailSender

	mu           sync.RWMutex
	sessions     map[string]*Session // keyed by token
	listeners    map[int]func(SessionEvent)
	nextListener int
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(store DocumentStore, jwtSecret string, tokenExpiry time.Duration, rateLimit int) *AuthManager {
	return &AuthManager{
		jwtSecret:   jwtSecret,
		store:       store,
		tokenExpiry: tokenExpiry,
		rateLimiter: NewRateLimiter(time.Minute, rateLimit),
		sessions:    make(map[string]*Session),
		listeners:   make(map[int]func(SessionEvent)),
	}
}

// SetMailer configures outgoing mail for password resets
func (am *AuthManager) SetMailer(mailer *EmailSender) {
	am.mailer = mailer
}

// HashPassword hashes a password using SHA-256
func HashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

// VerifyPassword verifies a password against a hash
func VerifyPassword(password, hash string) bool {
	return HashPassword(password) == hash
}

// passwordSpecials is the accepted special-character set
const passwordSpecials = "@$!%*?&"

// ValidatePassword enforces the registration password policy: at least
// 6 characters drawn from letters, digits and @$!%*?&, with at least
// one lowercase letter, one uppercase letter, one digit and one special
// character
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		default:
			return ErrWeakPassword
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

// normalizeEmail canonicalizes an email address for use as an index key
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user credential and returns the user id
func (am *AuthManager) Register(ctx context.Context, email, password string) (string, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("invalid email address: %w", err)
	}
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	key := normalizeEmail(email)
	if _, err := am.store.GetDocument(ctx, collectionEmailIndex, key); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("failed to check email: %w", err)
	}

	userID := uuid.NewString()
	credential := map[string]any{
		"email":        email,
		"passwordHash": HashPassword(password),
		"createdAt":    time.Now().UTC().Format(time.RFC3339),
	}

	if err := am.store.SetDocument(ctx, collectionCredentials, userID, credential); err != nil {
		return "", fmt.Errorf("failed to store credential: %w", err)
	}
	if err := am.store.SetDocument(ctx, collectionEmailIndex, key, map[string]any{"userId": userID}); err != nil {
		return "", fmt.Errorf("failed to index email: %w", err)
	}

	return userID, nil
}

// lookupByEmail resolves an email to (userID, credential record)
func (am *AuthManager) lookupByEmail(ctx context.Context, email string) (string, map[string]any, error) {
	index, err := am.store.GetDocument(ctx, collectionEmailIndex, normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}

	userID, _ := index["userId"].(string)
	credential, err := am.store.GetDocument(ctx, collectionCredentials, userID)
	if err != nil {
		return "", nil, err
	}
	return userID, credential, nil
}

// SignIn authenticates a user and opens a session
func (am *AuthManager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	userID, credential, err := am.lookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hash, _ := credential["passwordHash"].(string)
	if !VerifyPassword(password, hash) {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(am.tokenExpiry)
	claims := AuthClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "moneypulse",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(am.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	session := &Session{
		Token:     signed,
		UserID:    userID,
		Email:     email,
		ExpiresAt: expiresAt,
	}

	am.mu.Lock()
	am.sessions[signed] = session
	listeners := am.snapshotListeners()
	am.mu.Unlock()

	for _, fn := range listeners {
		fn(SessionEvent{Session: session, SignedIn: true})
	}

	return session, nil
}

// SignOut invalidates a session; unknown tokens are ignored
func (am *AuthManager) SignOut(token string) {
	am.mu.Lock()
	session, ok := am.sessions[token]
	if ok {
		delete(am.sessions, token)
	}
	listeners := am.snapshotListeners()
	am.mu.Unlock()

	if ok {
		for _, fn := range listeners {
			fn(SessionEvent{Session: session, SignedIn: false})
		}
	}
}

// Current returns the live session behind a token, if any
func (am *AuthManager) Current(token string) (*Session, bool) {
	am.mu.RLock()
	session, ok := am.sessions[token]
	am.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(session.ExpiresAt) {
		am.SignOut(token)
		return nil, false
	}
	return session, true
}

// Subscribe registers a session lifecycle listener and returns its
// unsubscribe function
func (am *AuthManager) Subscribe(fn func(SessionEvent)) func() {
	am.mu.Lock()
	id := am.nextListener
	am.nextListener++
	am.listeners[id] = fn
	am.mu.Unlock()

	return func() {
		am.mu.Lock()
		delete(am.listeners, id)
		am.mu.Unlock()
	}
}

// snapshotListeners copies the listener set; callers must hold am.mu
func (am *AuthManager) snapshotListeners() []func(SessionEvent) {
	listeners := make([]func(SessionEvent), 0, len(am.listeners))
	for _, fn := range am.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

// ValidateToken verifies a JWT and returns the live session. A valid
// token whose session was signed out is rejected.
func (am *AuthManager) ValidateToken(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(am.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if _, ok := token.Claims.(*AuthClaims); !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	session, ok := am.Current(tokenString)
	if !ok {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// SendPasswordReset issues a reset token for the account behind email.
// Unknown addresses are silently accepted so the endpoint does not leak
// which emails are registered.
func (am *AuthManager) SendPasswordReset(ctx context.Context, email string) error {
	userID, _, err := am.lookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	resetToken := uuid.NewString()
	record := map[string]any{
		"userId":    userID,
		"expiresAt": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}
	if err := am.store.SetDocument(ctx, collectionResets, resetToken, record); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	body := fmt.Sprintf("A password reset was requested for your account.\n\nReset token: %s\n\nThe token expires in one hour.", resetToken)
	if am.mailer != nil {
		if err := am.mailer.Send([]string{email}, "Password reset", body); err != nil {
			GetLogger().Error("Failed to send password reset email", err, Component("auth"))
		}
	} else {
		GetLogger().Info("Password reset requested", String("email", email), Component("auth"))
	}

	return nil
}

// CompletePasswordReset consumes a reset token and sets a new password
func (am *AuthManager) CompletePasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	record, err := am.store.GetDocument(ctx, collectionResets, resetToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	expiresAt, _ := record["expiresAt"].(string)
	if t, err := time.Parse(time.RFC3339, expiresAt); err != nil || time.Now().After(t) {
		return ErrSessionExpired
	}

	userID, _ := record["userId"].(string)
	credential, err := am.store.GetDocument(ctx, collectionCredentials, userID)
	if err != nil {
		return err
	}

	credential["passwordHash"] = HashPassword(newPassword)
	if err := am.store.SetDocument(ctx, collectionCredentials, userID, credential); err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	return am.store.DeleteDocument(ctx, collectionResets, resetToken)
}

// UpdateEmail changes the sign-in email for a user
func (am *AuthManager) UpdateEmail(ctx context.Context, userID, newEmail string) error {
	if _, err := mail.ParseAddress(newEmail); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}

	key := normalizeEmail(newEmail)
	if index, err := am.store.GetDocument(ctx, collectionEmailIndex, key); err == nil {
		if owner, _ := index["userId"].(string); owner != userID {
			return ErrEmailTaken
		}
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	credential, err := am.store.GetDocument(ctx, collectionCredentials, userID)
	if err != nil {
		return err
	}

	oldEmail, _ := credential["email"].(string)
	credential["email"] = newEmail
	if err := am.store.SetDocument(ctx, collectionCredentials, userID, credential); err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if err := am.store.SetDocument(ctx, collectionEmailIndex, key, map[string]any{"userId": userID}); err != nil {
		return fmt.Errorf("failed to index email: %w", err)
	}
	if oldEmail != "" {
		if err := am.store.DeleteDocument(ctx, collectionEmailIndex, normalizeEmail(oldEmail)); err != nil {
			return err
		}
	}

	return nil
}

// SweepExpiredSessions drops sessions past their expiry and returns the
// number removed
func (am *AuthManager) SweepExpiredSessions() int {
	now := time.Now()

	am.mu.Lock()
	defer am.mu.Unlock()

	removed := 0
	for token, session := range am.sessions {
		if now.After(session.ExpiresAt) {
			delete(am.sessions, token)
			removed++
		}
	}
	return removed
}

// RateLimiter implements sliding-window rate limiting per client key
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	window   time.Duration
	limit    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
	}
}

// IsAllowed checks if a request is allowed
func (rl *RateLimiter) IsAllowed(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if requests, exists := rl.requests[key]; exists {
		var valid []time.Time
		for _, reqTime := range requests {
			if now.Sub(reqTime) < rl.window {
				valid = append(valid, reqTime)
			}
		}
		rl.requests[key] = valid
	}

	if len(rl.requests[key]) >= rl.limit {
		return false
	}

	rl.requests[key] = append(rl.requests[key], now)
	return true
}

type contextKey string

const sessionContextKey contextKey = "session"

// AuthMiddleware requires a valid bearer token and injects the session
// into the request context
func (am *AuthManager) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !am.rateLimiter.IsAllowed(getClientIP(r)) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		session, err := am.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionFromContext gets the session from request context
func GetSessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok
}

// getClientIP gets the client IP address
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if strings.Contains(ip, ":") {
		ip, _, _ = strings.Cut(ip, ":")
	}
	return ip
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
