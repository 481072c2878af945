package devserver

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// revocation checks
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type claims struct {
	TokenType string `json:"typ"`
	jwtlib.RegisteredClaims
}

// Tokens issues and checks HS256 access and refresh tokens. Refresh tokens
// are tracked by jti so logout can revoke them.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time

	mu     sync.Mutex
	active map[string]time.Time
}

// NewTokens creates a token issuer. Empty secrets are replaced by random ones.
func NewTokens(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *Tokens {
	if accessSecret == "" {
		accessSecret = uuid.NewString()
	}
	if refreshSecret == "" {
		refreshSecret = uuid.NewString()
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           now,
		active:        make(map[string]time.Time),
	}
}

// RefreshTTL is the lifetime of refresh tokens and their cookie
func (t *Tokens) RefreshTTL() time.Duration {
	return t.refreshTTL
}

// IssueAccess signs a short-lived bearer token for userID
func (t *Tokens) IssueAccess(userID int) (string, error) {
	token, _, err := t.sign(userID, tokenTypeAccess, t.accessTTL, t.accessSecret)
	return token, err
}

// IssueRefresh signs a refresh token for userID and marks it active
func (t *Tokens) IssueRefresh(userID int) (string, error) {
	token, c, err := t.sign(userID, tokenTypeRefresh, t.refreshTTL, t.refreshSecret)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.active[c.ID] = c.ExpiresAt.Time
	t.mu.Unlock()

	return token, nil
}

// ParseAccess returns the user id in a valid access token
func (t *Tokens) ParseAccess(token string) (int, error) {
	c, err := t.parse(token, tokenTypeAccess, t.accessSecret)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(c.Subject)
}

// ParseRefresh returns the user id in a valid, unrevoked refresh token
func (t *Tokens) ParseRefresh(token string) (int, error) {
	c, err := t.parse(token, tokenTypeRefresh, t.refreshSecret)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	_, ok := t.active[c.ID]
	t.mu.Unlock()
	if !ok {
		return 0, ErrInvalidToken
	}

	return strconv.Atoi(c.Subject)
}

// Revoke deactivates a refresh token. Unparseable tokens are ignored.
func (t *Tokens) Revoke(token string) {
	c, err := t.parse(token, tokenTypeRefresh, t.refreshSecret)
	if err != nil {
		return
	}

	t.mu.Lock()
	delete(t.active, c.ID)
	for id, exp := range t.active {
		if t.now().After(exp) {
			delete(t.active, id)
		}
	}
	t.mu.Unlock()
}

func (t *Tokens) sign(userID int, tokenType string, ttl time.Duration, secret []byte) (string, *claims, error) {
	now := t.now()
	c := &claims{
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, c, nil
}

func (t *Tokens) parse(token, tokenType string, secret []byte) (*claims, error) {
	c := &claims{}
	_, err := jwtlib.ParseWithClaims(token, c, func(*jwtlib.Token) (interface{}, error) {
		return secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(t.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || c.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return c, nil
}
