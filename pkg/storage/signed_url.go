package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or forged download tokens.
	ErrTokenInvalid = errors.New("invalid download token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// Grant is what a verified download token authorises.
type Grant struct {
	ApplicationID string
	Path          string
	ExpiresAt     time.Time
}

// SignedURLSigner creates and validates expiring HMAC-SHA256 download tokens.
// A token is base64url(payload) "." base64url(mac), with payload "id\nexpiry\npath".
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token granting access to relPath of one application until the TTL elapses.
func (s *SignedURLSigner) Generate(applicationID, relPath string) (string, time.Time, error) {
	if applicationID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("application id and path required")
	}
	if strings.ContainsRune(applicationID, '\n') {
		return "", time.Time{}, fmt.Errorf("application id contains a newline")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := applicationID + "\n" + strconv.FormatInt(expiresAt.Unix(), 10) + "\n" + relPath
	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(s.mac([]byte(payload)))
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (Grant, error) {
	encodedPayload, encodedSig, ok := strings.Cut(token, ".")
	if !ok || len(s.secret) == 0 {
		return Grant{}, ErrTokenInvalid
	}
	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return Grant{}, ErrTokenInvalid
	}
	sig, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil || !hmac.Equal(sig, s.mac(payload)) {
		return Grant{}, ErrTokenInvalid
	}

	parts := strings.SplitN(string(payload), "\n", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Grant{}, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Grant{}, ErrTokenInvalid
	}
	grant := Grant{ApplicationID: parts[0], Path: parts[2], ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(grant.ExpiresAt) {
		return grant, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) mac(payload []byte) []byte {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write(payload)
	return m.Sum(nil)
}
