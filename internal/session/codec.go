// Package session seals and unseals the stateless session token. The token is
// an HS256-signed JWT wrapped in an XChaCha20-Poly1305 envelope, so the
// client holds an opaque blob that is both tamper-evident and unreadable. The
// token IS the session; nothing is stored server-side.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
)

// ErrNoSession is returned for every unseal failure: wrong secret, expired
// token, structural garbage. Callers must not learn which; all three mean
// "no authenticated identity".
var ErrNoSession = errors.New("no authenticated session")

// Distinct HKDF labels keep the encryption and signing keys independent even
// though both derive from the one sealing secret.
const (
	encKeyLabel  = "mediadrop/session/encrypt"
	signKeyLabel = "mediadrop/session/sign"
)

// Codec seals SessionUser values into opaque tokens and back.
// Safe for concurrent use.
type Codec struct {
	encKey  []byte
	signKey []byte
	ttl     time.Duration
}

type sessionClaims struct {
	User domain.SessionUser `json:"user"`
	jwt.RegisteredClaims
}

// NewCodec derives the sealing keys from secret. The minimum-length check is
// a startup invariant; callers are expected to treat a failure here as fatal.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if len(secret) < config.MinSecretLength {
		return nil, domain.NewConfigError("session secret must be at least %d characters long", config.MinSecretLength)
	}
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}

	encKey, err := deriveKey(secret, encKeyLabel)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	signKey, err := deriveKey(secret, signKeyLabel)
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}

	return &Codec{encKey: encKey, signKey: signKey, ttl: ttl}, nil
}

// TTL returns the configured session lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Seal produces an opaque token for user, embedding the expiry. Ciphertext
// differs run to run (random nonce) but always unseals to equivalent content.
func (c *Codec) Seal(user *domain.SessionUser) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		User: *user,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("sign session claims: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.encKey)
	if err != nil {
		return "", fmt.Errorf("init session cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate session nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(signed), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unseal decrypts and verifies token. Every failure collapses to ErrNoSession;
// a partial identity is never returned.
func (c *Codec) Unseal(token string) (*domain.SessionUser, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrNoSession
	}

	aead, err := chacha20poly1305.NewX(c.encKey)
	if err != nil {
		return nil, ErrNoSession
	}
	if len(raw) < aead.NonceSize() {
		return nil, ErrNoSession
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	signed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrNoSession
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(string(signed), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signKey, nil
	})
	if err != nil || !parsed.Valid || claims.User.ID == "" {
		return nil, ErrNoSession
	}

	user := claims.User
	return &user, nil
}

func deriveKey(secret, label string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(label))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
