package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	jwt "github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2/google"
)

// Signer produces V4 signatures for GCS signed URLs.
type Signer interface {
	Email() string
	SignBytes(ctx context.Context, payload []byte) ([]byte, error)
}

// ServiceAccountSigner signs with a service account's private key held in memory.
type ServiceAccountSigner struct {
	email string
	keyID string
	key   *rsa.PrivateKey
}

var _ Signer = (*ServiceAccountSigner)(nil)

// NewSignerFromKey accepts the service account JSON inline (as resolved from Secret Manager) or
// a path to the key file.
func NewSignerFromKey(key string) (*ServiceAccountSigner, error) {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return nil, errors.New("storage: signer key is empty")
	case strings.HasPrefix(key, "{"):
		return NewServiceAccountSignerFromJSON([]byte(key))
	}
	contents, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("storage: read signer key file: %w", err)
	}
	return NewServiceAccountSignerFromJSON(contents)
}

// NewServiceAccountSignerFromJSON parses a downloaded service account key.
func NewServiceAccountSignerFromJSON(data []byte) (*ServiceAccountSigner, error) {
	cfg, err := google.JWTConfigFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("storage: parse service account key: %w", err)
	}
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, errors.New("storage: service account key has no client_email")
	}
	rsaKey, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("storage: parse service account private key: %w", err)
	}
	return &ServiceAccountSigner{email: cfg.Email, keyID: cfg.PrivateKeyID, key: rsaKey}, nil
}

// Email is the GoogleAccessID embedded in signed URLs.
func (s *ServiceAccountSigner) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// KeyID identifies the key for rotation audits.
func (s *ServiceAccountSigner) KeyID() string {
	if s == nil {
		return ""
	}
	return s.keyID
}

// SignBytes returns the RSASSA-PKCS1-v1_5 SHA-256 signature of payload.
func (s *ServiceAccountSigner) SignBytes(ctx context.Context, payload []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, errors.New("storage: signer not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("storage: sign payload: %w", err)
	}
	return sig, nil
}
