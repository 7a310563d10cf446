package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSignatureHeader = "X-Signature"
	DefaultTimestampHeader = "X-Signature-Timestamp"
	DefaultNonceHeader     = "X-Signature-Nonce"

	defaultClockSkew  = 5 * time.Minute
	defaultNonceTTL   = 5 * time.Minute
	maxSignedBodySize = 1 << 20
)

// SecretProvider resolves shared secrets used for HMAC validation.
type SecretProvider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretProviderFunc adapts a function to the SecretProvider interface.
type SecretProviderFunc func(context.Context, string) (string, error)

// GetSecret implements SecretProvider.
func (f SecretProviderFunc) GetSecret(ctx context.Context, name string) (string, error) {
	if f == nil {
		return "", errors.New("auth: secret provider not configured")
	}
	return f(ctx, name)
}

// NonceStore records nonces for replay prevention. UseNonce reports false when the nonce was
// already seen within scope.
type NonceStore interface {
	UseNonce(ctx context.Context, scope, nonce string, expiry time.Time) (bool, error)
}

// InMemoryNonceStore keeps nonces in process memory. Replicas do not share it.
type InMemoryNonceStore struct {
	mu     sync.Mutex
	now    func() time.Time
	nonces map[string]time.Time
}

// NewInMemoryNonceStore constructs the store.
func NewInMemoryNonceStore() *InMemoryNonceStore {
	return &InMemoryNonceStore{now: time.Now, nonces: make(map[string]time.Time)}
}

// UseNonce records the nonce until expiry.
func (s *InMemoryNonceStore) UseNonce(_ context.Context, scope, nonce string, expiry time.Time) (bool, error) {
	if scope == "" || nonce == "" {
		return false, errors.New("auth: scope and nonce are required")
	}
	key := scope + "::" + nonce

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.nonces {
		if !exp.After(now) {
			delete(s.nonces, k)
		}
	}
	if _, seen := s.nonces[key]; seen {
		return false, nil
	}
	s.nonces[key] = expiry
	return true, nil
}

// HMACValidator verifies signed webhook calls, such as upload notifications from the media provider.
//
// The signed message is METHOD, path, timestamp, nonce and the hex SHA-256 of the body, joined by
// newlines. Signatures may be hex or base64 encoded.
type HMACValidator struct {
	provider SecretProvider
	nonces   NonceStore
	logger   *zap.Logger
	recorder VerificationRecorder
	now      func() time.Time

	signatureHeader string
	timestampHeader string
	nonceHeader     string
	clockSkew       time.Duration
	nonceTTL        time.Duration
}

// HMACOption customises the validator.
type HMACOption func(*HMACValidator)

// WithHMACLogger overrides the validator logger.
func WithHMACLogger(logger *zap.Logger) HMACOption {
	return func(v *HMACValidator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithHMACRecorder sets the verification recorder.
func WithHMACRecorder(recorder VerificationRecorder) HMACOption {
	return func(v *HMACValidator) { v.recorder = recorder }
}

// WithHMACClock injects a custom clock.
func WithHMACClock(now func() time.Time) HMACOption {
	return func(v *HMACValidator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithHMACHeaders overrides header names. Empty values keep the defaults.
func WithHMACHeaders(signature, timestamp, nonce string) HMACOption {
	return func(v *HMACValidator) {
		if signature = strings.TrimSpace(signature); signature != "" {
			v.signatureHeader = signature
		}
		if timestamp = strings.TrimSpace(timestamp); timestamp != "" {
			v.timestampHeader = timestamp
		}
		if nonce = strings.TrimSpace(nonce); nonce != "" {
			v.nonceHeader = nonce
		}
	}
}

// WithHMACWindow sets the accepted clock skew and the nonce retention period.
func WithHMACWindow(clockSkew, nonceTTL time.Duration) HMACOption {
	return func(v *HMACValidator) {
		if clockSkew > 0 {
			v.clockSkew = clockSkew
		}
		if nonceTTL > 0 {
			v.nonceTTL = nonceTTL
		}
	}
}

// NewHMACValidator builds a validator. A nil nonce store disables replay protection.
func NewHMACValidator(provider SecretProvider, nonces NonceStore, opts ...HMACOption) *HMACValidator {
	v := &HMACValidator{
		provider:        provider,
		nonces:          nonces,
		logger:          zap.NewNop(),
		now:             time.Now,
		signatureHeader: DefaultSignatureHeader,
		timestampHeader: DefaultTimestampHeader,
		nonceHeader:     DefaultNonceHeader,
		clockSkew:       defaultClockSkew,
		nonceTTL:        defaultNonceTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

type webhookSourceKey struct{}

// WebhookSource returns the secret name a request was verified with.
func WebhookSource(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(webhookSourceKey{}).(string)
	return name, ok && name != ""
}

// RequireHMAC verifies requests signed with the secret registered under secretName.
func (v *HMACValidator) RequireHMAC(secretName string) func(http.Handler) http.Handler {
	secretName = strings.TrimSpace(secretName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := v.now()
			fail := func(status int, code, reason, message string) {
				v.record(false, reason, start)
				respondAuthError(ctx, w, status, code, message)
			}

			if v.provider == nil || secretName == "" {
				fail(http.StatusServiceUnavailable, "verification_unavailable", "not_configured", "signature verification not configured")
				return
			}

			signature, err := decodeSignature(r.Header.Get(v.signatureHeader))
			if err != nil {
				fail(http.StatusUnauthorized, "invalid_signature", "signature_missing", "request signature missing or malformed")
				return
			}
			rawTimestamp := strings.TrimSpace(r.Header.Get(v.timestampHeader))
			timestamp, err := parseSignatureTimestamp(rawTimestamp)
			if err != nil {
				fail(http.StatusUnauthorized, "invalid_signature", "timestamp_invalid", "signature timestamp missing or malformed")
				return
			}
			if skew := v.now().Sub(timestamp); skew > v.clockSkew || skew < -v.clockSkew {
				fail(http.StatusUnauthorized, "invalid_signature", "timestamp_skew", "signature timestamp outside allowed window")
				return
			}
			nonce := strings.TrimSpace(r.Header.Get(v.nonceHeader))

			body, err := readAndRestoreBody(r)
			if err != nil {
				fail(http.StatusBadRequest, "invalid_body", "body_unreadable", "request body could not be read")
				return
			}

			secret, err := v.provider.GetSecret(ctx, secretName)
			if err != nil || secret == "" {
				v.logger.Error("auth: hmac secret unavailable", zap.String("secret", secretName), zap.Error(err))
				fail(http.StatusServiceUnavailable, "verification_unavailable", "secret_unavailable", "signature verification unavailable")
				return
			}

			expected := computeHMAC([]byte(secret), buildCanonicalString(r, body, rawTimestamp, nonce))
			if !hmac.Equal(expected, signature) {
				fail(http.StatusUnauthorized, "invalid_signature", "signature_mismatch", "request signature mismatch")
				return
			}

			if v.nonces != nil {
				if nonce == "" {
					fail(http.StatusUnauthorized, "invalid_signature", "nonce_missing", "signature nonce missing")
					return
				}
				fresh, err := v.nonces.UseNonce(ctx, secretName, nonce, v.now().Add(v.nonceTTL))
				if err != nil {
					v.logger.Error("auth: nonce store failure", zap.Error(err))
					fail(http.StatusServiceUnavailable, "verification_unavailable", "nonce_store", "signature verification unavailable")
					return
				}
				if !fresh {
					fail(http.StatusConflict, "replayed_request", "nonce_replayed", "request nonce already used")
					return
				}
			}

			v.record(true, "ok", start)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, webhookSourceKey{}, secretName)))
		})
	}
}

func (v *HMACValidator) record(success bool, reason string, start time.Time) {
	if v.recorder != nil {
		v.recorder.ObserveAuthVerification("hmac", success, reason, v.now().Sub(start))
	}
}

// Sign computes the signature headers for a request body. Used by tooling and tests that call
// signed endpoints.
func Sign(secret, method, path string, body []byte, at time.Time, nonce string) (signature, timestamp string) {
	timestamp = strconv.FormatInt(at.Unix(), 10)
	message := canonicalMessage(method, path, timestamp, nonce, body)
	return hex.EncodeToString(computeHMAC([]byte(secret), message)), timestamp
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBodySize+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > maxSignedBodySize {
		return nil, errors.New("auth: signed body too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func decodeSignature(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "sha256=")
	if value == "" {
		return nil, errors.New("auth: empty signature")
	}
	if decoded, err := hex.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

func parseSignatureTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("auth: empty timestamp")
	}
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("auth: parse timestamp: %w", err)
	}
	return ts.UTC(), nil
}

func buildCanonicalString(r *http.Request, body []byte, timestamp, nonce string) []byte {
	return canonicalMessage(r.Method, r.URL.EscapedPath(), timestamp, nonce, body)
}

func canonicalMessage(method, path, timestamp, nonce string, body []byte) []byte {
	sum := sha256.Sum256(body)
	return []byte(strings.Join([]string{
		strings.ToUpper(method),
		path,
		timestamp,
		nonce,
		hex.EncodeToString(sum[:]),
	}, "\n"))
}

func computeHMAC(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}
