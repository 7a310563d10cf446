package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

const (
	defaultUploadExpiry   = 15 * time.Minute
	defaultDownloadExpiry = 5 * time.Minute
	maxSignedURLExpiry    = 7 * 24 * time.Hour
)

var (
	errNoSigner           = errors.New("storage: signer is required")
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
	errExpiryTooLong      = errors.New("storage: expiry exceeds permitted maximum")
)

// URLSigner issues V4 signed URLs for objects in a single bucket.
type URLSigner struct {
	bucket string
	signer Signer
	now    func() time.Time
}

// SignerOption customises URLSigner behaviour.
type SignerOption func(*URLSigner)

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) SignerOption {
	return func(s *URLSigner) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewURLSigner constructs a URL signer for bucket.
func NewURLSigner(bucket string, signer Signer, opts ...SignerOption) (*URLSigner, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	s := &URLSigner{bucket: bucket, signer: signer, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Bucket returns the bucket URLs are signed for.
func (s *URLSigner) Bucket() string {
	if s == nil {
		return ""
	}
	return s.bucket
}

// UploadOptions describe a direct browser upload.
type UploadOptions struct {
	ContentType string
	// MaxSize is enforced by Cloud Storage through x-goog-content-length-range.
	MaxSize   int64
	ExpiresIn time.Duration
}

// DownloadOptions shape a signed GET.
type DownloadOptions struct {
	ExpiresIn   time.Duration
	Disposition string
}

// SignedURL describes a signed request the client must replay exactly.
type SignedURL struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// SignUpload returns a signed PUT URL for object.
func (s *URLSigner) SignUpload(ctx context.Context, object string, opts UploadOptions) (SignedURL, error) {
	object, err := s.validate(object)
	if err != nil {
		return SignedURL{}, err
	}
	contentType := strings.TrimSpace(opts.ContentType)
	if contentType == "" {
		return SignedURL{}, errContentTypeMissing
	}
	expiry, err := clampExpiry(opts.ExpiresIn, defaultUploadExpiry)
	if err != nil {
		return SignedURL{}, err
	}

	headers := map[string]string{"Content-Type": contentType}
	var extHeaders []string
	if opts.MaxSize > 0 {
		rangeValue := "0," + strconv.FormatInt(opts.MaxSize, 10)
		headers["x-goog-content-length-range"] = rangeValue
		extHeaders = append(extHeaders, "x-goog-content-length-range:"+rangeValue)
	}

	expiresAt := s.now().Add(expiry)
	signed, err := gcs.SignedURL(s.bucket, object, &gcs.SignedURLOptions{
		GoogleAccessID: s.signer.Email(),
		Scheme:         gcs.SigningSchemeV4,
		Method:         "PUT",
		ContentType:    contentType,
		Headers:        extHeaders,
		Expires:        expiresAt,
		SignBytes:      s.signBytes(ctx),
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign upload url: %w", err)
	}
	return SignedURL{URL: signed, Method: "PUT", Headers: headers, ExpiresAt: expiresAt}, nil
}

// SignDownload returns a signed GET URL for object.
func (s *URLSigner) SignDownload(ctx context.Context, object string, opts DownloadOptions) (SignedURL, error) {
	object, err := s.validate(object)
	if err != nil {
		return SignedURL{}, err
	}
	expiry, err := clampExpiry(opts.ExpiresIn, defaultDownloadExpiry)
	if err != nil {
		return SignedURL{}, err
	}

	var query url.Values
	if d := strings.TrimSpace(opts.Disposition); d != "" {
		query = url.Values{"response-content-disposition": {d}}
	}
	expiresAt := s.now().Add(expiry)
	signed, err := gcs.SignedURL(s.bucket, object, &gcs.SignedURLOptions{
		GoogleAccessID:  s.signer.Email(),
		Scheme:          gcs.SigningSchemeV4,
		Method:          "GET",
		Expires:         expiresAt,
		QueryParameters: query,
		SignBytes:       s.signBytes(ctx),
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign download url: %w", err)
	}
	return SignedURL{URL: signed, Method: "GET", ExpiresAt: expiresAt}, nil
}

func (s *URLSigner) validate(object string) (string, error) {
	if s == nil || s.signer == nil {
		return "", errNoSigner
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return "", errInvalidObject
	}
	return object, nil
}

func (s *URLSigner) signBytes(ctx context.Context) func([]byte) ([]byte, error) {
	return func(payload []byte) ([]byte, error) {
		return s.signer.SignBytes(ctx, payload)
	}
}

func clampExpiry(requested, fallback time.Duration) (time.Duration, error) {
	if requested <= 0 {
		return fallback, nil
	}
	if requested > maxSignedURLExpiry {
		return 0, errExpiryTooLong
	}
	return requested, nil
}
