package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

type fakeSigner struct {
	email    string
	payloads [][]byte
	err      error
}

func (f *fakeSigner) Email() string {
	return f.email
}

func (f *fakeSigner) SignBytes(_ context.Context, payload []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return []byte("signed"), nil
}

func newTestURLSigner(t *testing.T, signer *fakeSigner, now time.Time) *URLSigner {
	t.Helper()
	s, err := NewURLSigner("media-bucket", signer, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewURLSigner: %v", err)
	}
	return s
}

func TestSignUpload(t *testing.T) {
	signer := &fakeSigner{email: "media@example.iam.gserviceaccount.com"}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestURLSigner(t, signer, now)

	res, err := s.SignUpload(context.Background(), "tenants/acme/media/a1/hero.png", UploadOptions{
		ContentType: "image/png",
		MaxSize:     1 << 20,
		ExpiresIn:   10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("SignUpload returned error: %v", err)
	}
	if res.Method != "PUT" {
		t.Fatalf("expected PUT, got %s", res.Method)
	}
	if !res.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}
	if res.Headers["Content-Type"] != "image/png" || res.Headers["x-goog-content-length-range"] != "0,1048576" {
		t.Fatalf("unexpected headers %v", res.Headers)
	}

	parsed, err := url.Parse(res.URL)
	if err != nil {
		t.Fatalf("parse signed URL: %v", err)
	}
	if !strings.Contains(parsed.Path, "media-bucket") && !strings.HasPrefix(parsed.Host, "media-bucket") {
		t.Fatalf("expected bucket in URL: %s", res.URL)
	}
	if parsed.Query().Get("X-Goog-Signature") == "" {
		t.Fatalf("expected signature in query: %s", parsed.RawQuery)
	}
	if !strings.Contains(parsed.Query().Get("X-Goog-SignedHeaders"), "x-goog-content-length-range") {
		t.Fatalf("expected length range to be a signed header: %s", parsed.RawQuery)
	}
	if len(signer.payloads) != 1 {
		t.Fatalf("expected signer invoked once, got %d", len(signer.payloads))
	}
}

func TestSignUploadValidation(t *testing.T) {
	s := newTestURLSigner(t, &fakeSigner{email: "svc@example.com"}, time.Now())
	ctx := context.Background()

	if _, err := s.SignUpload(ctx, "obj", UploadOptions{}); !errors.Is(err, errContentTypeMissing) {
		t.Fatalf("expected missing content type error, got %v", err)
	}
	if _, err := s.SignUpload(ctx, " ", UploadOptions{ContentType: "image/png"}); !errors.Is(err, errInvalidObject) {
		t.Fatalf("expected invalid object error, got %v", err)
	}
	if _, err := s.SignUpload(ctx, "obj", UploadOptions{ContentType: "image/png", ExpiresIn: 8 * 24 * time.Hour}); !errors.Is(err, errExpiryTooLong) {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestSignDownload(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestURLSigner(t, &fakeSigner{email: "svc@example.com"}, now)

	res, err := s.SignDownload(context.Background(), "tenants/acme/media/a1/hero.png", DownloadOptions{Disposition: `attachment; filename="hero.png"`})
	if err != nil {
		t.Fatalf("SignDownload returned error: %v", err)
	}
	if res.Method != "GET" || !res.ExpiresAt.Equal(now.Add(defaultDownloadExpiry)) {
		t.Fatalf("unexpected result %+v", res)
	}
	parsed, _ := url.Parse(res.URL)
	if parsed.Query().Get("response-content-disposition") == "" {
		t.Fatalf("expected disposition override in %s", res.URL)
	}
}

func TestSignerErrorsPropagate(t *testing.T) {
	s := newTestURLSigner(t, &fakeSigner{email: "svc@example.com", err: errors.New("kms down")}, time.Now())
	if _, err := s.SignDownload(context.Background(), "obj", DownloadOptions{}); err == nil {
		t.Fatalf("expected signer error")
	}
}

func TestNewURLSignerValidation(t *testing.T) {
	if _, err := NewURLSigner("", &fakeSigner{email: "x"}); !errors.Is(err, errInvalidBucket) {
		t.Fatalf("expected bucket error, got %v", err)
	}
	if _, err := NewURLSigner("b", &fakeSigner{}); !errors.Is(err, errNoSigner) {
		t.Fatalf("expected signer error, got %v", err)
	}
}

func TestCloudinarySignature(t *testing.T) {
	// Example from Cloudinary's signed upload documentation.
	params := map[string]string{
		"timestamp": "1315060510",
		"public_id": "sample_image",
		"eager":     "w_400,h_300,c_pad|w_260,h_200,c_crop",
		"api_key":   "1234",
		"file":      "ignored",
		"folder":    "",
	}
	got := CloudinarySignature(params, "abcd")
	if want := "bfd09f95f331f558cbd1320e67aa8d488770583e"; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
