package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/quantum-portal/api/internal/platform/config"
)

const kindFirebase = "firebase"

var errFirebaseTenantMismatch = errors.New("auth: id token issued for another identity tenant")

// idTokenClient is satisfied by both *firebaseauth.Client and *firebaseauth.TenantClient.
type idTokenClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseVerifier verifies editor ID tokens with the Firebase Admin SDK. When an Identity
// Platform tenant is configured, tokens from any other tenant are rejected.
type FirebaseVerifier struct {
	client      idTokenClient
	tenantID    string
	checkRevoke bool
	recorder    VerificationRecorder
	now         func() time.Time
}

// FirebaseOption customises FirebaseVerifier instances.
type FirebaseOption func(*FirebaseVerifier)

// WithRevocationCheck makes verification also reject revoked sessions. It costs one Admin API
// call per request.
func WithRevocationCheck() FirebaseOption {
	return func(v *FirebaseVerifier) { v.checkRevoke = true }
}

// WithFirebaseRecorder reports each verification to recorder.
func WithFirebaseRecorder(recorder VerificationRecorder) FirebaseOption {
	return func(v *FirebaseVerifier) { v.recorder = recorder }
}

// NewFirebaseVerifier initialises the Admin SDK for cfg.ProjectID.
func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig, opts ...FirebaseOption) (*FirebaseVerifier, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}

	var client idTokenClient = authClient
	tenantID := strings.TrimSpace(cfg.IdentityTenantID)
	if tenantID != "" {
		tenantClient, err := authClient.TenantManager.AuthForTenant(tenantID)
		if err != nil {
			return nil, fmt.Errorf("initialise firebase tenant client %q: %w", tenantID, err)
		}
		client = tenantClient
	}
	if cfg.CheckRevoked {
		opts = append([]FirebaseOption{WithRevocationCheck()}, opts...)
	}
	return newFirebaseVerifier(client, tenantID, opts...), nil
}

func newFirebaseVerifier(client idTokenClient, tenantID string, opts ...FirebaseOption) *FirebaseVerifier {
	v := &FirebaseVerifier{client: client, tenantID: tenantID, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// VerifyIDToken implements TokenVerifier.
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	if v == nil || v.client == nil {
		return nil, errors.New("firebase verifier not initialised")
	}
	start := v.now()
	token, err := v.verify(ctx, idToken)
	if v.recorder != nil {
		v.recorder.ObserveAuthVerification(kindFirebase, err == nil, firebaseRejection(err), v.now().Sub(start))
	}
	return token, err
}

func (v *FirebaseVerifier) verify(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	var (
		token *firebaseauth.Token
		err   error
	)
	if v.checkRevoke {
		token, err = v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	} else {
		token, err = v.client.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		return nil, err
	}
	if v.tenantID != "" && token.Firebase.Tenant != v.tenantID {
		return nil, errFirebaseTenantMismatch
	}
	return token, nil
}

func firebaseRejection(err error) string {
	switch {
	case err == nil:
		return "ok"
	case firebaseauth.IsIDTokenExpired(err):
		return "expired"
	case firebaseauth.IsIDTokenRevoked(err):
		return "revoked"
	case firebaseauth.IsUserDisabled(err):
		return "user_disabled"
	case errors.Is(err, errFirebaseTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "invalid"
	}
}
