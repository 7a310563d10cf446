package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/config"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/platform/secrets"
	"github.com/quantum-portal/api/internal/repositories"
	"github.com/quantum-portal/api/internal/services"
)

// mediaWebhookSecret names the HMAC secret that signs upload notifications.
const mediaWebhookSecret = "media"

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

// secretManagerCheck only matters at startup once secrets are resolved, so its failure degrades
// readiness rather than failing it.
const secretManagerCheck = "secretManager"

func newHealthRepository(provider *pfirestore.Provider, fetcher *secrets.Fetcher) (repositories.HealthRepository, error) {
	var checks []repositories.DependencyCheck
	if provider != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:     "firestore",
			Timeout:  1500 * time.Millisecond,
			Attempts: 2,
			Check:    provider.Ping,
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    secretManagerCheck,
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil || status.Code(err) == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	return repositories.NewDependencyHealthRepository(checks, repositories.WithDependencyConcurrency(len(checks)))
}

func buildOIDCMiddleware(logger *zap.Logger, cfg config.Config, recorder auth.VerificationRecorder) func(http.Handler) http.Handler {
	if strings.TrimSpace(cfg.Security.OIDC.JWKSURL) == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := auth.NewJWKSCache(cfg.Security.OIDC.JWKSURL, auth.WithJWKSLogger(logger))
	validator := auth.NewOIDCValidator(cache,
		auth.WithOIDCLogger(logger),
		auth.WithOIDCRecorder(recorder),
	)

	audience := strings.TrimSpace(cfg.Security.OIDC.Audience)
	if audience == "" {
		logger.Warn("auth: OIDC audience not configured; internal routes will reject requests")
	}
	if len(cfg.Security.OIDC.Issuers) == 0 {
		logger.Warn("auth: OIDC issuers not configured; internal routes will reject requests")
	}
	return validator.RequireOIDC(audience, cfg.Security.OIDC.Issuers)
}

func buildHMACMiddleware(logger *zap.Logger, cfg config.Config, recorder auth.VerificationRecorder) func(http.Handler) http.Handler {
	secretsByName := make(map[string]string, len(cfg.Security.HMAC.Secrets))
	for key, value := range cfg.Security.HMAC.Secrets {
		if strings.TrimSpace(value) != "" {
			secretsByName[strings.ToLower(key)] = value
		}
	}
	if _, ok := secretsByName[mediaWebhookSecret]; !ok {
		if logger != nil {
			logger.Warn("auth: media webhook secret not configured; webhook routes disabled")
		}
		return nil
	}

	provider := auth.SecretProviderFunc(func(_ context.Context, name string) (string, error) {
		if secret, ok := secretsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
			return secret, nil
		}
		return "", fmt.Errorf("auth: hmac secret %q not configured", name)
	})
	hmac := cfg.Security.HMAC
	validator := auth.NewHMACValidator(provider, auth.NewInMemoryNonceStore(),
		auth.WithHMACLogger(logger),
		auth.WithHMACHeaders(hmac.SignatureHeader, hmac.TimestampHeader, hmac.NonceHeader),
		auth.WithHMACWindow(hmac.ClockSkew, hmac.NonceTTL),
		auth.WithHMACRecorder(recorder),
	)
	return validator.RequireHMAC(mediaWebhookSecret)
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string { return strings.TrimSpace(env[key]) }

	envLabel := strings.ToLower(lookup("API_SECURITY_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if projects := lowerKeys(parseKeyValueList(lookup("API_SECRET_PROJECT_IDS"))); len(projects) > 0 {
		opts = append(opts, secrets.WithProjectMap(projects))
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if pins := secretVersionPins(lookup("API_SECRET_VERSION_PINS")); len(pins) > 0 {
		opts = append(opts, secrets.WithVersionPins(pins))
	}
	if credentials := lookup("API_FIREBASE_CREDENTIALS_FILE"); credentials != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentials)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames lists the config fields that must resolve before the server starts.
func requiredSecretNames(env map[string]string) []string {
	var required []string
	if strings.EqualFold(strings.TrimSpace(env["API_MEDIA_PROVIDER"]), services.MediaProviderCloudinary) {
		required = append(required, "Media.CloudinaryAPISecret")
	} else {
		required = append(required, "Storage.SignerKey")
	}
	hmacKeys := make([]string, 0)
	for key := range parseKeyValueList(env["API_SECURITY_HMAC_SECRETS"]) {
		hmacKeys = append(hmacKeys, strings.ToLower(key))
	}
	sort.Strings(hmacKeys)
	for _, key := range hmacKeys {
		required = append(required, fmt.Sprintf("Security.HMAC.Secrets[%s]", key))
	}
	return required
}

// secretVersionPins parses "ref=version" pairs. Refs may carry an environment prefix
// ("prod:payments/key") and the short "sm://" scheme.
func secretVersionPins(raw string) map[string]string {
	pins := make(map[string]string)
	for ref, version := range parseKeyValueList(raw) {
		var prefix string
		if idx := strings.Index(ref, ":"); idx > 0 && !strings.HasPrefix(ref[idx:], "://") {
			prefix = strings.ToLower(ref[:idx]) + ":"
			ref = strings.TrimSpace(ref[idx+1:])
		}
		switch {
		case strings.HasPrefix(ref, "sm://"):
			ref = "secret://" + strings.TrimPrefix(ref, "sm://")
		case !strings.HasPrefix(ref, "secret://"):
			ref = "secret://" + ref
		}
		pins[prefix+ref] = version
	}
	return pins
}

func parseKeyValueList(raw string) map[string]string {
	result := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		result[key] = value
	}
	return result
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[strings.ToLower(key)] = value
	}
	return out
}
