package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

// SecretResolver resolves secret:// references, typically against Secret Manager.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret calls f.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// Option customises Load and EnvironmentValues.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
	panicOnMissing  bool
}

func newLoaderOptions(opts []Option) loaderOptions {
	o := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o loaderOptions) layers() (layers, error) {
	dotenv, err := readDotEnv(o.envFile)
	if err != nil {
		return layers{}, err
	}
	return layers{explicit: o.envMap, system: o.useSystemEnv, dotenv: dotenv}, nil
}

// WithEnvFile reads dotenv overrides from path. An empty path disables the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap supplies values that win over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver resolves secret:// and sm:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// WithRequiredSecrets marks secrets that must resolve to a non-empty value. Names are config
// field paths such as "Storage.SignerKey" or "Security.HMAC.Secrets[media]".
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) { o.requiredSecrets = append(o.requiredSecrets, names...) }
}

// WithPanicOnMissingSecrets makes Load panic with a *MissingSecretsError instead of returning it.
func WithPanicOnMissingSecrets() Option {
	return func(o *loaderOptions) { o.panicOnMissing = true }
}

// EnvironmentValues returns the merged key/value view Load reads from. cmd/api uses it to
// configure the secret fetcher before Load runs.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	src, err := newLoaderOptions(opts).layers()
	if err != nil {
		return nil, err
	}
	return src.flatten(), nil
}

// Load reads configuration, resolves secret references, and validates the result. Every
// malformed or missing field is reported in one *ValidationError.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)
	src, err := options.layers()
	if err != nil {
		return Config{}, err
	}

	problems := &ValidationError{}
	cfg := read(&envReader{src: src, invalid: problems})
	applyDerivedDefaults(&cfg)

	resolved, err := resolveSecrets(ctx, &cfg, options.secret)
	if err != nil {
		return Config{}, err
	}

	validate(cfg, problems)
	if err := problems.orNil(); err != nil {
		return Config{}, err
	}

	if missing := newMissingSecretsError(options.requiredSecrets, resolved); missing != nil {
		if options.panicOnMissing {
			fmt.Fprintln(os.Stderr, missing.Error())
			panic(missing)
		}
		return Config{}, missing
	}
	return cfg, nil
}

func read(r *envReader) Config {
	return Config{
		Server: ServerConfig{
			Port:         r.str("API_SERVER_PORT", defaultPort),
			ReadTimeout:  r.duration("API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: r.duration("API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  r.duration("API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:        r.str("API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile:  r.str("API_FIREBASE_CREDENTIALS_FILE", ""),
			IdentityTenantID: r.str("API_FIREBASE_IDENTITY_TENANT_ID", ""),
			CheckRevoked:     r.flag("API_FIREBASE_CHECK_REVOKED", false),
		},
		Firestore: FirestoreConfig{
			ProjectID:    r.str("API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: r.str("API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			MediaBucket:  r.str("API_STORAGE_MEDIA_BUCKET", ""),
			SignerKey:    r.str("API_STORAGE_SIGNER_KEY", ""),
			SignedURLTTL: r.duration("API_STORAGE_SIGNED_URL_TTL", defaultSignedURLTTL),
		},
		PubSub: PubSubConfig{
			ProjectID:           r.str("API_PUBSUB_PROJECT_ID", ""),
			ContentEventsTopic:  r.str("API_PUBSUB_CONTENT_EVENTS_TOPIC", defaultContentEventsTopic),
			DisableContentEvent: r.flag("API_PUBSUB_DISABLE_CONTENT_EVENTS", false),
		},
		Media: MediaConfig{
			Provider:            r.lower("API_MEDIA_PROVIDER", defaultMediaProvider),
			DefaultFolder:       r.str("API_MEDIA_DEFAULT_FOLDER", defaultMediaFolder),
			MaxUploadBytes:      r.integer("API_MEDIA_MAX_UPLOAD_BYTES", defaultMediaMaxBytes),
			AllowedContentTypes: r.list("API_MEDIA_ALLOWED_CONTENT_TYPES"),
			PublicBaseURL:       r.str("API_MEDIA_PUBLIC_BASE_URL", ""),
			CloudinaryCloudName: r.str("API_MEDIA_CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    r.str("API_MEDIA_CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: r.str("API_MEDIA_CLOUDINARY_API_SECRET", ""),
		},
		Tenancy: TenancyConfig{
			Header: r.str("API_TENANCY_HEADER", defaultTenantHeader),
			Hosts:  r.pairs("API_TENANCY_HOSTS"),
		},
		Publishing: PublishingConfig{
			Enabled:  r.flag("API_PUBLISHING_ENABLED", true),
			Schedule: r.str("API_PUBLISHING_SCHEDULE", defaultPublishingSchedule),
		},
		Cache: CacheConfig{
			MaxAge:               r.duration("API_CACHE_MAX_AGE", defaultCacheMaxAge),
			StaleWhileRevalidate: r.duration("API_CACHE_STALE_WHILE_REVALIDATE", defaultCacheStale),
		},
		Security: SecurityConfig{
			Environment: r.lower("API_SECURITY_ENVIRONMENT", defaultSecurityEnvironment),
			OIDC: OIDCConfig{
				JWKSURL:   r.str("API_SECURITY_OIDC_JWKS_URL", defaultOIDCJWKSURL),
				Audience:  r.str("API_SECURITY_OIDC_AUDIENCE", ""),
				Audiences: r.pairs("API_SECURITY_OIDC_AUDIENCES"),
				Issuers:   r.list("API_SECURITY_OIDC_ISSUERS"),
			},
			HMAC: HMACConfig{
				Secrets:         r.pairs("API_SECURITY_HMAC_SECRETS"),
				SignatureHeader: r.str("API_SECURITY_HMAC_HEADER_SIGNATURE", defaultHMACSignatureHeader),
				TimestampHeader: r.str("API_SECURITY_HMAC_HEADER_TIMESTAMP", defaultHMACTimestampHeader),
				NonceHeader:     r.str("API_SECURITY_HMAC_HEADER_NONCE", defaultHMACNonceHeader),
				ClockSkew:       r.duration("API_SECURITY_HMAC_CLOCK_SKEW", defaultHMACClockSkew),
				NonceTTL:        r.duration("API_SECURITY_HMAC_NONCE_TTL", defaultHMACNonceTTL),
			},
		},
		Idempotency: IdempotencyConfig{
			Header:           r.str("API_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:              r.duration("API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			CleanupInterval:  r.duration("API_IDEMPOTENCY_CLEANUP_INTERVAL", defaultIdempotencyInterval),
			CleanupBatchSize: int(r.integer("API_IDEMPOTENCY_CLEANUP_BATCH", defaultIdempotencyBatchSize)),
		},
	}
}

// applyDerivedDefaults fills fields whose default depends on another field.
func applyDerivedDefaults(cfg *Config) {
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}
	if len(cfg.Media.AllowedContentTypes) == 0 {
		cfg.Media.AllowedContentTypes = append([]string(nil), defaultMediaContentTypes...)
	}
	if len(cfg.Security.OIDC.Issuers) == 0 {
		cfg.Security.OIDC.Issuers = []string{defaultSecurityIssuer, defaultSecurityIAPIssuer}
	}
	if cfg.Security.OIDC.Audience == "" {
		cfg.Security.OIDC.Audience = cfg.Security.OIDC.Audiences[cfg.Security.Environment]
	}
}

// resolveSecrets replaces secret references in place and returns the resolved values keyed by
// config field path.
func resolveSecrets(ctx context.Context, cfg *Config, resolver SecretResolver) (map[string]string, error) {
	resolved := make(map[string]string)
	set := func(name string, field *string) error {
		value, err := resolveSecret(ctx, *field, resolver)
		if err != nil {
			return err
		}
		*field = value
		resolved[name] = strings.TrimSpace(value)
		return nil
	}

	if err := set("Storage.SignerKey", &cfg.Storage.SignerKey); err != nil {
		return nil, err
	}
	if err := set("Media.CloudinaryAPISecret", &cfg.Media.CloudinaryAPISecret); err != nil {
		return nil, err
	}
	for name := range cfg.Security.HMAC.Secrets {
		value := cfg.Security.HMAC.Secrets[name]
		if err := set("Security.HMAC.Secrets["+name+"]", &value); err != nil {
			return nil, err
		}
		cfg.Security.HMAC.Secrets[name] = value
	}
	return resolved, nil
}

// resolveSecret passes plain values through and looks up secret:// or sm:// references.
func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	ref := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(ref, "sm://"):
		ref = "secret://" + strings.TrimPrefix(ref, "sm://")
	case strings.HasPrefix(ref, "secret://"):
	default:
		return value, nil
	}
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func validate(cfg Config, problems *ValidationError) {
	required := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			problems.add(field, "is required")
		}
	}

	required("Server.Port", cfg.Server.Port)
	required("Firebase.ProjectID", cfg.Firebase.ProjectID)
	required("Firestore.ProjectID", cfg.Firestore.ProjectID)
	required("Tenancy.Header", cfg.Tenancy.Header)
	required("Idempotency.Header", cfg.Idempotency.Header)

	switch cfg.Media.Provider {
	case "gcs":
		required("Storage.MediaBucket", cfg.Storage.MediaBucket)
	case "cloudinary":
		required("Media.CloudinaryCloudName", cfg.Media.CloudinaryCloudName)
		required("Media.CloudinaryAPIKey", cfg.Media.CloudinaryAPIKey)
	default:
		problems.add("Media.Provider", fmt.Sprintf("%q is not gcs or cloudinary", cfg.Media.Provider))
	}

	if cfg.Publishing.Enabled {
		if _, err := cron.ParseStandard(cfg.Publishing.Schedule); err != nil {
			problems.add("Publishing.Schedule", fmt.Sprintf("is not a cron spec: %v", err))
		}
	}

	positive := []struct {
		field string
		ok    bool
	}{
		{"Media.MaxUploadBytes", cfg.Media.MaxUploadBytes > 0},
		{"Storage.SignedURLTTL", cfg.Storage.SignedURLTTL > 0},
		{"Idempotency.TTL", cfg.Idempotency.TTL > 0},
		{"Idempotency.CleanupInterval", cfg.Idempotency.CleanupInterval > 0},
		{"Idempotency.CleanupBatchSize", cfg.Idempotency.CleanupBatchSize > 0},
	}
	for _, p := range positive {
		if !p.ok {
			problems.add(p.field, "must be positive")
		}
	}
	if cfg.Cache.MaxAge < 0 {
		problems.add("Cache.MaxAge", "must not be negative")
	}
}
