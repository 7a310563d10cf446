package config

import "time"

const (
	defaultEnvFile                    = ".env"
	defaultPort                       = "8080"
	defaultReadTimeout                = 15 * time.Second
	defaultWriteTimeout               = 30 * time.Second
	defaultIdleTimeout                = 120 * time.Second
	defaultSignedURLTTL               = 15 * time.Minute
	defaultContentEventsTopic         = "content-events"
	defaultMediaProvider              = "gcs"
	defaultMediaMaxBytes        int64 = 20 * 1024 * 1024
	defaultMediaFolder                = "media"
	defaultTenantHeader               = "X-Tenant-ID"
	defaultPublishingSchedule         = "@every 1m"
	defaultCacheMaxAge                = 5 * time.Minute
	defaultCacheStale                 = time.Minute
	defaultSecurityEnvironment        = "local"
	defaultOIDCJWKSURL                = "https://www.googleapis.com/oauth2/v3/certs"
	defaultSecurityIssuer             = "https://accounts.google.com"
	defaultSecurityIAPIssuer          = "https://cloud.google.com/iap"
	defaultHMACSignatureHeader        = "X-Signature"
	defaultHMACTimestampHeader        = "X-Signature-Timestamp"
	defaultHMACNonceHeader            = "X-Signature-Nonce"
	defaultHMACClockSkew              = 5 * time.Minute
	defaultHMACNonceTTL               = 5 * time.Minute
	defaultIdempotencyHeader          = "Idempotency-Key"
	defaultIdempotencyTTL             = 24 * time.Hour
	defaultIdempotencyInterval        = time.Hour
	defaultIdempotencyBatchSize       = 200
)

var defaultMediaContentTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/svg+xml", "video/mp4"}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	PubSub      PubSubConfig
	Media       MediaConfig
	Tenancy     TenancyConfig
	Publishing  PublishingConfig
	Cache       CacheConfig
	Security    SecurityConfig
	Idempotency IdempotencyConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	// IdentityTenantID pins verification to one Identity Platform tenant.
	IdentityTenantID string
	CheckRevoked     bool
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig describes the media bucket and the key used to sign URLs for it.
type StorageConfig struct {
	MediaBucket  string
	SignerKey    string
	SignedURLTTL time.Duration
}

// PubSubConfig identifies the topic receiving content change events.
type PubSubConfig struct {
	ProjectID           string
	ContentEventsTopic  string
	DisableContentEvent bool
}

// MediaConfig controls upload signing.
type MediaConfig struct {
	Provider            string
	DefaultFolder       string
	MaxUploadBytes      int64
	AllowedContentTypes []string
	PublicBaseURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// TenancyConfig controls how requests are mapped to a tenant.
type TenancyConfig struct {
	Header string
	Hosts  map[string]string
}

// PublishingConfig drives the scheduled publishing loop.
type PublishingConfig struct {
	Enabled  bool
	Schedule string
}

// CacheConfig shapes Cache-Control on public responses.
type CacheConfig struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
}

// SecurityConfig groups server-to-server authentication settings.
type SecurityConfig struct {
	Environment string
	OIDC        OIDCConfig
	HMAC        HMACConfig
}

// OIDCConfig controls Google-signed token verification.
type OIDCConfig struct {
	JWKSURL   string
	Audience  string
	Audiences map[string]string
	Issuers   []string
}

// HMACConfig captures webhook signing expectations.
type HMACConfig struct {
	Secrets         map[string]string
	SignatureHeader string
	TimestampHeader string
	NonceHeader     string
	ClockSkew       time.Duration
	NonceTTL        time.Duration
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header           string
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}
