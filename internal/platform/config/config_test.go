package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMap(t *testing.T, env map[string]string, opts ...Option) (Config, error) {
	t.Helper()
	base := []Option{WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("")}
	return Load(context.Background(), append(base, opts...)...)
}

func minimalEnv() map[string]string {
	return map[string]string{
		"API_FIREBASE_PROJECT_ID":  "qp-dev",
		"API_STORAGE_MEDIA_BUCKET": "qp-media-dev",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadMap(t, minimalEnv())
	require.NoError(t, err)

	assert.Equal(t, ServerConfig{
		Port:         defaultPort,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}, cfg.Server)
	assert.Equal(t, "qp-dev", cfg.Firestore.ProjectID)
	assert.Equal(t, "qp-dev", cfg.PubSub.ProjectID)
	assert.Equal(t, defaultContentEventsTopic, cfg.PubSub.ContentEventsTopic)
	assert.Equal(t, "gcs", cfg.Media.Provider)
	assert.Equal(t, defaultMediaMaxBytes, cfg.Media.MaxUploadBytes)
	assert.Equal(t, defaultMediaContentTypes, cfg.Media.AllowedContentTypes)
	assert.Equal(t, defaultTenantHeader, cfg.Tenancy.Header)
	assert.Empty(t, cfg.Tenancy.Hosts)
	assert.Equal(t, PublishingConfig{Enabled: true, Schedule: defaultPublishingSchedule}, cfg.Publishing)
	assert.Equal(t, CacheConfig{MaxAge: defaultCacheMaxAge, StaleWhileRevalidate: defaultCacheStale}, cfg.Cache)
	assert.Equal(t, "local", cfg.Security.Environment)
	assert.Equal(t, []string{defaultSecurityIssuer, defaultSecurityIAPIssuer}, cfg.Security.OIDC.Issuers)
	assert.Equal(t, defaultHMACSignatureHeader, cfg.Security.HMAC.SignatureHeader)
	assert.Equal(t, IdempotencyConfig{
		Header:           defaultIdempotencyHeader,
		TTL:              defaultIdempotencyTTL,
		CleanupInterval:  defaultIdempotencyInterval,
		CleanupBatchSize: defaultIdempotencyBatchSize,
	}, cfg.Idempotency)
}

func TestLoadOverridesAndResolvesSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                 "9090",
		"API_FIREBASE_PROJECT_ID":         "qp-prod",
		"API_FIRESTORE_PROJECT_ID":        "qp-fire",
		"API_PUBSUB_CONTENT_EVENTS_TOPIC": "cms-content",
		"API_MEDIA_PROVIDER":              "Cloudinary",
		"API_MEDIA_CLOUDINARY_CLOUD_NAME": "demo",
		"API_MEDIA_CLOUDINARY_API_KEY":    "1234",
		"API_MEDIA_CLOUDINARY_API_SECRET": "secret://cloudinary/api",
		"API_MEDIA_ALLOWED_CONTENT_TYPES": "image/png, ,image/jpeg",
		"API_MEDIA_MAX_UPLOAD_BYTES":      "1048576",
		"API_TENANCY_HOSTS":               "shop.example.com=acme, Outlet.Example.com=acme-outlet",
		"API_PUBLISHING_SCHEDULE":         "*/5 * * * *",
		"API_CACHE_MAX_AGE":               "90s",
		"API_SECURITY_ENVIRONMENT":        "PROD",
		"API_SECURITY_OIDC_AUDIENCES":     "prod=https://cms.example.com,stg=https://cms-stg.example.com",
		"API_SECURITY_HMAC_SECRETS":       "Media=secret://hmac/media@3,uploads=plain-secret",
		"API_IDEMPOTENCY_TTL":             "48h",
	}
	secrets := map[string]string{
		"secret://cloudinary/api": "cloud-secret",
		"secret://hmac/media@3":   "media-hmac",
	}
	var asked []string
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		asked = append(asked, ref)
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", errors.New("unknown secret")
	})

	cfg, err := loadMap(t, env, WithSecretResolver(resolver))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "qp-fire", cfg.PubSub.ProjectID)
	assert.Equal(t, "cms-content", cfg.PubSub.ContentEventsTopic)
	assert.Equal(t, "cloudinary", cfg.Media.Provider)
	assert.Equal(t, "cloud-secret", cfg.Media.CloudinaryAPISecret)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.Media.AllowedContentTypes)
	assert.Equal(t, int64(1048576), cfg.Media.MaxUploadBytes)
	assert.Equal(t, "*/5 * * * *", cfg.Publishing.Schedule)
	assert.Equal(t, 90*time.Second, cfg.Cache.MaxAge)
	assert.Equal(t, "https://cms.example.com", cfg.Security.OIDC.Audience)
	assert.Equal(t, 48*time.Hour, cfg.Idempotency.TTL)

	if diff := cmp.Diff(map[string]string{"shop.example.com": "acme", "outlet.example.com": "acme-outlet"}, cfg.Tenancy.Hosts); diff != "" {
		t.Errorf("tenancy hosts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"media": "media-hmac", "uploads": "plain-secret"}, cfg.Security.HMAC.Secrets); diff != "" {
		t.Errorf("hmac secrets mismatch (-want +got):\n%s", diff)
	}
	assert.ElementsMatch(t, []string{"secret://cloudinary/api", "secret://hmac/media@3"}, asked)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	env := map[string]string{
		"API_SERVER_READ_TIMEOUT":       "fast",
		"API_PUBLISHING_ENABLED":        "maybe",
		"API_TENANCY_HOSTS":             "shop.example.com",
		"API_IDEMPOTENCY_CLEANUP_BATCH": "-1",
	}
	_, err := loadMap(t, env)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{
		"API_SERVER_READ_TIMEOUT",
		"API_TENANCY_HOSTS",
		"API_PUBLISHING_ENABLED",
		"Firebase.ProjectID",
		"Firestore.ProjectID",
		"Storage.MediaBucket",
		"Idempotency.CleanupBatchSize",
	}, validation.Fields())
	assert.Contains(t, err.Error(), `"fast" is not a duration`)
}

func TestLoadValidatesMediaProviderAndSchedule(t *testing.T) {
	env := minimalEnv()
	env["API_MEDIA_PROVIDER"] = "ftp"
	env["API_PUBLISHING_SCHEDULE"] = "every minute"

	_, err := loadMap(t, env)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"Media.Provider", "Publishing.Schedule"}, validation.Fields())

	env["API_MEDIA_PROVIDER"] = "gcs"
	env["API_PUBLISHING_ENABLED"] = "off"
	_, err = loadMap(t, env)
	assert.NoError(t, err, "schedule is ignored while publishing is disabled")
}

func TestLoadSecretFailures(t *testing.T) {
	env := minimalEnv()
	env["API_STORAGE_SIGNER_KEY"] = "secret://missing"

	_, err := loadMap(t, env)
	var secretErr *SecretError
	require.ErrorAs(t, err, &secretErr)
	assert.Equal(t, "secret://missing", secretErr.Ref)
	assert.ErrorIs(t, err, errSecretResolverNotConfigured)

	boom := errors.New("permission denied")
	_, err = loadMap(t, env, WithSecretResolver(SecretResolverFunc(func(context.Context, string) (string, error) {
		return "", boom
	})))
	assert.ErrorIs(t, err, boom)
}

func TestLoadNormalisesLegacySecretScheme(t *testing.T) {
	env := minimalEnv()
	env["API_STORAGE_SIGNER_KEY"] = " sm://storage/signer "

	cfg, err := loadMap(t, env, WithSecretResolver(SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref == "secret://storage/signer" {
			return "legacy-key", nil
		}
		return "", errors.New("unexpected ref " + ref)
	})))
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.Storage.SignerKey)
}

func TestLoadRequiredSecrets(t *testing.T) {
	_, err := loadMap(t, minimalEnv(), WithRequiredSecrets("Storage.SignerKey", " ", "Storage.SignerKey"))

	var missing *MissingSecretsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Storage.SignerKey"}, missing.Names())
	assert.Equal(t, []string{redactSecretName("Storage.SignerKey")}, missing.RedactedNames())
	assert.NotContains(t, err.Error(), "SignerKey")
}

func TestLoadPanicsOnMissingSecretsWhenAsked(t *testing.T) {
	defer func() {
		missing, ok := recover().(*MissingSecretsError)
		require.True(t, ok, "expected *MissingSecretsError panic")
		assert.Equal(t, []string{"Security.HMAC.Secrets[media]"}, missing.Names())
	}()
	_, _ = loadMap(t, minimalEnv(), WithRequiredSecrets("Security.HMAC.Secrets[media]"), WithPanicOnMissingSecrets())
	t.Fatal("Load returned instead of panicking")
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	content := "# local overrides\nAPI_SERVER_PORT=7070\nexport API_FIREBASE_PROJECT_ID=\"qp-dot\"\nAPI_STORAGE_MEDIA_BUCKET='media-dot'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(context.Background(), WithEnvFile(path), WithoutSystemEnv())
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "qp-dot", cfg.Firebase.ProjectID)
	assert.Equal(t, "media-dot", cfg.Storage.MediaBucket)

	_, err = Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv(), WithEnvMap(minimalEnv()))
	assert.NoError(t, err)
}

func TestParseDotEnvQuoting(t *testing.T) {
	values, err := parseDotEnv(strings.NewReader(`
A="quoted value"
B='single'
C="unbalanced'
NOEQUALS
 = blank key
`))
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]string{"A": "quoted value", "B": "single", "C": `"unbalanced'`}, values); diff != "" {
		t.Errorf("parseDotEnv mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentValuesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("API_FIREBASE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"), 0o600))
	t.Setenv("API_FIREBASE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	values, err := EnvironmentValues(WithEnvFile(path), WithEnvMap(map[string]string{"API_FIREBASE_PROJECT_ID": "override-project"}))
	require.NoError(t, err)
	assert.Equal(t, "override-project", values["API_FIREBASE_PROJECT_ID"])
	assert.Equal(t, ".dot.local", values["API_SECRET_FALLBACK_FILE"])
	assert.Equal(t, "prod=project-prod", values["API_SECRET_PROJECT_IDS"])
}
