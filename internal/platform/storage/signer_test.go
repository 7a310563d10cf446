package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceAccountJSON(t *testing.T, key *rsa.PrivateKey, email string) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"client_email":   email,
		"private_key_id": "key-1",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)
	return data
}

func TestServiceAccountSignerSignsVerifiably(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signer, err := NewSignerFromKey(" " + string(serviceAccountJSON(t, key, "media-signer@qp.iam.gserviceaccount.com")) + "\n")
	require.NoError(t, err)
	assert.Equal(t, "media-signer@qp.iam.gserviceaccount.com", signer.Email())
	assert.Equal(t, "key-1", signer.KeyID())

	payload := []byte("GOOG4-RSA-SHA256\n20250101T000000Z")
	sig, err := signer.SignBytes(context.Background(), payload)
	require.NoError(t, err)
	digest := sha256.Sum256(payload)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
}

func TestNewSignerFromKeyReadsFile(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "signer.json")
	require.NoError(t, os.WriteFile(path, serviceAccountJSON(t, key, "svc@qp.iam.gserviceaccount.com"), 0o600))

	signer, err := NewSignerFromKey(path)
	require.NoError(t, err)
	assert.Equal(t, "svc@qp.iam.gserviceaccount.com", signer.Email())
}

func TestNewSignerFromKeyRejectsBadInput(t *testing.T) {
	for name, input := range map[string]string{
		"empty":        "  ",
		"missing file": filepath.Join(t.TempDir(), "absent.json"),
		"bad json":     "{not json",
		"bad pem":      `{"type":"service_account","client_email":"a@b.c","private_key":"nope"}`,
	} {
		_, err := NewSignerFromKey(input)
		assert.Error(t, err, name)
	}
}

func TestSignBytesHonoursContext(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer, err := NewServiceAccountSignerFromJSON(serviceAccountJSON(t, key, "svc@qp.iam.gserviceaccount.com"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = signer.SignBytes(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	var nilSigner *ServiceAccountSigner
	_, err = nilSigner.SignBytes(context.Background(), []byte("x"))
	assert.Error(t, err)
	assert.Empty(t, nilSigner.Email())
}
