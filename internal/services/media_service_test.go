package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/storage"
	"github.com/quantum-portal/api/internal/repositories/memory"
)

type fakeURLSigner struct {
	uploads   []string
	downloads []storage.DownloadOptions
}

func (f *fakeURLSigner) Bucket() string { return "media-bucket" }

func (f *fakeURLSigner) SignUpload(_ context.Context, object string, opts storage.UploadOptions) (storage.SignedURL, error) {
	f.uploads = append(f.uploads, object)
	return storage.SignedURL{
		URL:       "https://storage.googleapis.com/media-bucket/" + object + "?sig=1",
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": opts.ContentType},
		ExpiresAt: testNow.Add(opts.ExpiresIn),
	}, nil
}

func (f *fakeURLSigner) SignDownload(_ context.Context, object string, opts storage.DownloadOptions) (storage.SignedURL, error) {
	f.downloads = append(f.downloads, opts)
	return storage.SignedURL{URL: "https://signed/" + object, Method: "GET", ExpiresAt: testNow.Add(opts.ExpiresIn)}, nil
}

type fakeObjects struct {
	objects map[string]storage.ObjectInfo
	deleted []string
}

func (f *fakeObjects) Stat(_ context.Context, object string) (storage.ObjectInfo, error) {
	info, ok := f.objects[object]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return info, nil
}

func (f *fakeObjects) Delete(_ context.Context, object string) error {
	f.deleted = append(f.deleted, object)
	return nil
}

func gcsSettings() MediaSettings {
	return MediaSettings{
		Provider:            MediaProviderGCS,
		DefaultFolder:       "uploads",
		MaxUploadBytes:      1 << 20,
		AllowedContentTypes: []string{"image/png", "image/jpeg"},
		SignedURLTTL:        10 * time.Minute,
	}
}

func TestMediaServiceGCSUploadLifecycle(t *testing.T) {
	registry := memory.NewRegistry()
	signer := &fakeURLSigner{}
	objects := &fakeObjects{objects: map[string]storage.ObjectInfo{}}
	deps, publisher, _ := testMutationDeps("asset")
	svc, err := NewMediaService(MediaServiceDeps{
		Media:        registry.Media(),
		Signer:       signer,
		Objects:      objects,
		Settings:     gcsSettings(),
		MutationDeps: deps,
	})
	require.NoError(t, err)
	ctx := tenantCtx("acme")

	sig, err := svc.IssueUploadSignature(ctx, UploadSignatureCommand{FileName: "../summer banner.png", ContentType: "image/png; charset=binary", Size: 2048})
	require.NoError(t, err)
	assert.Equal(t, MediaProviderGCS, sig.Provider)
	assert.Equal(t, "PUT", sig.Method)
	assert.Equal(t, "tenants/acme/media/uploads/asset-01/summer-banner.png", sig.Asset.ObjectPath)
	assert.Equal(t, domain.MediaStatusPending, sig.Asset.Status)
	assert.Equal(t, "media-bucket", sig.Asset.Bucket)
	assert.Equal(t, testNow.Add(10*time.Minute), sig.ExpiresAt)

	_, err = svc.IssueDownload(ctx, sig.Asset.ID)
	assert.ErrorIs(t, err, ErrMediaNotReady)

	_, err = svc.CompleteUpload(ctx, sig.Asset.ID, CompleteUploadCommand{})
	assert.ErrorIs(t, err, ErrMediaInvalidInput)

	objects.objects[sig.Asset.ObjectPath] = storage.ObjectInfo{Size: 1999, ContentType: "image/png"}
	asset, err := svc.CompleteUpload(ctx, sig.Asset.ID, CompleteUploadCommand{})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaStatusReady, asset.Status)
	assert.Equal(t, int64(1999), asset.Size)
	assert.Equal(t, "https://storage.googleapis.com/media-bucket/"+asset.ObjectPath, asset.PublicURL)

	download, err := svc.IssueDownload(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "GET", download.Method)
	require.Len(t, signer.downloads, 1)
	assert.Equal(t, `attachment; filename=summer-banner.png`, signer.downloads[0].Disposition)

	require.NoError(t, svc.DeleteMedia(ctx, asset.ID))
	assert.Equal(t, []string{asset.ObjectPath}, objects.deleted)
	assert.Equal(t, []string{"media.created", "media.updated", "media.deleted"}, publisher.actions())
}

func TestMediaServiceValidatesUploads(t *testing.T) {
	svc, err := NewMediaService(MediaServiceDeps{Media: memory.NewRegistry().Media(), Signer: &fakeURLSigner{}, Settings: gcsSettings()})
	require.NoError(t, err)
	ctx := tenantCtx("acme")

	cases := map[string]UploadSignatureCommand{
		"content type not allowed": {FileName: "a.gif", ContentType: "image/gif", Size: 10},
		"content type malformed":   {FileName: "a.png", ContentType: "////", Size: 10},
		"too large":                {FileName: "a.png", ContentType: "image/png", Size: 2 << 20},
		"empty size":               {FileName: "a.png", ContentType: "image/png"},
		"no file name":             {FileName: " / ", ContentType: "image/png", Size: 10},
		"folder traversal":         {FileName: "a.png", ContentType: "image/png", Size: 10, Folder: "../etc"},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.IssueUploadSignature(ctx, cmd)
			assert.ErrorIs(t, err, ErrMediaInvalidInput)
		})
	}

	_, err = svc.IssueUploadSignature(context.Background(), UploadSignatureCommand{FileName: "a.png", ContentType: "image/png", Size: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMediaServiceCloudinarySignature(t *testing.T) {
	registry := memory.NewRegistry()
	svc, err := NewMediaService(MediaServiceDeps{
		Media: registry.Media(),
		Settings: MediaSettings{
			Provider:            MediaProviderCloudinary,
			DefaultFolder:       "cms",
			MaxUploadBytes:      1 << 20,
			AllowedContentTypes: []string{"image/png"},
			CloudinaryCloudName: "demo",
			CloudinaryAPIKey:    "key-1",
			CloudinaryAPISecret: "shh",
		},
		MutationDeps: MutationDeps{Clock: func() time.Time { return testNow }, NewID: sequentialIDs("asset")},
	})
	require.NoError(t, err)
	ctx := tenantCtx("acme")

	sig, err := svc.IssueUploadSignature(ctx, UploadSignatureCommand{FileName: "logo.png", ContentType: "image/png", Size: 100})
	require.NoError(t, err)
	assert.Equal(t, "https://api.cloudinary.com/v1_1/demo/auto/upload", sig.UploadURL)
	assert.Equal(t, "POST", sig.Method)

	timestamp := "1741942800"
	want := storage.CloudinarySignature(map[string]string{
		"timestamp": timestamp,
		"folder":    "acme/cms",
		"public_id": "asset-01",
	}, "shh")
	assert.Equal(t, map[string]string{
		"cloudName": "demo",
		"apiKey":    "key-1",
		"timestamp": timestamp,
		"folder":    "acme/cms",
		"publicId":  "asset-01",
		"signature": want,
	}, sig.Params)
	assert.Equal(t, "acme/cms/asset-01", sig.Asset.ObjectPath)

	asset, err := svc.HandleUploadWebhook(context.Background(), MediaUploadEvent{
		TenantID:  "acme",
		AssetID:   sig.Asset.ID,
		PublicURL: "https://res.cloudinary.com/demo/image/upload/acme/cms/asset-01.png",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaStatusReady, asset.Status)

	download, err := svc.IssueDownload(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.PublicURL, download.URL)

	_, err = svc.HandleUploadWebhook(context.Background(), MediaUploadEvent{TenantID: "globex", AssetID: sig.Asset.ID})
	assert.True(t, errors.Is(err, ErrMediaNotFound))
	_, err = svc.HandleUploadWebhook(context.Background(), MediaUploadEvent{AssetID: sig.Asset.ID})
	assert.ErrorIs(t, err, ErrMediaInvalidInput)
}

func TestNewMediaServiceRequiresProviderConfig(t *testing.T) {
	repo := memory.NewRegistry().Media()
	_, err := NewMediaService(MediaServiceDeps{Media: repo, Settings: gcsSettings()})
	assert.Error(t, err)
	_, err = NewMediaService(MediaServiceDeps{Media: repo, Settings: MediaSettings{Provider: MediaProviderCloudinary, MaxUploadBytes: 1}})
	assert.Error(t, err)
	_, err = NewMediaService(MediaServiceDeps{Media: repo, Settings: MediaSettings{Provider: "s3", MaxUploadBytes: 1}})
	assert.Error(t, err)
}
