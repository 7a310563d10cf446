package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/platform/storage"
	"github.com/quantum-portal/api/internal/repositories"
)

const (
	resourceMedia = "media"

	// MediaProviderGCS uploads straight to the media bucket through V4 signed URLs.
	MediaProviderGCS = "gcs"
	// MediaProviderCloudinary uploads through Cloudinary's signed upload API.
	MediaProviderCloudinary = "cloudinary"

	cloudinarySignatureTTL = time.Hour
	maxMediaFileName       = 200
)

var (
	mediaErrors = newResourceErrors(resourceMedia)

	// ErrMediaInvalidInput indicates the upload request failed validation.
	ErrMediaInvalidInput = mediaErrors.invalid
	// ErrMediaNotFound indicates the asset does not exist.
	ErrMediaNotFound = mediaErrors.notFound
	// ErrMediaNotReady rejects downloads of assets whose upload has not completed.
	ErrMediaNotReady = fmt.Errorf("%w: upload not completed", mediaErrors.conflict)
)

// URLSigner issues signed object URLs for the media bucket.
type URLSigner interface {
	Bucket() string
	SignUpload(ctx context.Context, object string, opts storage.UploadOptions) (storage.SignedURL, error)
	SignDownload(ctx context.Context, object string, opts storage.DownloadOptions) (storage.SignedURL, error)
}

// ObjectStore inspects and removes uploaded objects.
type ObjectStore interface {
	Stat(ctx context.Context, object string) (storage.ObjectInfo, error)
	Delete(ctx context.Context, object string) error
}

// MediaSettings carries the upload policy and provider credentials.
type MediaSettings struct {
	Provider            string
	DefaultFolder       string
	MaxUploadBytes      int64
	AllowedContentTypes []string
	PublicBaseURL       string
	SignedURLTTL        time.Duration
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// MediaServiceDeps wires the media service. Signer is required for the gcs provider; Objects is
// optional and enables size checks and object removal.
type MediaServiceDeps struct {
	Media    repositories.MediaRepository
	Signer   URLSigner
	Objects  ObjectStore
	Settings MediaSettings
	MutationDeps
}

type mediaService struct {
	repo     repositories.MediaRepository
	signer   URLSigner
	objects  ObjectStore
	settings MediaSettings
	allowed  map[string]struct{}
	mutations
}

// NewMediaService constructs the media service.
func NewMediaService(deps MediaServiceDeps) (MediaService, error) {
	if deps.Media == nil {
		return nil, errors.New("media service: media repository is required")
	}
	settings := deps.Settings
	settings.Provider = strings.ToLower(strings.TrimSpace(settings.Provider))
	if settings.Provider == "" {
		settings.Provider = MediaProviderGCS
	}
	switch settings.Provider {
	case MediaProviderGCS:
		if deps.Signer == nil {
			return nil, errors.New("media service: url signer is required for gcs uploads")
		}
	case MediaProviderCloudinary:
		if settings.CloudinaryCloudName == "" || settings.CloudinaryAPIKey == "" || settings.CloudinaryAPISecret == "" {
			return nil, errors.New("media service: cloudinary credentials are required")
		}
	default:
		return nil, fmt.Errorf("media service: unknown provider %q", settings.Provider)
	}
	if settings.MaxUploadBytes <= 0 {
		return nil, errors.New("media service: max upload bytes must be positive")
	}
	allowed := make(map[string]struct{}, len(settings.AllowedContentTypes))
	for _, ct := range settings.AllowedContentTypes {
		if ct = strings.ToLower(strings.TrimSpace(ct)); ct != "" {
			allowed[ct] = struct{}{}
		}
	}
	return &mediaService{
		repo:      deps.Media,
		signer:    deps.Signer,
		objects:   deps.Objects,
		settings:  settings,
		allowed:   allowed,
		mutations: newMutations(deps.MutationDeps),
	}, nil
}

func (s *mediaService) IssueUploadSignature(ctx context.Context, cmd UploadSignatureCommand) (UploadSignature, error) {
	tenantID, err := requestctx.RequireTenantID(ctx)
	if err != nil {
		return UploadSignature{}, mediaErrors.mapRepo(err)
	}
	fileName, err := cleanFileName(cmd.FileName)
	if err != nil {
		return UploadSignature{}, err
	}
	contentType, err := s.checkContentType(cmd.ContentType)
	if err != nil {
		return UploadSignature{}, err
	}
	if cmd.Size <= 0 {
		return UploadSignature{}, mediaErrors.invalidf("size must be positive")
	}
	if cmd.Size > s.settings.MaxUploadBytes {
		return UploadSignature{}, mediaErrors.invalidf("size exceeds %d bytes", s.settings.MaxUploadBytes)
	}
	folder := strings.Trim(strings.TrimSpace(cmd.Folder), "/")
	if folder == "" {
		folder = strings.Trim(s.settings.DefaultFolder, "/")
	}

	now := s.now()
	assetID := s.newID()
	objectPath, err := storage.MediaObjectPath(storage.MediaPathParams{
		TenantID: tenantID,
		Folder:   folder,
		AssetID:  assetID,
		FileName: fileName,
	})
	if err != nil {
		return UploadSignature{}, fmt.Errorf("%w: %v", ErrMediaInvalidInput, err)
	}
	actor, _ := actorFromContext(ctx)
	asset := MediaAsset{
		ID:          assetID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        cmd.Size,
		Folder:      folder,
		Provider:    s.settings.Provider,
		ObjectPath:  objectPath,
		Status:      domain.MediaStatusPending,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var signature UploadSignature
	switch s.settings.Provider {
	case MediaProviderCloudinary:
		signature = s.cloudinarySignature(tenantID, asset, now)
		asset.ObjectPath = path.Join(signature.Params["folder"], asset.ID)
	default:
		asset.Bucket = s.signer.Bucket()
		signed, err := s.signer.SignUpload(ctx, objectPath, storage.UploadOptions{
			ContentType: contentType,
			MaxSize:     cmd.Size,
			ExpiresIn:   s.settings.SignedURLTTL,
		})
		if err != nil {
			return UploadSignature{}, fmt.Errorf("media: sign upload: %w", err)
		}
		signature = UploadSignature{
			Provider:  MediaProviderGCS,
			UploadURL: signed.URL,
			Method:    signed.Method,
			Headers:   signed.Headers,
			ExpiresAt: signed.ExpiresAt,
		}
	}

	if err := s.repo.Insert(ctx, asset); err != nil {
		return UploadSignature{}, mediaErrors.mapRepo(err)
	}
	signature.Asset = asset
	s.record(ctx, change{
		resource:   resourceMedia,
		resourceID: asset.ID,
		action:     domain.ContentActionCreated,
		metadata:   map[string]any{"fileName": fileName, "contentType": contentType, "size": cmd.Size},
	})
	return signature, nil
}

// cloudinarySignature signs the upload parameters for a direct browser upload. The public ID is
// the asset ID so the webhook can be matched back to the asset.
func (s *mediaService) cloudinarySignature(tenantID string, asset MediaAsset, now time.Time) UploadSignature {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	folder := path.Join(tenantID, asset.Folder)
	signed := map[string]string{
		"timestamp": timestamp,
		"folder":    folder,
		"public_id": asset.ID,
	}
	return UploadSignature{
		Provider:  MediaProviderCloudinary,
		UploadURL: "https://api.cloudinary.com/v1_1/" + url.PathEscape(s.settings.CloudinaryCloudName) + "/auto/upload",
		Method:    "POST",
		Params: map[string]string{
			"cloudName": s.settings.CloudinaryCloudName,
			"apiKey":    s.settings.CloudinaryAPIKey,
			"timestamp": timestamp,
			"folder":    folder,
			"publicId":  asset.ID,
			"signature": storage.CloudinarySignature(signed, s.settings.CloudinaryAPISecret),
		},
		ExpiresAt: now.Add(cloudinarySignatureTTL),
	}
}

// CompleteUpload marks an asset ready. Completing a ready asset is a no-op.
func (s *mediaService) CompleteUpload(ctx context.Context, assetID string, cmd CompleteUploadCommand) (MediaAsset, error) {
	asset, err := s.getAsset(ctx, assetID)
	if err != nil {
		return MediaAsset{}, err
	}
	if asset.Status == domain.MediaStatusReady {
		return asset, nil
	}

	size := asset.Size
	if cmd.Size > 0 {
		size = cmd.Size
	}
	if asset.Provider == MediaProviderGCS && s.objects != nil {
		info, err := s.objects.Stat(ctx, asset.ObjectPath)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return MediaAsset{}, mediaErrors.invalidf("object for asset %s has not been uploaded", asset.ID)
		}
		if err != nil {
			return MediaAsset{}, fmt.Errorf("%w: stat object: %v", ErrUnavailable, err)
		}
		size = info.Size
	}
	if size > s.settings.MaxUploadBytes {
		return MediaAsset{}, mediaErrors.invalidf("uploaded object exceeds %d bytes", s.settings.MaxUploadBytes)
	}

	publicURL := strings.TrimSpace(cmd.PublicURL)
	if publicURL == "" {
		publicURL = s.publicURL(asset)
	} else if !isAbsoluteHTTPURL(publicURL) {
		return MediaAsset{}, mediaErrors.invalidf("publicUrl must be an absolute http(s) URL")
	}

	asset.Size = size
	asset.PublicURL = publicURL
	asset.Status = domain.MediaStatusReady
	asset.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, asset); err != nil {
		return MediaAsset{}, mediaErrors.mapRepo(err)
	}
	diff := map[string]AuditLogDiff{}
	diffField(diff, "status", domain.MediaStatusPending, asset.Status)
	s.record(ctx, change{resource: resourceMedia, resourceID: asset.ID, action: domain.ContentActionUpdated, diff: diff})
	return asset, nil
}

// HandleUploadWebhook completes an upload reported by the provider. The event names the tenant,
// so the call does not need a tenant in ctx.
func (s *mediaService) HandleUploadWebhook(ctx context.Context, event MediaUploadEvent) (MediaAsset, error) {
	tenantID := strings.TrimSpace(event.TenantID)
	if tenantID == "" {
		return MediaAsset{}, mediaErrors.invalidf("tenantId is required")
	}
	ctx = requestctx.WithTenantID(ctx, tenantID)
	return s.CompleteUpload(ctx, event.AssetID, CompleteUploadCommand{PublicURL: event.PublicURL})
}

func (s *mediaService) ListMedia(ctx context.Context, filter MediaListFilter) (domain.CursorPage[MediaAsset], error) {
	switch filter.Status {
	case "", domain.MediaStatusPending, domain.MediaStatusReady:
	default:
		return domain.CursorPage[MediaAsset]{}, mediaErrors.invalidf("unknown status %q", filter.Status)
	}
	page, err := s.repo.List(ctx, repositories.MediaListFilter{
		Folder:     strings.Trim(strings.TrimSpace(filter.Folder), "/"),
		Status:     filter.Status,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.CursorPage[MediaAsset]{}, mediaErrors.mapRepo(err)
	}
	return page, nil
}

func (s *mediaService) DeleteMedia(ctx context.Context, assetID string) error {
	asset, err := s.getAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.Provider == MediaProviderGCS && s.objects != nil {
		if err := s.objects.Delete(ctx, asset.ObjectPath); err != nil {
			return fmt.Errorf("%w: delete object: %v", ErrUnavailable, err)
		}
	}
	if err := s.repo.Delete(ctx, asset.ID); err != nil {
		return mediaErrors.mapRepo(err)
	}
	s.record(ctx, change{resource: resourceMedia, resourceID: asset.ID, action: domain.ContentActionDeleted})
	return nil
}

// IssueDownload returns a signed GET URL for gcs assets and the public URL otherwise.
func (s *mediaService) IssueDownload(ctx context.Context, assetID string) (SignedURL, error) {
	asset, err := s.getAsset(ctx, assetID)
	if err != nil {
		return SignedURL{}, err
	}
	if asset.Status != domain.MediaStatusReady {
		return SignedURL{}, fmt.Errorf("%w: %s", ErrMediaNotReady, asset.ID)
	}
	if asset.Provider != MediaProviderGCS || s.signer == nil {
		return SignedURL{URL: asset.PublicURL, Method: "GET"}, nil
	}
	signed, err := s.signer.SignDownload(ctx, asset.ObjectPath, storage.DownloadOptions{
		ExpiresIn:   s.settings.SignedURLTTL,
		Disposition: mime.FormatMediaType("attachment", map[string]string{"filename": asset.FileName}),
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("media: sign download: %w", err)
	}
	return SignedURL{URL: signed.URL, Method: signed.Method, ExpiresAt: signed.ExpiresAt}, nil
}

func (s *mediaService) getAsset(ctx context.Context, assetID string) (MediaAsset, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return MediaAsset{}, mediaErrors.invalidf("asset id is required")
	}
	asset, err := s.repo.FindByID(ctx, assetID)
	if err != nil {
		return MediaAsset{}, mediaErrors.mapRepo(err)
	}
	return asset, nil
}

func (s *mediaService) checkContentType(raw string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return "", mediaErrors.invalidf("contentType %q is invalid", raw)
	}
	mediaType = strings.ToLower(mediaType)
	if _, ok := s.allowed[mediaType]; !ok {
		return "", mediaErrors.invalidf("contentType %q is not allowed", mediaType)
	}
	return mediaType, nil
}

func (s *mediaService) publicURL(asset MediaAsset) string {
	if base := strings.TrimRight(strings.TrimSpace(s.settings.PublicBaseURL), "/"); base != "" {
		return base + "/" + asset.ObjectPath
	}
	if asset.Provider == MediaProviderCloudinary {
		return "https://res.cloudinary.com/" + s.settings.CloudinaryCloudName + "/image/upload/" + asset.ObjectPath
	}
	return "https://storage.googleapis.com/" + asset.Bucket + "/" + asset.ObjectPath
}

func cleanFileName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Join(strings.Fields(name), "-")
	if name == "" || name == "." || strings.Contains(name, "..") {
		return "", mediaErrors.invalidf("fileName is required")
	}
	if len(name) > maxMediaFileName {
		return "", mediaErrors.invalidf("fileName must be at most %d bytes", maxMediaFileName)
	}
	return name, nil
}
