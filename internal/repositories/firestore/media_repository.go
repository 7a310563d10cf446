package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quantum-portal/api/internal/domain"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/repositories"
)

const mediaCollection = "media"

// MediaRepository persists media asset metadata. The binary objects live in the media provider.
type MediaRepository struct {
	base *pfirestore.BaseRepository[mediaDocument]
}

// NewMediaRepository constructs a Firestore-backed media repository.
func NewMediaRepository(provider *pfirestore.Provider) (*MediaRepository, error) {
	if provider == nil {
		return nil, errors.New("media repository: firestore provider is required")
	}
	return &MediaRepository{
		base: pfirestore.NewTenantRepository[mediaDocument](provider, mediaCollection),
	}, nil
}

func (r *MediaRepository) Insert(ctx context.Context, asset domain.MediaAsset) error {
	err := r.base.Create(ctx, asset.ID, mediaToDocument(asset))
	return err
}

func (r *MediaRepository) Update(ctx context.Context, asset domain.MediaAsset) error {
	return r.base.Replace(ctx, asset.ID, mediaToDocument(asset))
}

func (r *MediaRepository) Delete(ctx context.Context, assetID string) error {
	return r.base.Delete(ctx, assetID)
}

func (r *MediaRepository) FindByID(ctx context.Context, assetID string) (domain.MediaAsset, error) {
	doc, err := r.base.Get(ctx, assetID)
	if err != nil {
		return domain.MediaAsset{}, err
	}
	return mediaFromDocument(doc.ID, doc.Data), nil
}

// List returns assets newest first.
func (r *MediaRepository) List(ctx context.Context, filter repositories.MediaListFilter) (domain.CursorPage[domain.MediaAsset], error) {
	spec := pageSpec[mediaDocument]{
		build: func(q firestore.Query) firestore.Query {
			if filter.Folder != "" {
				q = q.Where("folder", "==", filter.Folder)
			}
			if filter.Status != "" {
				q = q.Where("status", "==", string(filter.Status))
			}
			return q.OrderBy("created_at", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		},
		cursor: func(doc pfirestore.Document[mediaDocument]) []any {
			return []any{doc.Data.CreatedAt.UTC().Format(time.RFC3339Nano), doc.ID}
		},
		restore: restoreTimeThenID,
	}
	return listPage(ctx, r.base, filter.Pagination, spec, mediaFromDocument)
}
