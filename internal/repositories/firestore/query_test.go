package firestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/quantum-portal/api/internal/domain"
)

func TestRestoreTimeThenID(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123, time.UTC)
	values, err := restoreTimeThenID([]any{ts.Format(time.RFC3339Nano), "id-1"})
	require.NoError(t, err)
	assert.Equal(t, []any{ts, "id-1"}, values)

	for _, bad := range [][]any{
		{"id-only"},
		{float64(12), "id"},
		{"yesterday", "id"},
	} {
		_, err := restoreTimeThenID(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestDynamicPageDocumentRoundTripKeepsVisibility(t *testing.T) {
	page := domain.DynamicPage{
		ID: "home",
		Segments: []domain.Segment{{
			ID:       "seg-1",
			Name:     "Hero",
			IsActive: true,
			Blocks: []domain.Block{{
				ID:         "blk-1",
				Type:       domain.BlockTypeHeroBanner,
				Content:    map[string]any{"imageUrl": "https://cdn.example.com/h.png"},
				Visibility: domain.BlockVisibility{Desktop: true},
				IsActive:   true,
			}},
		}},
	}
	doc := dynamicPageToDocument(page)
	require.Len(t, doc.Segments, 1)
	assert.True(t, doc.Segments[0].Blocks[0].Desktop)
	assert.False(t, doc.Segments[0].Blocks[0].Mobile)

	back := dynamicPageFromDocument(page.ID, doc)
	assert.Equal(t, page.Segments, back.Segments)
}
