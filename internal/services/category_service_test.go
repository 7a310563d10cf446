package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-portal/api/internal/repositories/memory"
)

func newCategoryFixture(t *testing.T) (CategoryService, *recordingPublisher, *recordingAudit) {
	t.Helper()
	deps, publisher, audit := testMutationDeps("cat")
	svc, err := NewCategoryService(CategoryServiceDeps{Categories: memory.NewRegistry().Categories(), MutationDeps: deps})
	require.NoError(t, err)
	return svc, publisher, audit
}

func TestCategoryServiceCreateDerivesSlugAndRecords(t *testing.T) {
	svc, publisher, audit := newCategoryFixture(t)
	ctx := tenantCtx("acme")

	category, err := svc.CreateCategory(ctx, CategoryInput{Name: "  Running Shoes "})
	require.NoError(t, err)
	assert.Equal(t, "cat-01", category.ID)
	assert.Equal(t, "Running Shoes", category.Name)
	assert.Equal(t, "running-shoes", category.Slug)
	assert.True(t, category.IsActive)
	assert.Equal(t, testNow, category.CreatedAt)

	assert.Equal(t, []string{"category.created"}, publisher.actions())
	require.Len(t, audit.records, 1)
	assert.Equal(t, "category.created", audit.records[0].Action)
	assert.Equal(t, "category/cat-01", audit.records[0].TargetRef)
	assert.Equal(t, "system", audit.records[0].Actor)
	assert.Equal(t, "acme", publisher.events[0].TenantID)
}

func TestCategoryServiceRejectsDuplicateSlugAndMissingParent(t *testing.T) {
	svc, _, _ := newCategoryFixture(t)
	ctx := tenantCtx("acme")

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Shoes"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Other", Slug: "shoes"})
	assert.ErrorIs(t, err, ErrCategoryConflict)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Boots", ParentID: "nope"})
	assert.ErrorIs(t, err, ErrCategoryInvalidInput)

	_, err = svc.CreateCategory(ctx, CategoryInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategoryServiceSlugsAreScopedPerTenant(t *testing.T) {
	svc, _, _ := newCategoryFixture(t)

	_, err := svc.CreateCategory(tenantCtx("acme"), CategoryInput{Name: "Shoes"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(tenantCtx("globex"), CategoryInput{Name: "Shoes"})
	assert.NoError(t, err)

	_, err = svc.CreateCategory(context.Background(), CategoryInput{Name: "Shoes"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategoryServiceRejectsAncestorCycles(t *testing.T) {
	svc, _, _ := newCategoryFixture(t)
	ctx := tenantCtx("acme")

	root, err := svc.CreateCategory(ctx, CategoryInput{Name: "Root"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, CategoryInput{Name: "Child", ParentID: root.ID})
	require.NoError(t, err)
	grandchild, err := svc.CreateCategory(ctx, CategoryInput{Name: "Grandchild", ParentID: child.ID})
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, root.ID, CategoryInput{Name: "Root", ParentID: grandchild.ID})
	assert.ErrorIs(t, err, ErrCategoryInvalidInput)

	_, err = svc.UpdateCategory(ctx, root.ID, CategoryInput{Name: "Root", ParentID: root.ID})
	assert.ErrorIs(t, err, ErrCategoryInvalidInput)

	crumbs, err := svc.Breadcrumbs(ctx, grandchild.ID)
	require.NoError(t, err)
	require.Len(t, crumbs, 3)
	assert.Equal(t, root.ID, crumbs[0].ID)
}

func TestCategoryServiceDeleteRefusesParents(t *testing.T) {
	svc, publisher, _ := newCategoryFixture(t)
	ctx := tenantCtx("acme")

	parent, err := svc.CreateCategory(ctx, CategoryInput{Name: "Parent"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, CategoryInput{Name: "Child", ParentID: parent.ID})
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, parent.ID)
	assert.ErrorIs(t, err, ErrCategoryHasChildren)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, svc.DeleteCategory(ctx, child.ID))
	require.NoError(t, svc.DeleteCategory(ctx, parent.ID))

	_, err = svc.GetCategory(ctx, parent.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.Contains(t, publisher.actions(), "category.deleted")
}

func TestCategoryServicePublicCategory(t *testing.T) {
	svc, _, _ := newCategoryFixture(t)
	ctx := tenantCtx("acme")

	root, err := svc.CreateCategory(ctx, CategoryInput{Name: "Shoes"})
	require.NoError(t, err)
	boots, err := svc.CreateCategory(ctx, CategoryInput{Name: "Boots", ParentID: root.ID, SortOrder: 2})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Sneakers", ParentID: root.ID, SortOrder: 1})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Sandals", ParentID: root.ID, IsActive: ptr(false)})
	require.NoError(t, err)

	detail, err := svc.GetPublicCategory(ctx, "shoes")
	require.NoError(t, err)
	assert.Equal(t, root.ID, detail.Category.ID)
	require.Len(t, detail.Children, 2)
	assert.Equal(t, "sneakers", detail.Children[0].Slug)
	assert.Equal(t, "boots", detail.Children[1].Slug)

	detail, err = svc.GetPublicCategory(ctx, "boots")
	require.NoError(t, err)
	require.Len(t, detail.Breadcrumbs, 2)
	assert.Equal(t, boots.ID, detail.Breadcrumbs[1].ID)

	_, err = svc.UpdateCategory(ctx, root.ID, CategoryInput{Name: "Shoes", IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = svc.GetPublicCategory(ctx, "boots")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	tree, err := svc.CategoryTree(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, tree)
}
