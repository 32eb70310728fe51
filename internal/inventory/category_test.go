package inventory

import (
	"context"
	"errors"
	"testing"

	"erp-backend/internal/apperror"
	"erp-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTreeOrder(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewCategories(db)

	second, err := svc.CreateCategory(ctx, staff, "Paint", 2)
	require.NoError(t, err)
	first, err := svc.CreateCategory(ctx, staff, "Boards", 1)
	require.NoError(t, err)
	_, err = svc.CreateSubcategory(ctx, staff, second.ID, "Primer", 5)
	require.NoError(t, err)
	_, err = svc.CreateSubcategory(ctx, staff, second.ID, "Gloss", 1)
	require.NoError(t, err)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, first.ID, tree[0].ID)
	assert.Empty(t, tree[0].Subcategories)
	require.Len(t, tree[1].Subcategories, 2)
	assert.Equal(t, "Gloss", tree[1].Subcategories[0].Name)

	_, err = svc.CreateCategory(ctx, staff, "Paint", 0)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, err = svc.UpdateCategory(ctx, staff, second.ID, "Paint", 9)
	assert.NoError(t, err)
	_, err = svc.UpdateCategory(ctx, staff, second.ID, "Boards", 9)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestCategoryDeleteGuards(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewCategories(db)

	cat, err := svc.CreateCategory(ctx, staff, "Paint", 0)
	require.NoError(t, err)
	sub, err := svc.CreateSubcategory(ctx, staff, cat.ID, "Primer", 0)
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, staff, cat.ID)
	assert.True(t, errors.Is(err, apperror.ErrReferentialGuard))

	p := testutil.CreateProduct(t, db, cat.ID, "Grey primer")
	require.NoError(t, db.Model(&p).Update("subcategory_id", sub.ID).Error)

	err = svc.DeleteSubcategory(ctx, staff, sub.ID)
	assert.True(t, errors.Is(err, apperror.ErrReferentialGuard))

	_, err = NewProducts(db).Delete(ctx, staff, p.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSubcategory(ctx, staff, sub.ID))
	require.NoError(t, svc.DeleteCategory(ctx, staff, cat.ID))

	err = svc.DeleteCategory(ctx, staff, cat.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateSubcategoryNeedsCategory(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewCategories(db).CreateSubcategory(context.Background(), staff, 12, "Orphan", 0)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}
