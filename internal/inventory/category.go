package inventory

import (
	"context"
	"errors"
	"strings"

	"erp-backend/internal/apperror"
	"erp-backend/internal/authz"
	"erp-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Categories struct {
	db *gorm.DB
}

func NewCategories(db *gorm.DB) *Categories {
	return &Categories{db: db}
}

type CategoryTree struct {
	models.Category
	Subcategories []models.Subcategory `json:"subcategories"`
}

// Tree lists categories with their subcategories, both by sort order.
func (s *Categories) Tree(ctx context.Context) ([]CategoryTree, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&cats).Error; err != nil {
		return nil, apperror.Store(err)
	}
	var subs []models.Subcategory
	if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&subs).Error; err != nil {
		return nil, apperror.Store(err)
	}

	byCat := make(map[uint][]models.Subcategory)
	for _, sc := range subs {
		byCat[sc.CategoryID] = append(byCat[sc.CategoryID], sc)
	}

	tree := make([]CategoryTree, 0, len(cats))
	for _, c := range cats {
		children := byCat[c.ID]
		if children == nil {
			children = []models.Subcategory{}
		}
		tree = append(tree, CategoryTree{Category: c, Subcategories: children})
	}
	return tree, nil
}

func (s *Categories) CreateCategory(ctx context.Context, actor authz.Actor, name string, sortOrder int) (*models.Category, error) {
	if err := authz.Require(actor, authz.ManageCategories, 0); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("category name is required")
	}
	if err := s.uniqueCategoryName(ctx, name, 0); err != nil {
		return nil, err
	}

	c := models.Category{Name: name, SortOrder: sortOrder}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperror.Store(err)
	}
	return &c, nil
}

func (s *Categories) UpdateCategory(ctx context.Context, actor authz.Actor, id uint, name string, sortOrder int) (*models.Category, error) {
	if err := authz.Require(actor, authz.ManageCategories, 0); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("category name is required")
	}

	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("category not found")
		}
		return nil, apperror.Store(err)
	}
	if err := s.uniqueCategoryName(ctx, name, id); err != nil {
		return nil, err
	}

	c.Name = name
	c.SortOrder = sortOrder
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, apperror.Store(err)
	}
	return &c, nil
}

// DeleteCategory refuses while products or subcategories still point at it.
func (s *Categories) DeleteCategory(ctx context.Context, actor authz.Actor, id uint) error {
	if err := authz.Require(actor, authz.ManageCategories, 0); err != nil {
		return err
	}
	var products, subs int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return apperror.Store(err)
	}
	if products > 0 {
		return apperror.Guard("this category still has products, delete them first")
	}
	if err := s.db.WithContext(ctx).Model(&models.Subcategory{}).Where("category_id = ?", id).Count(&subs).Error; err != nil {
		return apperror.Store(err)
	}
	if subs > 0 {
		return apperror.Guard("this category still has subcategories, delete them first")
	}

	res := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return apperror.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("category not found")
	}
	return nil
}

func (s *Categories) CreateSubcategory(ctx context.Context, actor authz.Actor, categoryID uint, name string, sortOrder int) (*models.Subcategory, error) {
	if err := authz.Require(actor, authz.ManageCategories, 0); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || categoryID == 0 {
		return nil, apperror.Validation("subcategory name and category are required")
	}

	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("category not found")
		}
		return nil, apperror.Store(err)
	}

	sc := models.Subcategory{CategoryID: categoryID, Name: name, SortOrder: sortOrder}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&sc).Error; err != nil {
		return nil, apperror.Store(err)
	}
	return &sc, nil
}

func (s *Categories) UpdateSubcategory(ctx context.Context, actor authz.Actor, id uint, name string, sortOrder int) (*models.Subcategory, error) {
	if err := authz.Require(actor, authz.ManageCategories, 0); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("subcategory name is required")
	}

	var sc models.Subcategory
	if err := s.db.WithContext(ctx).First(&sc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subcategory not found")
		}
		return nil, apperror.Store(err)
	}

	sc.Name = name
	sc.SortOrder = sortOrder
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(&sc).Error; err != nil {
		return nil, apperror.Store(err)
	}
	return &sc, nil
}

func (s *Categories) DeleteSubcategory(ctx context.Context, actor authz.Actor, id uint) error {
	if err := authz.Require(actor, authz.ManageCategories, 0); err != nil {
		return err
	}
	var products int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("subcategory_id = ?", id).Count(&products).Error; err != nil {
		return apperror.Store(err)
	}
	if products > 0 {
		return apperror.Guard("this subcategory still has products, move or delete them first")
	}

	res := s.db.WithContext(ctx).Delete(&models.Subcategory{}, id)
	if res.Error != nil {
		return apperror.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("subcategory not found")
	}
	return nil
}

func (s *Categories) uniqueCategoryName(ctx context.Context, name string, exceptID uint) error {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return apperror.Store(err)
	}
	if n > 0 {
		return apperror.Conflict("a category with this name already exists")
	}
	return nil
}
