package repository

import (
	"adaptive_assessment_backend/internal/model"

	"gorm.io/gorm"
)

type TaxonomyRepository struct {
	DB *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{DB: db}
}

func (r *TaxonomyRepository) CreateTag(t *model.Tag) error {
	return r.DB.Create(t).Error
}

func (r *TaxonomyRepository) FindTagByID(id uint) (*model.Tag, error) {
	var t model.Tag
	if err := r.DB.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaxonomyRepository) ListTags() ([]model.Tag, error) {
	var ts []model.Tag
	err := r.DB.Order("name asc").Find(&ts).Error
	return ts, err
}

func (r *TaxonomyRepository) CreateCategory(c *model.Category) error {
	return r.DB.Create(c).Error
}

func (r *TaxonomyRepository) FindCategoryByID(id uint) (*model.Category, error) {
	var c model.Category
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *TaxonomyRepository) ListCategories() ([]model.Category, error) {
	var cs []model.Category
	err := r.DB.Order("name asc").Find(&cs).Error
	return cs, err
}
