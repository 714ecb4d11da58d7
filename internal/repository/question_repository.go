package repository

import (
	"adaptive_assessment_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// QuestionFilter is the query contract for listing questions. Pagination and
// sort fields are shared with AssessmentFilter and must stay stable.
type QuestionFilter struct {
	Type          string     `form:"type"`
	Active        *bool      `form:"active"`
	IsTemplate    *bool      `form:"isTemplate"`
	TagID         uint       `form:"tagId"`
	CategoryID    uint       `form:"categoryId"`
	Search        string     `form:"search"`
	CreatedAfter  *time.Time `form:"createdAfter" time_format:"2006-01-02"`
	CreatedBefore *time.Time `form:"createdBefore" time_format:"2006-01-02"`
	Limit         int        `form:"limit"`
	Offset        int        `form:"offset"`
	SortBy        string     `form:"sortBy"`
	SortDirection string     `form:"sortDirection"`
}

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.Preload("Tags").Preload("Categories").First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

var questionSortColumns = map[string]string{
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
	"title":             "title",
	"type":              "type",
	"usageCount":        "usage_count",
	"currentDifficulty": "dm_current_difficulty",
}

func (r *QuestionRepository) FindAll(f QuestionFilter) ([]model.Question, int64, error) {
	query := r.DB.Model(&model.Question{})

	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Active != nil {
		query = query.Where("active = ?", *f.Active)
	}
	if f.IsTemplate != nil {
		query = query.Where("is_template = ?", *f.IsTemplate)
	}
	if f.TagID > 0 {
		query = query.Joins("JOIN question_tags ON question_tags.question_id = questions.id AND question_tags.tag_id = ?", f.TagID)
	}
	if f.CategoryID > 0 {
		query = query.Joins("JOIN question_categories ON question_categories.question_id = questions.id AND question_categories.category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if f.CreatedAfter != nil {
		query = query.Where("questions.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		query = query.Where("questions.created_at <= ?", *f.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at desc"
	if col, ok := questionSortColumns[f.SortBy]; ok {
		dir := "asc"
		if f.SortDirection == "desc" {
			dir = "desc"
		}
		order = col + " " + dir
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	var qs []model.Question
	err := query.Order(order).Offset(f.Offset).Limit(limit).
		Preload("Tags").Preload("Categories").Find(&qs).Error
	return qs, total, err
}

func (r *QuestionRepository) Save(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

func (r *QuestionRepository) AddTag(q *model.Question, tag *model.Tag) error {
	return r.DB.Model(q).Association("Tags").Append(tag)
}

func (r *QuestionRepository) RemoveTag(q *model.Question, tag *model.Tag) error {
	return r.DB.Model(q).Association("Tags").Delete(tag)
}

func (r *QuestionRepository) AddCategory(q *model.Question, cat *model.Category) error {
	return r.DB.Model(q).Association("Categories").Append(cat)
}

func (r *QuestionRepository) RemoveCategory(q *model.Question, cat *model.Category) error {
	return r.DB.Model(q).Association("Categories").Delete(cat)
}
