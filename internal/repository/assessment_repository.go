package repository

import (
	"adaptive_assessment_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// AssessmentFilter mirrors QuestionFilter's pagination/sort/date contract.
type AssessmentFilter struct {
	Search        string     `form:"search"`
	CategoryID    uint       `form:"categoryId"`
	TagID         uint       `form:"tagId"`
	CreatedAfter  *time.Time `form:"createdAfter" time_format:"2006-01-02"`
	CreatedBefore *time.Time `form:"createdBefore" time_format:"2006-01-02"`
	Limit         int        `form:"limit"`
	Offset        int        `form:"offset"`
	SortBy        string     `form:"sortBy"`
	SortDirection string     `form:"sortDirection"`
}

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	if err := r.DB.Preload("Tags").Preload("Categories").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

var assessmentSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
}

func (r *AssessmentRepository) FindAll(f AssessmentFilter) ([]model.Assessment, int64, error) {
	query := r.DB.Model(&model.Assessment{})

	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if f.TagID > 0 {
		query = query.Joins("JOIN assessment_tags ON assessment_tags.assessment_id = assessments.id AND assessment_tags.tag_id = ?", f.TagID)
	}
	if f.CategoryID > 0 {
		query = query.Joins("JOIN assessment_categories ON assessment_categories.assessment_id = assessments.id AND assessment_categories.category_id = ?", f.CategoryID)
	}
	if f.CreatedAfter != nil {
		query = query.Where("assessments.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		query = query.Where("assessments.created_at <= ?", *f.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at desc"
	if col, ok := assessmentSortColumns[f.SortBy]; ok {
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

	var as []model.Assessment
	err := query.Order(order).Offset(f.Offset).Limit(limit).Find(&as).Error
	return as, total, err
}

func (r *AssessmentRepository) Save(a *model.Assessment) error {
	return r.DB.Save(a).Error
}

func (r *AssessmentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Assessment{}, id).Error
}

// Membership returns the assessment's question joins ordered by position.
func (r *AssessmentRepository) Membership(assessmentID uint) ([]model.AssessmentQuestion, error) {
	var aqs []model.AssessmentQuestion
	err := r.DB.Where("assessment_id = ?", assessmentID).
		Order("position asc").Find(&aqs).Error
	return aqs, err
}

func (r *AssessmentRepository) RemoveMembers(assessmentID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return r.DB.Where("assessment_id = ? AND question_id IN ?", assessmentID, questionIDs).
		Delete(&model.AssessmentQuestion{}).Error
}

func (r *AssessmentRepository) SavePositions(aqs []model.AssessmentQuestion) error {
	for i := range aqs {
		if err := r.DB.Model(&model.AssessmentQuestion{}).
			Where("id = ?", aqs[i].ID).
			Update("position", aqs[i].Position).Error; err != nil {
			return err
		}
	}
	return nil
}
