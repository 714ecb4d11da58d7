package repository

import (
	"adaptive_assessment_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionVersionRepository struct {
	DB *gorm.DB
}

func NewQuestionVersionRepository(db *gorm.DB) *QuestionVersionRepository {
	return &QuestionVersionRepository{DB: db}
}

func (r *QuestionVersionRepository) Create(v *model.QuestionVersion) error {
	return r.DB.Create(v).Error
}

// ListByQuestion returns versions ordered descending by version number.
func (r *QuestionVersionRepository) ListByQuestion(questionID uint) ([]model.QuestionVersion, error) {
	var vs []model.QuestionVersion
	err := r.DB.Where("question_id = ?", questionID).
		Order("version_number desc").Find(&vs).Error
	return vs, err
}

func (r *QuestionVersionRepository) FindByNumber(questionID uint, versionNumber int) (*model.QuestionVersion, error) {
	var v model.QuestionVersion
	err := r.DB.Where("question_id = ? AND version_number = ?", questionID, versionNumber).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}
