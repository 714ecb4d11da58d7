package repository

import (
	"adaptive_assessment_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(a *model.Attempt) error {
	return r.DB.Create(a).Error
}

func (r *AttemptRepository) Save(a *model.Attempt) error {
	return r.DB.Save(a).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CountCompleted counts one student's COMPLETED attempts at an assessment.
// In-progress, abandoned and timed-out attempts never count against the
// maxAttempts quota.
func (r *AttemptRepository) CountCompleted(studentID, assessmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("student_id = ? AND assessment_id = ? AND status = ?",
			studentID, assessmentID, model.AttemptStatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) ListByAssessment(assessmentID uint, studentID *uint) ([]model.Attempt, error) {
	query := r.DB.Where("assessment_id = ?", assessmentID)
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}
	var as []model.Attempt
	err := query.Order("created_at desc").Find(&as).Error
	return as, err
}

func (r *AttemptRepository) ListCompletedByAssessment(assessmentID uint) ([]model.Attempt, error) {
	var as []model.Attempt
	err := r.DB.Where("assessment_id = ? AND status = ?", assessmentID, model.AttemptStatusCompleted).
		Find(&as).Error
	return as, err
}

func (r *AttemptRepository) ListInProgress() ([]model.Attempt, error) {
	var as []model.Attempt
	err := r.DB.Where("status = ?", model.AttemptStatusInProgress).Find(&as).Error
	return as, err
}
