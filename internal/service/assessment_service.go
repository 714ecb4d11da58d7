package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// AssessmentService owns assessment definitions: membership, selection
// policy, conditional logic and scoring rules. Membership mutations use set
// semantics; ordering lives on the join row positions.
type AssessmentService struct {
	Repo         *repository.AssessmentRepository
	QuestionRepo *repository.QuestionRepository
	DB           *gorm.DB

	defaultPassingScore float64
}

func NewAssessmentService(repo *repository.AssessmentRepository, questionRepo *repository.QuestionRepository, db *gorm.DB, defaultPassingScore float64) *AssessmentService {
	if defaultPassingScore <= 0 {
		defaultPassingScore = 60
	}
	return &AssessmentService{
		Repo:                repo,
		QuestionRepo:        questionRepo,
		DB:                  db,
		defaultPassingScore: defaultPassingScore,
	}
}

type AssessmentRequest struct {
	Title            string                   `json:"title" binding:"required"`
	Description      string                   `json:"description"`
	Instructions     string                   `json:"instructions"`
	TimeLimit        int                      `json:"timeLimit"`
	Selection        *model.QuestionSelection `json:"questionSelection"`
	Logic            *model.ConditionalLogic  `json:"conditionalLogic"`
	Scoring          *model.ScoringRules      `json:"scoringRules"`
	ShuffleQuestions bool                     `json:"shuffleQuestions"`
	AllowReview      *bool                    `json:"allowReview"`
	AllowRetake      *bool                    `json:"allowRetake"`
	MaxAttempts      int                      `json:"maxAttempts"`
	QuestionIDs      []uint                   `json:"questionIds"`
}

// normalizeRules substitutes defaults for absent scoring/selection fields.
// Missing fields never fail validation; only structurally invalid data does.
func (s *AssessmentService) normalizeRules(a *model.Assessment) error {
	if a.Selection.Method == "" {
		a.Selection.Method = model.SelectionFixed
	}
	switch a.Selection.Method {
	case model.SelectionFixed, model.SelectionRandom, model.SelectionAdaptive:
	default:
		return util.NewValidation("unknown selection method %q", a.Selection.Method)
	}

	if a.Scoring.Method == "" {
		a.Scoring.Method = model.ScoringMethodSimple
	}
	switch a.Scoring.Method {
	case model.ScoringMethodSimple, model.ScoringMethodWeighted, model.ScoringMethodCustom:
	default:
		return util.NewValidation("unknown scoring method %q", a.Scoring.Method)
	}

	if a.Scoring.PassingScore <= 0 {
		a.Scoring.PassingScore = s.defaultPassingScore
	}
	return nil
}

func (s *AssessmentService) Create(creatorID uint, req AssessmentRequest) (*model.Assessment, error) {
	a := &model.Assessment{
		Title:            req.Title,
		Description:      req.Description,
		Instructions:     req.Instructions,
		TimeLimit:        req.TimeLimit,
		ShuffleQuestions: req.ShuffleQuestions,
		AllowReview:      true,
		AllowRetake:      true,
		MaxAttempts:      req.MaxAttempts,
		CreatorID:        creatorID,
	}
	if req.Selection != nil {
		a.Selection = *req.Selection
	}
	if req.Logic != nil {
		a.Logic = *req.Logic
	}
	if req.Scoring != nil {
		a.Scoring = *req.Scoring
	}
	if req.AllowReview != nil {
		a.AllowReview = *req.AllowReview
	}
	if req.AllowRetake != nil {
		a.AllowRetake = *req.AllowRetake
	}
	if err := s.normalizeRules(a); err != nil {
		return nil, err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		for i, qid := range req.QuestionIDs {
			if _, err := s.QuestionRepo.FindByID(qid); err != nil {
				return util.NewNotFound("question", qid)
			}
			aq := &model.AssessmentQuestion{AssessmentID: a.ID, QuestionID: qid, Position: i}
			if err := tx.Create(aq).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) FindOne(id uint) (*model.Assessment, error) {
	a, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFound("assessment", id)
		}
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) FindAll(f repository.AssessmentFilter) ([]model.Assessment, int64, error) {
	return s.Repo.FindAll(f)
}

func (s *AssessmentService) Update(id uint, req AssessmentRequest) (*model.Assessment, error) {
	a, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	a.Title = req.Title
	a.Description = req.Description
	a.Instructions = req.Instructions
	a.TimeLimit = req.TimeLimit
	a.ShuffleQuestions = req.ShuffleQuestions
	a.MaxAttempts = req.MaxAttempts
	if req.Selection != nil {
		a.Selection = *req.Selection
	}
	if req.Logic != nil {
		a.Logic = *req.Logic
	}
	if req.Scoring != nil {
		a.Scoring = *req.Scoring
	}
	if req.AllowReview != nil {
		a.AllowReview = *req.AllowReview
	}
	if req.AllowRetake != nil {
		a.AllowRetake = *req.AllowRetake
	}
	if err := s.normalizeRules(a); err != nil {
		return nil, err
	}

	if err := s.Repo.Save(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) Delete(id uint) error {
	if _, err := s.FindOne(id); err != nil {
		return err
	}
	return s.Repo.Delete(id)
}

// QuestionIDs returns the assessment's membership in position order.
func (s *AssessmentService) QuestionIDs(assessmentID uint) ([]uint, error) {
	aqs, err := s.Repo.Membership(assessmentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(aqs))
	for i, aq := range aqs {
		ids[i] = aq.QuestionID
	}
	return ids, nil
}

// AddQuestions appends questions to the membership. Already-present ids are
// skipped silently (set semantics).
func (s *AssessmentService) AddQuestions(assessmentID uint, questionIDs []uint) (*model.Assessment, error) {
	a, err := s.FindOne(assessmentID)
	if err != nil {
		return nil, err
	}

	aqs, err := s.Repo.Membership(assessmentID)
	if err != nil {
		return nil, err
	}
	present := make(map[uint]bool, len(aqs))
	nextPos := 0
	for _, aq := range aqs {
		present[aq.QuestionID] = true
		if aq.Position >= nextPos {
			nextPos = aq.Position + 1
		}
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, qid := range questionIDs {
			if present[qid] {
				continue
			}
			if _, err := s.QuestionRepo.FindByID(qid); err != nil {
				return util.NewNotFound("question", qid)
			}
			aq := &model.AssessmentQuestion{AssessmentID: assessmentID, QuestionID: qid, Position: nextPos}
			if err := tx.Create(aq).Error; err != nil {
				return err
			}
			present[qid] = true
			nextPos++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) RemoveQuestions(assessmentID uint, questionIDs []uint) (*model.Assessment, error) {
	a, err := s.FindOne(assessmentID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RemoveMembers(assessmentID, questionIDs); err != nil {
		return nil, err
	}
	return a, nil
}

// ReorderQuestions replaces the membership order. The ids must be exactly a
// permutation of the current question set; anything else is a validation
// error.
func (s *AssessmentService) ReorderQuestions(assessmentID uint, orderedIDs []uint) error {
	if _, err := s.FindOne(assessmentID); err != nil {
		return err
	}

	aqs, err := s.Repo.Membership(assessmentID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(aqs) {
		return util.NewValidation("reorder list has %d ids, assessment has %d questions", len(orderedIDs), len(aqs))
	}

	byQuestion := make(map[uint]*model.AssessmentQuestion, len(aqs))
	for i := range aqs {
		byQuestion[aqs[i].QuestionID] = &aqs[i]
	}
	seen := make(map[uint]bool, len(orderedIDs))
	for pos, qid := range orderedIDs {
		aq, ok := byQuestion[qid]
		if !ok {
			return util.NewValidation("question %d is not part of assessment %d", qid, assessmentID)
		}
		if seen[qid] {
			return util.NewValidation("question %d appears twice in the reorder list", qid)
		}
		seen[qid] = true
		aq.Position = pos
	}

	return s.Repo.SavePositions(aqs)
}

// Duplicate clones the assessment with its question, tag and category
// associations. Attempts are never cloned.
func (s *AssessmentService) Duplicate(creatorID, id uint) (*model.Assessment, error) {
	src, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}
	aqs, err := s.Repo.Membership(id)
	if err != nil {
		return nil, err
	}

	clone := &model.Assessment{
		Title:            src.Title,
		Description:      src.Description,
		Instructions:     src.Instructions,
		TimeLimit:        src.TimeLimit,
		Selection:        src.Selection,
		Logic:            src.Logic,
		Scoring:          src.Scoring,
		ShuffleQuestions: src.ShuffleQuestions,
		AllowReview:      src.AllowReview,
		AllowRetake:      src.AllowRetake,
		MaxAttempts:      src.MaxAttempts,
		CreatorID:        creatorID,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clone).Error; err != nil {
			return err
		}
		for _, aq := range aqs {
			member := &model.AssessmentQuestion{
				AssessmentID: clone.ID,
				QuestionID:   aq.QuestionID,
				Position:     aq.Position,
			}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		if len(src.Tags) > 0 {
			if err := tx.Model(clone).Association("Tags").Append(src.Tags); err != nil {
				return err
			}
		}
		if len(src.Categories) > 0 {
			if err := tx.Model(clone).Association("Categories").Append(src.Categories); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}
