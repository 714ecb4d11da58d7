package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

const (
	SelectionFixed    = "fixed"
	SelectionRandom   = "random"
	SelectionAdaptive = "adaptive"
)

const (
	ScoringMethodSimple   = "simple"
	ScoringMethodWeighted = "weighted"
	ScoringMethodCustom   = "custom"
)

// QuestionSelection is the policy by which an attempt's question set is
// drawn from the assessment's membership.
type QuestionSelection struct {
	Method                 string             `json:"method"` // fixed, random, adaptive
	Count                  int                `json:"count,omitempty"`
	CategoryIDs            []uint             `json:"categoryIds,omitempty"`
	DifficultyDistribution map[string]float64 `json:"difficultyDistribution,omitempty"`
}

// ScoringRules describes how question outcomes combine into a final score.
// Weighted/custom fields are stored for all methods; see AnalyticsService
// for which methods are currently honored.
type ScoringRules struct {
	PassingScore    float64            `json:"passingScore"`
	Method          string             `json:"method"` // simple, weighted, custom
	PenaltyPerWrong float64            `json:"penaltyPerWrong,omitempty"`
	TimeBonus       float64            `json:"timeBonus,omitempty"`
	CategoryWeights map[string]float64 `json:"categoryWeights,omitempty"`
}

// ConditionalLogic is data-only sectioning and adaptive-rule descriptors.
// No engine behavior beyond storage is defined for it yet.
type ConditionalLogic struct {
	Sections      []AssessmentSection `json:"sections,omitempty"`
	AdaptiveRules []AdaptiveRule      `json:"adaptiveRules,omitempty"`
}

type AssessmentSection struct {
	Title       string `json:"title"`
	QuestionIDs []uint `json:"questionIds"`
}

type AdaptiveRule struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Target    string `json:"target,omitempty"`
}

// swagger:model Assessment
type Assessment struct {
	BaseModel
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Instructions string `gorm:"type:text" json:"instructions"`
	TimeLimit    int    `gorm:"default:0" json:"timeLimit"` // minutes, 0 = unlimited

	Selection QuestionSelection `gorm:"type:json" json:"questionSelection"`
	Logic     ConditionalLogic  `gorm:"type:json" json:"conditionalLogic"`
	Scoring   ScoringRules      `gorm:"type:json" json:"scoringRules"`

	ShuffleQuestions bool `gorm:"default:false" json:"shuffleQuestions"`
	AllowReview      bool `gorm:"default:true" json:"allowReview"`
	AllowRetake      bool `gorm:"default:true" json:"allowRetake"`
	MaxAttempts      int  `gorm:"default:0" json:"maxAttempts"` // 0 = unlimited

	CreatorID uint `gorm:"index;type:bigint unsigned" json:"creatorId"`

	Tags       []Tag      `gorm:"many2many:assessment_tags" json:"tags,omitempty"`
	Categories []Category `gorm:"many2many:assessment_categories" json:"categories,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// AssessmentQuestion is the ordered membership join between assessments and
// questions. Position drives the fixed selection order and reordering.
type AssessmentQuestion struct {
	BaseModel
	AssessmentID uint `gorm:"index:idx_assessment_question,unique,composite:aq;type:bigint unsigned" json:"assessmentId"`
	QuestionID   uint `gorm:"index:idx_assessment_question,unique,composite:aq;type:bigint unsigned" json:"questionId"`
	Position     int  `gorm:"default:0" json:"position"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// JSON column plumbing for the embedded policy structs.

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	switch data := value.(type) {
	case []byte:
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, dest)
	case string:
		if data == "" {
			return nil
		}
		return json.Unmarshal([]byte(data), dest)
	default:
		return errors.New("unsupported json column type")
	}
}

func (s QuestionSelection) Value() (driver.Value, error)  { return jsonValue(s) }
func (s *QuestionSelection) Scan(value interface{}) error { return jsonScan(s, value) }
func (s ScoringRules) Value() (driver.Value, error)       { return jsonValue(s) }
func (s *ScoringRules) Scan(value interface{}) error      { return jsonScan(s, value) }
func (l ConditionalLogic) Value() (driver.Value, error)   { return jsonValue(l) }
func (l *ConditionalLogic) Scan(value interface{}) error  { return jsonScan(l, value) }
