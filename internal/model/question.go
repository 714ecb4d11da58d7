package model

import "encoding/json"

const (
	QuestionTypeMultipleChoice        = "multiple_choice"
	QuestionTypeMultipleAnswer        = "multiple_answer"
	QuestionTypeTrueFalse             = "true_false"
	QuestionTypeShortAnswer           = "short_answer"
	QuestionTypeEssay                 = "essay"
	QuestionTypeMatching              = "matching"
	QuestionTypeFillInBlank           = "fill_in_blank"
	QuestionTypeDragAndDrop           = "drag_and_drop"
	QuestionTypeHotspot               = "hotspot"
	QuestionTypeRanking               = "ranking"
	QuestionTypeNumeric               = "numeric"
	QuestionTypeMatrix                = "matrix"
	QuestionTypeSlider                = "slider"
	QuestionTypeFileUpload            = "file_upload"
	QuestionTypeCodeSnippet           = "code_snippet"
	QuestionTypeDrawing               = "drawing"
	QuestionTypeInteractiveSimulation = "interactive_simulation"
)

// QuestionTypes lists every supported question type. Only multiple_choice
// and multiple_answer are auto-graded; the rest require manual grading.
var QuestionTypes = []string{
	QuestionTypeMultipleChoice,
	QuestionTypeMultipleAnswer,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
	QuestionTypeEssay,
	QuestionTypeMatching,
	QuestionTypeFillInBlank,
	QuestionTypeDragAndDrop,
	QuestionTypeHotspot,
	QuestionTypeRanking,
	QuestionTypeNumeric,
	QuestionTypeMatrix,
	QuestionTypeSlider,
	QuestionTypeFileUpload,
	QuestionTypeCodeSnippet,
	QuestionTypeDrawing,
	QuestionTypeInteractiveSimulation,
}

// DifficultyMetrics holds the calibration state of a question. Mutated
// exclusively by the calibration service; difficulty lives on a 0-100 scale.
// swagger:model DifficultyMetrics
type DifficultyMetrics struct {
	InitialDifficulty     float64  `gorm:"default:50" json:"initialDifficulty"`
	CurrentDifficulty     float64  `gorm:"default:50" json:"currentDifficulty"`
	TotalAttempts         int      `gorm:"default:0" json:"totalAttempts"`
	SuccessRate           float64  `gorm:"default:0" json:"successRate"`
	AverageTimeSpent      float64  `gorm:"default:0" json:"averageTimeSpent"` // seconds
	CalibrationConfidence float64  `gorm:"default:0" json:"calibrationConfidence"`
	ConfidenceLower       *float64 `json:"confidenceLower,omitempty"`
	ConfidenceUpper       *float64 `json:"confidenceUpper,omitempty"`

	// IRT parameters are reserved for a future estimator; the heuristic
	// calibration never writes them.
	IRTDiscrimination *float64 `json:"irtDiscrimination,omitempty"`
	IRTDifficulty     *float64 `json:"irtDifficulty,omitempty"`
	IRTGuessing       *float64 `json:"irtGuessing,omitempty"`
}

// swagger:model Question
type Question struct {
	BaseModel
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Type        string          `gorm:"size:50;not null;index" json:"type"`
	Content     json.RawMessage `gorm:"type:json" json:"content"` // type-specific payload, see content.go

	Difficulty DifficultyMetrics `gorm:"embedded;embeddedPrefix:dm_" json:"difficultyMetrics"`

	// Aggregate counters. usageCount == correctCount + incorrectCount is NOT
	// an invariant: skipped and partial-credit responses increment neither
	// correctness counter.
	UsageCount          int     `gorm:"default:0" json:"usageCount"`
	CorrectCount        int     `gorm:"default:0" json:"correctCount"`
	IncorrectCount      int     `gorm:"default:0" json:"incorrectCount"`
	AverageTimeSpent    float64 `gorm:"default:0" json:"averageTimeSpent"` // seconds
	DiscriminationIndex float64 `gorm:"default:0" json:"discriminationIndex"`

	CurrentVersion int  `gorm:"default:1" json:"currentVersion"`
	Active         bool `gorm:"default:true" json:"active"`
	IsTemplate     bool `gorm:"default:false" json:"isTemplate"`

	CreatorID uint `gorm:"index;type:bigint unsigned" json:"creatorId"`

	Tags       []Tag      `gorm:"many2many:question_tags" json:"tags,omitempty"`
	Categories []Category `gorm:"many2many:question_categories" json:"categories,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

func ValidQuestionType(t string) bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}
