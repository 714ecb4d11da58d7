package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

const (
	AttemptStatusInProgress = "IN_PROGRESS"
	AttemptStatusCompleted  = "COMPLETED"
	AttemptStatusAbandoned  = "ABANDONED"
	AttemptStatusTimedOut   = "TIMED_OUT"
)

// QuestionResponse is one entry of an attempt's ordered response list.
type QuestionResponse struct {
	QuestionID   uint            `json:"questionId"`
	Response     json.RawMessage `json:"response,omitempty"`
	Correct      bool            `json:"correct"`
	PartialScore *float64        `json:"partialScore,omitempty"`
	TimeSpent    int             `json:"timeSpent"` // seconds
	HintUsed     bool            `json:"hintUsed"`
	Skipped      bool            `json:"skipped"`
}

type ResponseList []QuestionResponse

func (l ResponseList) Value() (driver.Value, error)  { return jsonValue(l) }
func (l *ResponseList) Scan(value interface{}) error { return jsonScan(l, value) }

// swagger:model Attempt
type Attempt struct {
	BaseModel
	StudentID    uint `gorm:"index;type:bigint unsigned" json:"studentId"`
	AssessmentID uint `gorm:"index;type:bigint unsigned" json:"assessmentId"`

	Responses ResponseList `gorm:"type:json" json:"questionResponses"`

	Status          string  `gorm:"size:20;default:'IN_PROGRESS';index" json:"status"`
	TotalScore      float64 `gorm:"default:0" json:"totalScore"`
	PercentageScore float64 `gorm:"default:0" json:"percentageScore"`
	Passed          bool    `gorm:"default:false" json:"passed"`
	TotalTimeSpent  int     `gorm:"default:0" json:"totalTimeSpent"` // wall-clock seconds

	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	AttemptNumber int        `gorm:"default:1" json:"attemptNumber"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// ResponseFor returns the index of the response entry for a question, or -1
// when the question is not part of the attempt.
func (a *Attempt) ResponseFor(questionID uint) int {
	for i := range a.Responses {
		if a.Responses[i].QuestionID == questionID {
			return i
		}
	}
	return -1
}

// QuestionIDs returns the attempt's question ids in response order.
func (a *Attempt) QuestionIDs() []uint {
	ids := make([]uint, len(a.Responses))
	for i, r := range a.Responses {
		ids[i] = r.QuestionID
	}
	return ids
}
