package model

import "encoding/json"

// QuestionVersion is an immutable, append-only snapshot of a question's
// content fields. Version N always equals the state the question had while
// currentVersion == N; restoring never rewrites history, it appends.
// swagger:model QuestionVersion
type QuestionVersion struct {
	BaseModel
	QuestionID    uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	VersionNumber int    `gorm:"default:1;index:idx_question_version,unique,composite:qv" json:"versionNumber"`
	AuthorID      uint   `gorm:"index;type:bigint unsigned" json:"authorId"`
	ChangeNote    string `gorm:"type:text" json:"changeNote"`
	Content       string `gorm:"type:json" json:"content"` // QuestionSnapshot JSON
}

func (QuestionVersion) TableName() string {
	return "question_versions"
}

// QuestionSnapshot is the set of content fields captured by a version.
type QuestionSnapshot struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Content     json.RawMessage `json:"content"`
	Active      bool            `json:"active"`
	IsTemplate  bool            `json:"isTemplate"`
}

func SnapshotOf(q *Question) QuestionSnapshot {
	return QuestionSnapshot{
		Title:       q.Title,
		Description: q.Description,
		Type:        q.Type,
		Content:     q.Content,
		Active:      q.Active,
		IsTemplate:  q.IsTemplate,
	}
}

// Apply copies the snapshot's content fields onto a live question.
func (s QuestionSnapshot) Apply(q *Question) {
	q.Title = s.Title
	q.Description = s.Description
	q.Type = s.Type
	q.Content = s.Content
	q.Active = s.Active
	q.IsTemplate = s.IsTemplate
}
