package model

// Typed content payloads for the auto-graded question types. The Content
// column stays raw JSON in storage; the evaluator decodes it into one of
// these depending on Question.Type. Types without a payload struct here are
// stored verbatim and graded manually.

type ChoiceOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// MultipleChoiceContent expects exactly one option flagged correct.
type MultipleChoiceContent struct {
	Prompt  string         `json:"prompt,omitempty"`
	Options []ChoiceOption `json:"options"`
}

func (c MultipleChoiceContent) CorrectOptionID() (string, bool) {
	for _, o := range c.Options {
		if o.IsCorrect {
			return o.ID, true
		}
	}
	return "", false
}

type MultipleAnswerContent struct {
	Prompt  string         `json:"prompt,omitempty"`
	Options []ChoiceOption `json:"options"`
}

func (c MultipleAnswerContent) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range c.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
