package service

import (
	"adaptive_assessment_backend/internal/model"
	"encoding/json"
)

// evaluation is the outcome of automatic grading for one response. Graded is
// false for the question types that require a human grader; those stay
// correct=false with zero partial credit until graded out of band.
type evaluation struct {
	Correct      bool
	PartialScore float64
	Graded       bool
}

// evaluateResponse grades a response against the question's content payload.
// Only multiple_choice and multiple_answer are auto-graded.
func evaluateResponse(q *model.Question, response json.RawMessage) evaluation {
	if len(response) == 0 {
		return evaluation{}
	}

	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		var content model.MultipleChoiceContent
		if err := json.Unmarshal(q.Content, &content); err != nil {
			return evaluation{}
		}
		var selected string
		if err := json.Unmarshal(response, &selected); err != nil {
			return evaluation{}
		}
		correctID, ok := content.CorrectOptionID()
		if !ok {
			return evaluation{}
		}
		if selected == correctID {
			return evaluation{Correct: true, PartialScore: 1, Graded: true}
		}
		return evaluation{Graded: true}

	case model.QuestionTypeMultipleAnswer:
		var content model.MultipleAnswerContent
		if err := json.Unmarshal(q.Content, &content); err != nil {
			return evaluation{}
		}
		var selected []string
		if err := json.Unmarshal(response, &selected); err != nil {
			return evaluation{}
		}
		correct := content.CorrectOptionIDs()
		if len(correct) == 0 {
			return evaluation{}
		}

		correctSet := make(map[string]bool, len(correct))
		for _, id := range correct {
			correctSet[id] = true
		}
		selectedSet := make(map[string]bool, len(selected))
		for _, id := range selected {
			selectedSet[id] = true
		}

		hits := 0
		for id := range selectedSet {
			if correctSet[id] {
				hits++
			}
		}
		partial := float64(hits) / float64(len(correctSet))

		// Correct requires an exact set match: a superset earns full partial
		// credit but is still not correct.
		exact := len(selectedSet) == len(correctSet) && hits == len(correctSet)
		return evaluation{Correct: exact, PartialScore: partial, Graded: true}

	default:
		return evaluation{}
	}
}
