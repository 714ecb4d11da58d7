package service

import (
	"adaptive_assessment_backend/internal/model"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateMultipleChoice(t *testing.T) {
	q := &model.Question{Type: model.QuestionTypeMultipleChoice, Content: mcContent()}

	ev := evaluateResponse(q, json.RawMessage(`"a"`))
	assert.True(t, ev.Correct)
	assert.True(t, ev.Graded)
	assert.Equal(t, 1.0, ev.PartialScore)

	ev = evaluateResponse(q, json.RawMessage(`"b"`))
	assert.False(t, ev.Correct)
	assert.True(t, ev.Graded)
	assert.Equal(t, 0.0, ev.PartialScore)

	// Garbage payloads are treated as ungraded rather than failing the call.
	ev = evaluateResponse(q, json.RawMessage(`{broken`))
	assert.False(t, ev.Graded)

	ev = evaluateResponse(q, nil)
	assert.False(t, ev.Graded)
}

func TestEvaluateMultipleChoiceNoCorrectOption(t *testing.T) {
	q := &model.Question{
		Type:    model.QuestionTypeMultipleChoice,
		Content: json.RawMessage(`{"options":[{"id":"a","text":"A","isCorrect":false}]}`),
	}
	ev := evaluateResponse(q, json.RawMessage(`"a"`))
	assert.False(t, ev.Graded)
}

func TestEvaluateMultipleAnswer(t *testing.T) {
	q := &model.Question{Type: model.QuestionTypeMultipleAnswer, Content: maContent()}

	ev := evaluateResponse(q, json.RawMessage(`["x","y"]`))
	assert.True(t, ev.Correct)
	assert.Equal(t, 1.0, ev.PartialScore)

	ev = evaluateResponse(q, json.RawMessage(`["x"]`))
	assert.False(t, ev.Correct)
	assert.Equal(t, 0.5, ev.PartialScore)

	// Duplicated picks collapse to a set.
	ev = evaluateResponse(q, json.RawMessage(`["x","x","y"]`))
	assert.True(t, ev.Correct)

	ev = evaluateResponse(q, json.RawMessage(`[]`))
	assert.False(t, ev.Correct)
	assert.Equal(t, 0.0, ev.PartialScore)
	assert.True(t, ev.Graded)
}

func TestEvaluateManualTypesUngraded(t *testing.T) {
	for _, qType := range []string{
		model.QuestionTypeEssay,
		model.QuestionTypeShortAnswer,
		model.QuestionTypeCodeSnippet,
		model.QuestionTypeDrawing,
	} {
		q := &model.Question{Type: qType, Content: json.RawMessage(`{}`)}
		ev := evaluateResponse(q, json.RawMessage(`"anything"`))
		assert.False(t, ev.Graded, qType)
		assert.False(t, ev.Correct, qType)
		assert.Equal(t, 0.0, ev.PartialScore, qType)
	}
}
