package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssessmentDefaults(t *testing.T) {
	e := newTestEngine(t)

	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz"})

	assert.Equal(t, model.SelectionFixed, a.Selection.Method)
	assert.Equal(t, model.ScoringMethodSimple, a.Scoring.Method)
	assert.Equal(t, 60.0, a.Scoring.PassingScore)
	assert.True(t, a.AllowReview)
	assert.True(t, a.AllowRetake)
	assert.Equal(t, 0, a.MaxAttempts)
}

func TestCreateAssessmentRejectsUnknownMethods(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.assessments.Create(1, AssessmentRequest{
		Title:     "bad",
		Selection: &model.QuestionSelection{Method: "oracle"},
	})
	assert.True(t, util.IsValidation(err))

	_, err = e.assessments.Create(1, AssessmentRequest{
		Title:   "bad",
		Scoring: &model.ScoringRules{Method: "vibes"},
	})
	assert.True(t, util.IsValidation(err))
}

func TestCreateAssessmentWithQuestions(t *testing.T) {
	e := newTestEngine(t)
	q1 := e.createQuestion(t, "q1", model.QuestionTypeMultipleChoice, mcContent())
	q2 := e.createQuestion(t, "q2", model.QuestionTypeMultipleChoice, mcContent())

	a := e.createAssessment(t, AssessmentRequest{
		Title:       "Quiz",
		QuestionIDs: []uint{q1.ID, q2.ID},
	})

	ids, err := e.assessments.QuestionIDs(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{q1.ID, q2.ID}, ids)

	_, err = e.assessments.Create(1, AssessmentRequest{
		Title:       "broken",
		QuestionIDs: []uint{9999},
	})
	assert.True(t, util.IsNotFound(err))
}

func TestAddQuestionsSetSemantics(t *testing.T) {
	e := newTestEngine(t)
	q1 := e.createQuestion(t, "q1", model.QuestionTypeMultipleChoice, mcContent())
	q2 := e.createQuestion(t, "q2", model.QuestionTypeMultipleChoice, mcContent())
	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz", QuestionIDs: []uint{q1.ID}})

	// q1 is already a member and is skipped, not duplicated.
	_, err := e.assessments.AddQuestions(a.ID, []uint{q1.ID, q2.ID})
	require.NoError(t, err)

	ids, err := e.assessments.QuestionIDs(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{q1.ID, q2.ID}, ids)

	_, err = e.assessments.RemoveQuestions(a.ID, []uint{q1.ID})
	require.NoError(t, err)

	ids, err = e.assessments.QuestionIDs(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{q2.ID}, ids)
}

func TestReorderQuestions(t *testing.T) {
	e := newTestEngine(t)
	q1 := e.createQuestion(t, "q1", model.QuestionTypeMultipleChoice, mcContent())
	q2 := e.createQuestion(t, "q2", model.QuestionTypeMultipleChoice, mcContent())
	q3 := e.createQuestion(t, "q3", model.QuestionTypeMultipleChoice, mcContent())
	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz", QuestionIDs: []uint{q1.ID, q2.ID, q3.ID}})

	require.NoError(t, e.assessments.ReorderQuestions(a.ID, []uint{q3.ID, q1.ID, q2.ID}))

	ids, err := e.assessments.QuestionIDs(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{q3.ID, q1.ID, q2.ID}, ids)

	// Not a permutation: wrong length, foreign id, duplicate id.
	err = e.assessments.ReorderQuestions(a.ID, []uint{q1.ID})
	assert.True(t, util.IsValidation(err))

	err = e.assessments.ReorderQuestions(a.ID, []uint{q1.ID, q2.ID, 9999})
	assert.True(t, util.IsValidation(err))

	err = e.assessments.ReorderQuestions(a.ID, []uint{q1.ID, q2.ID, q2.ID})
	assert.True(t, util.IsValidation(err))
}

func TestDuplicateAssessmentClonesMembershipNotAttempts(t *testing.T) {
	e := newTestEngine(t)
	q1 := e.createQuestion(t, "q1", model.QuestionTypeMultipleChoice, mcContent())
	q2 := e.createQuestion(t, "q2", model.QuestionTypeMultipleChoice, mcContent())
	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz", QuestionIDs: []uint{q1.ID, q2.ID}})

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	require.NotNil(t, attempt)

	clone, err := e.assessments.Duplicate(2, a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, clone.ID)
	assert.Equal(t, a.Title, clone.Title)
	assert.Equal(t, uint(2), clone.CreatorID)

	ids, err := e.assessments.QuestionIDs(clone.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{q1.ID, q2.ID}, ids)

	attempts, err := e.attempts.GetAssessmentAttempts(clone.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestDeleteAssessment(t *testing.T) {
	e := newTestEngine(t)
	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz"})

	require.NoError(t, e.assessments.Delete(a.ID))

	_, err := e.assessments.FindOne(a.ID)
	assert.True(t, util.IsNotFound(err))

	err = e.assessments.Delete(a.ID)
	assert.True(t, util.IsNotFound(err))
}
