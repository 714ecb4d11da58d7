package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateScoreSimple(t *testing.T) {
	e := newTestEngine(t)

	half := 0.5
	zero := 0.0
	attempt := &model.Attempt{Responses: model.ResponseList{
		{QuestionID: 1, Correct: true},
		{QuestionID: 2, Correct: true},
		{QuestionID: 3, PartialScore: &half},
		{QuestionID: 4, PartialScore: &zero},
	}}
	a := &model.Assessment{Scoring: model.ScoringRules{Method: model.ScoringMethodSimple, PassingScore: 60}}

	score := e.analytics.CalculateScore(a, attempt)
	assert.InDelta(t, 2.5, score.TotalScore, 1e-9)
	assert.InDelta(t, 62.5, score.PercentageScore, 1e-9)
	assert.True(t, score.Passed)
}

func TestCalculateScorePassingBoundary(t *testing.T) {
	e := newTestEngine(t)
	a := &model.Assessment{Scoring: model.ScoringRules{PassingScore: 50}}

	attempt := &model.Attempt{Responses: model.ResponseList{
		{QuestionID: 1, Correct: true},
		{QuestionID: 2},
	}}
	score := e.analytics.CalculateScore(a, attempt)
	assert.InDelta(t, 50.0, score.PercentageScore, 1e-9)
	// Exactly at the passing score passes.
	assert.True(t, score.Passed)

	attempt = &model.Attempt{Responses: model.ResponseList{
		{QuestionID: 1},
		{QuestionID: 2},
	}}
	score = e.analytics.CalculateScore(a, attempt)
	assert.False(t, score.Passed)
}

func TestCalculateScoreWeightedFallsBackToSimple(t *testing.T) {
	e := newTestEngine(t)
	a := &model.Assessment{Scoring: model.ScoringRules{
		Method:          model.ScoringMethodWeighted,
		PassingScore:    60,
		CategoryWeights: map[string]float64{"algebra": 2},
	}}
	attempt := &model.Attempt{Responses: model.ResponseList{
		{QuestionID: 1, Correct: true},
	}}

	score := e.analytics.CalculateScore(a, attempt)
	assert.InDelta(t, 100.0, score.PercentageScore, 1e-9)
	assert.True(t, score.Passed)
}

func TestCalculateScoreEmptyAttempt(t *testing.T) {
	e := newTestEngine(t)
	a := &model.Assessment{}
	score := e.analytics.CalculateScore(a, &model.Attempt{})
	assert.Equal(t, 0.0, score.PercentageScore)
	assert.False(t, score.Passed)
}

func TestQuestionEffectivenessFlags(t *testing.T) {
	tooEasy := &model.Question{
		UsageCount:       40,
		CorrectCount:     38,
		AverageTimeSpent: 3,
	}
	report := questionEffectiveness(tooEasy)
	assert.InDelta(t, 0.95, report.SuccessRate, 1e-9)
	assert.Contains(t, report.Flags, "too_easy")
	assert.Contains(t, report.Flags, "suspicious_timings")
	assert.InDelta(t, 1.0, report.StatisticalConfidence, 1e-9)

	tooHard := &model.Question{
		UsageCount:       40,
		CorrectCount:     4,
		AverageTimeSpent: 60,
	}
	report = questionEffectiveness(tooHard)
	assert.Contains(t, report.Flags, "too_hard")
	assert.NotContains(t, report.Flags, "too_easy")

	middling := &model.Question{
		UsageCount:       15,
		CorrectCount:     8,
		AverageTimeSpent: 25,
	}
	report = questionEffectiveness(middling)
	assert.Contains(t, report.Flags, "low_discrimination")
	assert.InDelta(t, 0.5, report.StatisticalConfidence, 1e-9)

	unused := &model.Question{}
	report = questionEffectiveness(unused)
	assert.Empty(t, report.Flags)
	assert.Equal(t, 0.0, report.SuccessRate)
}

func TestGetQuestionEffectiveness(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "analyzed", model.QuestionTypeMultipleChoice, mcContent())

	for i := 0; i < 6; i++ {
		require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{Correct: i < 3, TimeSpent: 20}))
	}

	report, err := e.analytics.GetQuestionEffectiveness(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, report.QuestionID)
	assert.Equal(t, 6, report.UsageCount)
	assert.InDelta(t, 0.5, report.SuccessRate, 1e-9)
	assert.InDelta(t, 0.2, report.StatisticalConfidence, 1e-9)

	_, err = e.analytics.GetQuestionEffectiveness(context.Background(), 9999)
	assert.True(t, util.IsNotFound(err))
}

func TestGetAssessmentEffectiveness(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{Title: "Measured"}, 1)

	// Student 1 passes, student 2 fails.
	first, err := e.attempts.StartAttempt(1, a.ID)
	require.NoError(t, err)
	_, err = e.attempts.SubmitResponse(first.ID, qs[0].ID, SubmitResponseRequest{Response: choiceResponse(t, "a")})
	require.NoError(t, err)
	_, err = e.attempts.SubmitAttempt(first.ID)
	require.NoError(t, err)

	second, err := e.attempts.StartAttempt(2, a.ID)
	require.NoError(t, err)
	_, err = e.attempts.SubmitResponse(second.ID, qs[0].ID, SubmitResponseRequest{Response: choiceResponse(t, "b")})
	require.NoError(t, err)
	_, err = e.attempts.SubmitAttempt(second.ID)
	require.NoError(t, err)

	// An open attempt is excluded from the aggregates.
	_, err = e.attempts.StartAttempt(3, a.ID)
	require.NoError(t, err)

	report, err := e.analytics.GetAssessmentEffectiveness(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.CompletedCount)
	assert.InDelta(t, 50.0, report.AverageScore, 1e-9)
	assert.InDelta(t, 0.5, report.PassRate, 1e-9)
	require.Len(t, report.Questions, 1)
	assert.Equal(t, qs[0].ID, report.Questions[0].QuestionID)
	assert.Equal(t, 2, report.Questions[0].UsageCount)

	_, err = e.analytics.GetAssessmentEffectiveness(context.Background(), 9999)
	assert.True(t, util.IsNotFound(err))
}
