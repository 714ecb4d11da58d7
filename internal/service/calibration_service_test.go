package service

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordResponseCounterPolicy(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Counters", model.QuestionTypeMultipleChoice, mcContent())

	require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{Correct: true, TimeSpent: 10}))
	require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{TimeSpent: 20}))
	require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{Skipped: true, TimeSpent: 2}))
	require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{PartialScore: 0.5, TimeSpent: 8}))

	got, err := e.questions.FindOne(q.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, got.UsageCount)
	assert.Equal(t, 1, got.CorrectCount)
	// Skipped and partial-credit responses increment neither counter.
	assert.Equal(t, 1, got.IncorrectCount)
	assert.InDelta(t, 10.0, got.AverageTimeSpent, 1e-9)

	assert.Equal(t, 4, got.Difficulty.TotalAttempts)
	assert.InDelta(t, 0.25, got.Difficulty.SuccessRate, 1e-9)
	assert.InDelta(t, 10.0, got.Difficulty.AverageTimeSpent, 1e-9)
}

func TestRecordResponseUnknownQuestion(t *testing.T) {
	e := newTestEngine(t)
	err := e.calibration.RecordResponse(12345, ResponseOutcome{Correct: true})
	assert.True(t, util.IsNotFound(err))
}

func TestRecalibrationCadence(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Cadence", model.QuestionTypeMultipleChoice, mcContent())

	record := func(n int) {
		for i := 0; i < n; i++ {
			require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{Correct: i%2 == 0, TimeSpent: 15}))
		}
	}

	// Below the threshold nothing fires.
	record(9)
	result, err := e.calibration.RecalibrateIfNeeded(q.ID)
	require.NoError(t, err)
	assert.Nil(t, result)

	// Attempt 10 hits threshold and cadence.
	record(1)
	result, err = e.calibration.RecalibrateIfNeeded(q.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 10, result.SampleSize)
	assert.Equal(t, 50.0, result.PreviousDifficulty)

	// 11 through 14 are off cadence.
	for i := 0; i < 4; i++ {
		record(1)
		result, err = e.calibration.RecalibrateIfNeeded(q.ID)
		require.NoError(t, err)
		assert.Nil(t, result)
	}

	// 15 fires again.
	record(1)
	result, err = e.calibration.RecalibrateIfNeeded(q.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 15, result.SampleSize)
}

func TestCalibrateDifficultyFormula(t *testing.T) {
	e := newTestEngine(t)

	q := &model.Question{
		Difficulty: model.DifficultyMetrics{
			CurrentDifficulty: 50,
			TotalAttempts:     20,
			SuccessRate:       0.4,
			AverageTimeSpent:  30,
		},
	}

	result := e.calibration.CalibrateDifficulty(q)

	// successRateFactor = 60, timeFactor = 50: 60*0.7 + 50*0.3 = 57.
	assert.InDelta(t, 57.0, result.NewDifficulty, 1e-9)
	assert.InDelta(t, 57.0, q.Difficulty.CurrentDifficulty, 1e-9)
	assert.Equal(t, 50.0, result.PreviousDifficulty)
	// 20 attempts puts the confidence step at 0.05.
	assert.InDelta(t, 0.05, result.ConfidenceDelta, 1e-9)
	assert.InDelta(t, 0.05, q.Difficulty.CalibrationConfidence, 1e-9)

	require.NotNil(t, q.Difficulty.ConfidenceLower)
	require.NotNil(t, q.Difficulty.ConfidenceUpper)
	assert.InDelta(t, 57.0-23.75, *q.Difficulty.ConfidenceLower, 1e-9)
	assert.InDelta(t, 57.0+23.75, *q.Difficulty.ConfidenceUpper, 1e-9)
}

func TestCalibrateDifficultyTimeFactorClamp(t *testing.T) {
	e := newTestEngine(t)

	q := &model.Question{
		Difficulty: model.DifficultyMetrics{
			TotalAttempts:    200,
			SuccessRate:      1,
			AverageTimeSpent: 300, // way over the 30s expectation
		},
	}

	result := e.calibration.CalibrateDifficulty(q)

	// Failure factor 0, time factor clamped at 100: 0*0.7 + 100*0.3 = 30.
	assert.InDelta(t, 30.0, result.NewDifficulty, 1e-9)
	assert.InDelta(t, 0.01, result.ConfidenceDelta, 1e-9)
}

func TestCalibrationRecommendations(t *testing.T) {
	e := newTestEngine(t)

	easy := &model.Question{Difficulty: model.DifficultyMetrics{
		TotalAttempts: 50, SuccessRate: 0.95, AverageTimeSpent: 5,
	}}
	result := e.calibration.CalibrateDifficulty(easy)
	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "too easy")

	hard := &model.Question{Difficulty: model.DifficultyMetrics{
		TotalAttempts: 50, SuccessRate: 0.1, AverageTimeSpent: 120,
	}}
	result = e.calibration.CalibrateDifficulty(hard)
	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "too hard")

	sparse := &model.Question{Difficulty: model.DifficultyMetrics{
		TotalAttempts: 3, SuccessRate: 0.5, AverageTimeSpent: 20,
	}}
	result = e.calibration.CalibrateDifficulty(sparse)
	found := false
	for _, rec := range result.Recommendations {
		if rec == "Calibration needs more data before the difficulty estimate is reliable" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestConfidenceNeverExceedsOne(t *testing.T) {
	e := newTestEngine(t)

	q := &model.Question{Difficulty: model.DifficultyMetrics{
		TotalAttempts:         500,
		SuccessRate:           0.5,
		AverageTimeSpent:      30,
		CalibrationConfidence: 0.995,
	}}

	result := e.calibration.CalibrateDifficulty(q)
	assert.InDelta(t, 0.005, result.ConfidenceDelta, 1e-9)
	assert.InDelta(t, 1.0, q.Difficulty.CalibrationConfidence, 1e-9)
}

func TestUpdateConfigValidation(t *testing.T) {
	e := newTestEngine(t)

	err := e.calibration.UpdateConfig(config.CalibrationConfig{
		SuccessWeight: 0.9, TimeWeight: 0.3, Threshold: 10, Frequency: 5, ExpectedTimeSeconds: 30,
	})
	assert.Error(t, err)

	err = e.calibration.UpdateConfig(config.CalibrationConfig{
		SuccessWeight: 0.7, TimeWeight: 0.3, Threshold: 0, Frequency: 5, ExpectedTimeSeconds: 30,
	})
	assert.Error(t, err)

	err = e.calibration.UpdateConfig(config.CalibrationConfig{
		SuccessWeight: 0.5, TimeWeight: 0.5, Threshold: 20, Frequency: 10, ExpectedTimeSeconds: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, e.calibration.Config().Threshold)
}
