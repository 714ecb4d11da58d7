package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/util"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (e *testEngine) quizWithQuestions(t *testing.T, req AssessmentRequest, n int) (*model.Assessment, []*model.Question) {
	t.Helper()
	qs := make([]*model.Question, n)
	ids := make([]uint, n)
	for i := range qs {
		qs[i] = e.createQuestion(t, "q", model.QuestionTypeMultipleChoice, mcContent())
		ids[i] = qs[i].ID
	}
	req.QuestionIDs = ids
	return e.createAssessment(t, req), qs
}

func TestStartAttemptFixedSelection(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{Title: "Quiz"}, 3)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	assert.Equal(t, model.AttemptStatusInProgress, attempt.Status)
	assert.Equal(t, 1, attempt.AttemptNumber)
	assert.Equal(t, []uint{qs[0].ID, qs[1].ID, qs[2].ID}, attempt.QuestionIDs())
}

func TestStartAttemptRandomSelectionCount(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{
		Title:     "Quiz",
		Selection: &model.QuestionSelection{Method: model.SelectionRandom, Count: 2},
	}, 5)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	require.Len(t, attempt.Responses, 2)

	pool := make(map[uint]bool, len(qs))
	for _, q := range qs {
		pool[q.ID] = true
	}
	seen := make(map[uint]bool)
	for _, id := range attempt.QuestionIDs() {
		assert.True(t, pool[id])
		assert.False(t, seen[id], "question drawn twice")
		seen[id] = true
	}
}

func TestStartAttemptEmptyAssessment(t *testing.T) {
	e := newTestEngine(t)
	a := e.createAssessment(t, AssessmentRequest{Title: "Empty"})

	_, err := e.attempts.StartAttempt(7, a.ID)
	assert.True(t, util.IsValidation(err))
}

func TestMaxAttemptsCountsCompletedOnly(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.quizWithQuestions(t, AssessmentRequest{Title: "Quiz", MaxAttempts: 2}, 1)

	// Abandoned attempts never count against the quota.
	first, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	_, err = e.attempts.AbandonAttempt(first.ID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		attempt, err := e.attempts.StartAttempt(7, a.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, attempt.AttemptNumber)
		_, err = e.attempts.SubmitAttempt(attempt.ID)
		require.NoError(t, err)
	}

	_, err = e.attempts.StartAttempt(7, a.ID)
	assert.True(t, util.IsCapacity(err))

	// Another student is unaffected.
	_, err = e.attempts.StartAttempt(8, a.ID)
	require.NoError(t, err)
}

func TestAllowRetakeFalse(t *testing.T) {
	e := newTestEngine(t)
	retake := false
	a, _ := e.quizWithQuestions(t, AssessmentRequest{Title: "One shot", AllowRetake: &retake}, 1)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	_, err = e.attempts.SubmitAttempt(attempt.ID)
	require.NoError(t, err)

	_, err = e.attempts.StartAttempt(7, a.ID)
	assert.True(t, util.IsCapacity(err))
}

func TestSubmitResponseMultipleChoice(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{Title: "Quiz"}, 2)
	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	resp, err := e.attempts.SubmitResponse(attempt.ID, qs[0].ID, SubmitResponseRequest{
		Response:  choiceResponse(t, "a"),
		TimeSpent: 12,
	})
	require.NoError(t, err)
	assert.True(t, resp.Correct)
	require.NotNil(t, resp.PartialScore)
	assert.Equal(t, 1.0, *resp.PartialScore)

	resp, err = e.attempts.SubmitResponse(attempt.ID, qs[1].ID, SubmitResponseRequest{
		Response:  choiceResponse(t, "b"),
		TimeSpent: 5,
	})
	require.NoError(t, err)
	assert.False(t, resp.Correct)
	require.NotNil(t, resp.PartialScore)
	assert.Equal(t, 0.0, *resp.PartialScore)

	// Calibration saw both responses.
	got, err := e.questions.FindOne(qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)
	assert.Equal(t, 1, got.CorrectCount)
}

func TestSubmitResponseMultipleAnswerPartialCredit(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "multi", model.QuestionTypeMultipleAnswer, maContent())
	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz", QuestionIDs: []uint{q.ID}})

	cases := []struct {
		name    string
		picks   []string
		correct bool
		partial float64
	}{
		{"half of the correct set", []string{"x"}, false, 0.5},
		{"exact match", []string{"x", "y"}, true, 1},
		{"superset is full credit but not correct", []string{"x", "y", "z"}, false, 1},
		{"only wrong picks", []string{"z"}, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attempt, err := e.attempts.StartAttempt(7, a.ID)
			require.NoError(t, err)

			resp, err := e.attempts.SubmitResponse(attempt.ID, q.ID, SubmitResponseRequest{
				Response: multiResponse(t, tc.picks...),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.correct, resp.Correct)
			require.NotNil(t, resp.PartialScore)
			assert.InDelta(t, tc.partial, *resp.PartialScore, 1e-9)
		})
	}
}

func TestSubmitResponseUngradedType(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "essay", model.QuestionTypeEssay, nil)
	a := e.createAssessment(t, AssessmentRequest{Title: "Quiz", QuestionIDs: []uint{q.ID}})

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	resp, err := e.attempts.SubmitResponse(attempt.ID, q.ID, SubmitResponseRequest{
		Response: choiceResponse(t, "my essay text"),
	})
	require.NoError(t, err)
	assert.False(t, resp.Correct)
	assert.Nil(t, resp.PartialScore)
}

func TestSubmitResponseFailsWhenCountersCannotBeRecorded(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{Title: "Quiz"}, 1)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	// Make every write to the question counters fail.
	require.NoError(t, e.db.Callback().Update().Before("gorm:update").
		Register("reject_question_updates", func(tx *gorm.DB) {
			if tx.Statement.Table == "questions" {
				tx.AddError(errors.New("question counters unavailable"))
			}
		}))

	_, err = e.attempts.SubmitResponse(attempt.ID, qs[0].ID, SubmitResponseRequest{
		Response:  choiceResponse(t, "a"),
		TimeSpent: 12,
	})
	require.Error(t, err)

	// The response did not become durable and no counter moved.
	got, err := e.attempts.GetAttempt(attempt.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Responses[0].Response)
	assert.Nil(t, got.Responses[0].PartialScore)

	q, err := e.questions.FindOne(qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, q.UsageCount)

	require.NoError(t, e.db.Callback().Update().Remove("reject_question_updates"))

	resp, err := e.attempts.SubmitResponse(attempt.ID, qs[0].ID, SubmitResponseRequest{
		Response:  choiceResponse(t, "a"),
		TimeSpent: 12,
	})
	require.NoError(t, err)
	assert.True(t, resp.Correct)

	q, err = e.questions.FindOne(qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.UsageCount)
	assert.Equal(t, 1, q.CorrectCount)
}

func TestSubmitResponseGuards(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{Title: "Quiz"}, 1)
	outside := e.createQuestion(t, "not in quiz", model.QuestionTypeMultipleChoice, mcContent())

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	_, err = e.attempts.SubmitResponse(attempt.ID, outside.ID, SubmitResponseRequest{
		Response: choiceResponse(t, "a"),
	})
	assert.True(t, util.IsValidation(err))

	_, err = e.attempts.SubmitAttempt(attempt.ID)
	require.NoError(t, err)

	_, err = e.attempts.SubmitResponse(attempt.ID, qs[0].ID, SubmitResponseRequest{
		Response: choiceResponse(t, "a"),
	})
	assert.True(t, util.IsState(err))

	_, err = e.attempts.SubmitAttempt(attempt.ID)
	assert.True(t, util.IsState(err))
}

func TestSubmitAttemptScoring(t *testing.T) {
	e := newTestEngine(t)

	mc1 := e.createQuestion(t, "mc1", model.QuestionTypeMultipleChoice, mcContent())
	mc2 := e.createQuestion(t, "mc2", model.QuestionTypeMultipleChoice, mcContent())
	ma := e.createQuestion(t, "ma", model.QuestionTypeMultipleAnswer, maContent())
	mc3 := e.createQuestion(t, "mc3", model.QuestionTypeMultipleChoice, mcContent())
	a := e.createAssessment(t, AssessmentRequest{
		Title:       "Scored quiz",
		QuestionIDs: []uint{mc1.ID, mc2.ID, ma.ID, mc3.ID},
	})

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	submit := func(qid uint, resp []byte) {
		_, err := e.attempts.SubmitResponse(attempt.ID, qid, SubmitResponseRequest{Response: resp, TimeSpent: 10})
		require.NoError(t, err)
	}
	submit(mc1.ID, choiceResponse(t, "a"))      // correct: 1
	submit(mc2.ID, choiceResponse(t, "a"))      // correct: 1
	submit(ma.ID, multiResponse(t, "x"))        // partial: 0.5
	submit(mc3.ID, choiceResponse(t, "b"))      // incorrect: 0

	done, err := e.attempts.SubmitAttempt(attempt.ID)
	require.NoError(t, err)

	assert.Equal(t, model.AttemptStatusCompleted, done.Status)
	assert.InDelta(t, 2.5, done.TotalScore, 1e-9)
	assert.InDelta(t, 62.5, done.PercentageScore, 1e-9)
	assert.True(t, done.Passed)
	require.NotNil(t, done.CompletedAt)
}

func TestSweepTimesOutExpiredAttempts(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{Title: "Timed", TimeLimit: 30}, 1)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	_, err = e.attempts.SubmitResponse(attempt.ID, qs[0].ID, SubmitResponseRequest{
		Response: choiceResponse(t, "a"),
	})
	require.NoError(t, err)

	// Within the limit nothing happens.
	swept, err := e.attempts.SweepStaleAttempts(attempt.StartedAt.Add(10 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	// Past limit plus grace the attempt times out and is scored.
	swept, err = e.attempts.SweepStaleAttempts(attempt.StartedAt.Add(31 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := e.attempts.GetAttempt(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusTimedOut, got.Status)
	assert.InDelta(t, 100.0, got.PercentageScore, 1e-9)
	assert.NotNil(t, got.CompletedAt)
}

func TestSweepAbandonsIdleAttempts(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.quizWithQuestions(t, AssessmentRequest{Title: "Untimed"}, 1)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)

	swept, err := e.attempts.SweepStaleAttempts(time.Now().Add(25 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := e.attempts.GetAttempt(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAbandoned, got.Status)
	assert.Equal(t, 0.0, got.PercentageScore)
	// Terminal state is stamped the same way as an explicit abandon.
	assert.NotNil(t, got.CompletedAt)
}

func TestAdaptiveSelectionFallsBackWithoutSelector(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.quizWithQuestions(t, AssessmentRequest{
		Title:     "Adaptive",
		Selection: &model.QuestionSelection{Method: model.SelectionAdaptive, Count: 2},
	}, 4)

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	assert.Len(t, attempt.Responses, 2)
}

func TestAdaptiveSelectorHook(t *testing.T) {
	e := newTestEngine(t)
	a, qs := e.quizWithQuestions(t, AssessmentRequest{
		Title:     "Adaptive",
		Selection: &model.QuestionSelection{Method: model.SelectionAdaptive, Count: 2},
	}, 4)

	e.attempts.Selector = func(_ *model.Assessment, pool []uint, count int) []uint {
		return pool[:count]
	}

	attempt, err := e.attempts.StartAttempt(7, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{qs[0].ID, qs[1].ID}, attempt.QuestionIDs())
}
