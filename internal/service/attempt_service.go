package service

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/util"
	"adaptive_assessment_backend/pkg/logger"
	"adaptive_assessment_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdaptiveSelector picks an attempt's question set for adaptive assessments.
// It receives the assessment, its full membership pool in position order and
// the requested count, and returns the chosen question ids in presentation
// order.
type AdaptiveSelector func(a *model.Assessment, pool []uint, count int) []uint

// AttemptService drives the attempt lifecycle: IN_PROGRESS attempts move to
// exactly one of COMPLETED, ABANDONED or TIMED_OUT and never back. Mutations
// of one attempt are serialized via a keyed mutex.
type AttemptService struct {
	Repo           *repository.AttemptRepository
	AssessmentRepo *repository.AssessmentRepository
	QuestionRepo   *repository.QuestionRepository
	Assessments    *AssessmentService
	Calibration    *CalibrationService
	Analytics      *AnalyticsService

	Sweep config.AttemptSweepConfig

	// Selector handles the adaptive selection method. When nil, adaptive
	// assessments fall back to random selection.
	Selector AdaptiveSelector

	locks *util.KeyedMutex
}

func NewAttemptService(
	repo *repository.AttemptRepository,
	assessmentRepo *repository.AssessmentRepository,
	questionRepo *repository.QuestionRepository,
	assessments *AssessmentService,
	calibration *CalibrationService,
	analytics *AnalyticsService,
	sweep config.AttemptSweepConfig,
) *AttemptService {
	return &AttemptService{
		Repo:           repo,
		AssessmentRepo: assessmentRepo,
		QuestionRepo:   questionRepo,
		Assessments:    assessments,
		Calibration:    calibration,
		Analytics:      analytics,
		Sweep:          sweep,
		locks:          util.NewKeyedMutex(),
	}
}

func (s *AttemptService) attemptKey(id uint) string {
	return fmt.Sprintf("attempt:%d", id)
}

// selectQuestions applies the assessment's selection policy to its membership.
func (s *AttemptService) selectQuestions(a *model.Assessment) ([]uint, error) {
	pool, err := s.Assessments.QuestionIDs(a.ID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, util.NewValidation("assessment %d has no questions", a.ID)
	}

	count := a.Selection.Count
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}

	var ids []uint
	switch a.Selection.Method {
	case model.SelectionRandom:
		ids = shuffled(pool)[:count]
	case model.SelectionAdaptive:
		if s.Selector != nil {
			ids = s.Selector(a, pool, count)
		}
		if len(ids) == 0 {
			ids = shuffled(pool)[:count]
		}
	default: // fixed
		ids = append([]uint(nil), pool...)
	}

	if a.ShuffleQuestions {
		ids = shuffled(ids)
	}
	return ids, nil
}

func shuffled(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// StartAttempt opens a new IN_PROGRESS attempt for a student. The maxAttempts
// quota counts COMPLETED attempts only; abandoned and timed-out runs are free.
func (s *AttemptService) StartAttempt(studentID, assessmentID uint) (*model.Attempt, error) {
	a, err := s.Assessments.FindOne(assessmentID)
	if err != nil {
		return nil, err
	}

	completed, err := s.Repo.CountCompleted(studentID, assessmentID)
	if err != nil {
		return nil, err
	}
	if !a.AllowRetake && completed >= 1 {
		return nil, util.NewCapacity("assessment %d does not allow retakes", assessmentID)
	}
	if a.MaxAttempts > 0 && completed >= int64(a.MaxAttempts) {
		return nil, util.NewCapacity("maximum of %d attempts reached for assessment %d", a.MaxAttempts, assessmentID)
	}

	ids, err := s.selectQuestions(a)
	if err != nil {
		return nil, err
	}

	responses := make(model.ResponseList, len(ids))
	for i, qid := range ids {
		responses[i] = model.QuestionResponse{QuestionID: qid}
	}

	attempt := &model.Attempt{
		StudentID:     studentID,
		AssessmentID:  assessmentID,
		Responses:     responses,
		Status:        model.AttemptStatusInProgress,
		StartedAt:     time.Now(),
		AttemptNumber: int(completed) + 1,
	}
	if err := s.Repo.Create(attempt); err != nil {
		return nil, err
	}

	logger.Log.Info("attempt started",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("studentId", studentID),
		zap.Uint("assessmentId", assessmentID),
		zap.Int("questionCount", len(ids)),
		zap.Int("attemptNumber", attempt.AttemptNumber))
	return attempt, nil
}

type SubmitResponseRequest struct {
	Response  json.RawMessage `json:"response"`
	TimeSpent int             `json:"timeSpent"` // seconds
	HintUsed  bool            `json:"hintUsed"`
	Skipped   bool            `json:"skipped"`
}

// SubmitResponse records one question response on an in-progress attempt,
// auto-grades it where the question type supports that, and feeds the outcome
// into the calibration engine. Counters are folded in before the response row
// is persisted, so a counter failure fails the whole submission. Resubmitting
// the same question overwrites the earlier response but still counts as a
// fresh calibration event.
func (s *AttemptService) SubmitResponse(attemptID, questionID uint, req SubmitResponseRequest) (*model.QuestionResponse, error) {
	key := s.attemptKey(attemptID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, util.NewState("attempt", attemptID, attempt.Status, "submit response")
	}

	idx := attempt.ResponseFor(questionID)
	if idx < 0 {
		return nil, util.NewValidation("question %d is not part of attempt %d", questionID, attemptID)
	}

	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFound("question", questionID)
		}
		return nil, err
	}

	entry := model.QuestionResponse{
		QuestionID: questionID,
		Response:   req.Response,
		TimeSpent:  req.TimeSpent,
		HintUsed:   req.HintUsed,
		Skipped:    req.Skipped,
	}
	if !req.Skipped {
		ev := evaluateResponse(q, req.Response)
		entry.Correct = ev.Correct
		if ev.Graded {
			partial := ev.PartialScore
			entry.PartialScore = &partial
		}
	}
	attempt.Responses[idx] = entry

	outcome := ResponseOutcome{
		Correct:   entry.Correct,
		TimeSpent: entry.TimeSpent,
		HintUsed:  entry.HintUsed,
		Skipped:   entry.Skipped,
	}
	if entry.PartialScore != nil {
		outcome.PartialScore = *entry.PartialScore
	}
	if err := s.Calibration.RecordResponse(questionID, outcome); err != nil {
		return nil, err
	}

	if err := s.Repo.Save(attempt); err != nil {
		return nil, err
	}

	return &attempt.Responses[idx], nil
}

// SubmitAttempt finalizes an in-progress attempt: scores it, marks it
// COMPLETED and triggers recalibration checks for every question answered.
func (s *AttemptService) SubmitAttempt(attemptID uint) (*model.Attempt, error) {
	key := s.attemptKey(attemptID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, util.NewState("attempt", attemptID, attempt.Status, "submit attempt")
	}

	assessment, err := s.Assessments.FindOne(attempt.AssessmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.finalize(attempt, assessment, model.AttemptStatusCompleted, now)
	if err := s.Repo.Save(attempt); err != nil {
		return nil, err
	}
	monitoring.AttemptsCompleted.Inc()
	s.Analytics.InvalidateAssessmentCache(context.Background(), attempt.AssessmentID)

	for _, qid := range attempt.QuestionIDs() {
		if _, err := s.Calibration.RecalibrateIfNeeded(qid); err != nil {
			logger.Log.Warn("recalibration check failed",
				zap.Uint("questionId", qid),
				zap.Error(err))
		}
	}

	logger.Log.Info("attempt completed",
		zap.Uint("attemptId", attempt.ID),
		zap.Float64("percentageScore", attempt.PercentageScore),
		zap.Bool("passed", attempt.Passed))
	return attempt, nil
}

// finalize scores the attempt and stamps its terminal state. TotalTimeSpent
// is wall-clock time from start to finalization, not the per-question sum.
func (s *AttemptService) finalize(attempt *model.Attempt, assessment *model.Assessment, status string, now time.Time) {
	score := s.Analytics.CalculateScore(assessment, attempt)
	attempt.TotalScore = score.TotalScore
	attempt.PercentageScore = score.PercentageScore
	attempt.Passed = score.Passed

	attempt.Status = status
	attempt.CompletedAt = &now
	attempt.TotalTimeSpent = int(now.Sub(attempt.StartedAt).Seconds())
}

func (s *AttemptService) findAttempt(id uint) (*model.Attempt, error) {
	attempt, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFound("attempt", id)
		}
		return nil, err
	}
	return attempt, nil
}

func (s *AttemptService) GetAttempt(id uint) (*model.Attempt, error) {
	return s.findAttempt(id)
}

// GetAssessmentAttempts lists attempts at an assessment, optionally narrowed
// to one student.
func (s *AttemptService) GetAssessmentAttempts(assessmentID uint, studentID *uint) ([]model.Attempt, error) {
	if _, err := s.Assessments.FindOne(assessmentID); err != nil {
		return nil, err
	}
	return s.Repo.ListByAssessment(assessmentID, studentID)
}

// AbandonAttempt explicitly abandons an in-progress attempt. Abandoned
// attempts are never scored and never count against the attempt quota.
func (s *AttemptService) AbandonAttempt(attemptID uint) (*model.Attempt, error) {
	key := s.attemptKey(attemptID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, util.NewState("attempt", attemptID, attempt.Status, "abandon")
	}

	now := time.Now()
	attempt.Status = model.AttemptStatusAbandoned
	attempt.CompletedAt = &now
	attempt.TotalTimeSpent = int(now.Sub(attempt.StartedAt).Seconds())
	if err := s.Repo.Save(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SweepStaleAttempts is the background pass over IN_PROGRESS attempts. An
// attempt past its assessment's time limit plus a grace window becomes
// TIMED_OUT and is scored on whatever was answered; an attempt idle past the
// abandon window becomes ABANDONED unscored. Returns how many attempts were
// transitioned.
func (s *AttemptService) SweepStaleAttempts(now time.Time) (int, error) {
	attempts, err := s.Repo.ListInProgress()
	if err != nil {
		return 0, err
	}

	grace := time.Duration(s.Sweep.TimeoutGraceSecs) * time.Second
	swept := 0
	for i := range attempts {
		attempt := &attempts[i]

		assessment, err := s.Assessments.FindOne(attempt.AssessmentID)
		if err != nil {
			logger.Log.Warn("sweep skipped attempt with missing assessment",
				zap.Uint("attemptId", attempt.ID),
				zap.Error(err))
			continue
		}

		switch {
		case assessment.TimeLimit > 0 &&
			now.After(attempt.StartedAt.Add(time.Duration(assessment.TimeLimit)*time.Minute+grace)):
			s.locks.Lock(s.attemptKey(attempt.ID))
			s.finalize(attempt, assessment, model.AttemptStatusTimedOut, now)
			err = s.Repo.Save(attempt)
			s.locks.Unlock(s.attemptKey(attempt.ID))
			if err != nil {
				logger.Log.Error("failed to time out attempt",
					zap.Uint("attemptId", attempt.ID),
					zap.Error(err))
				continue
			}
			swept++

		case s.Sweep.AbandonAfter > 0 && now.Sub(attempt.UpdatedAt) > s.Sweep.AbandonAfter:
			abandonedAt := now
			s.locks.Lock(s.attemptKey(attempt.ID))
			attempt.Status = model.AttemptStatusAbandoned
			attempt.CompletedAt = &abandonedAt
			attempt.TotalTimeSpent = int(now.Sub(attempt.StartedAt).Seconds())
			err = s.Repo.Save(attempt)
			s.locks.Unlock(s.attemptKey(attempt.ID))
			if err != nil {
				logger.Log.Error("failed to abandon attempt",
					zap.Uint("attemptId", attempt.ID),
					zap.Error(err))
				continue
			}
			swept++
		}
	}

	if swept > 0 {
		logger.Log.Info("stale attempts swept", zap.Int("count", swept))
	}
	return swept, nil
}
