package service

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/util"
	"adaptive_assessment_backend/pkg/logger"
	"adaptive_assessment_backend/pkg/monitoring"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultCalibrationConfig returns the documented heuristic defaults.
func DefaultCalibrationConfig() config.CalibrationConfig {
	return config.CalibrationConfig{
		SuccessWeight:       0.7,
		TimeWeight:          0.3,
		Threshold:           10,
		Frequency:           5,
		ExpectedTimeSeconds: 30,
	}
}

// ResponseOutcome is one submitted response as seen by the calibration
// engine. Counter policy: usageCount always increments; a correct response
// increments correctCount; a skipped or partial-credit response increments
// neither correctness counter; everything else increments incorrectCount.
type ResponseOutcome struct {
	Correct      bool
	PartialScore float64
	TimeSpent    int // seconds
	HintUsed     bool
	Skipped      bool
}

// CalibrationResult reports one recalibration of a question.
type CalibrationResult struct {
	QuestionID         uint     `json:"questionId"`
	PreviousDifficulty float64  `json:"previousDifficulty"`
	NewDifficulty      float64  `json:"newDifficulty"`
	ConfidenceDelta    float64  `json:"confidenceDelta"`
	SampleSize         int      `json:"sampleSize"`
	Recommendations    []string `json:"recommendations"`
}

// CalibrationService recalibrates question difficulty from accumulated
// response statistics. Recalibrations for one question are serialized via a
// keyed mutex; different questions proceed concurrently.
type CalibrationService struct {
	QuestionRepo *repository.QuestionRepository

	cfgMu sync.RWMutex
	cfg   config.CalibrationConfig

	locks *util.KeyedMutex
}

func NewCalibrationService(questionRepo *repository.QuestionRepository, cfg config.CalibrationConfig) *CalibrationService {
	if cfg.Threshold <= 0 {
		cfg = DefaultCalibrationConfig()
	}
	return &CalibrationService{
		QuestionRepo: questionRepo,
		cfg:          cfg,
		locks:        util.NewKeyedMutex(),
	}
}

func (s *CalibrationService) Config() config.CalibrationConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig swaps the heuristic parameters at runtime (config hot reload).
func (s *CalibrationService) UpdateConfig(cfg config.CalibrationConfig) error {
	if w := cfg.SuccessWeight + cfg.TimeWeight; w < 0.999 || w > 1.001 {
		return fmt.Errorf("calibration weights must sum to 1, got %.3f", w)
	}
	if cfg.Threshold <= 0 || cfg.Frequency <= 0 || cfg.ExpectedTimeSeconds <= 0 {
		return errors.New("calibration threshold, frequency and expected time must be positive")
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	logger.Log.Info("calibration config updated",
		zap.Float64("successWeight", cfg.SuccessWeight),
		zap.Float64("timeWeight", cfg.TimeWeight),
		zap.Int("threshold", cfg.Threshold),
		zap.Int("frequency", cfg.Frequency))
	return nil
}

func (s *CalibrationService) questionKey(id uint) string {
	return fmt.Sprintf("question:%d", id)
}

// RecordResponse folds one response outcome into the question's aggregate
// counters and mirrored difficulty metrics. Must be called exactly once per
// submitted response, before the response is considered durable.
func (s *CalibrationService) RecordResponse(questionID uint, out ResponseOutcome) error {
	key := s.questionKey(questionID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFound("question", questionID)
		}
		return err
	}

	q.UsageCount++
	n := float64(q.UsageCount)
	q.AverageTimeSpent = (q.AverageTimeSpent*(n-1) + float64(out.TimeSpent)) / n

	switch {
	case out.Correct:
		q.CorrectCount++
	case out.Skipped || out.PartialScore > 0:
		// neither counter
	default:
		q.IncorrectCount++
	}

	successRate := float64(q.CorrectCount) / n

	q.Difficulty.TotalAttempts = q.UsageCount
	q.Difficulty.SuccessRate = successRate
	q.Difficulty.AverageTimeSpent = q.AverageTimeSpent

	if err := s.QuestionRepo.Save(q); err != nil {
		return err
	}
	monitoring.ResponsesRecorded.Inc()
	return nil
}

// RecalibrateIfNeeded runs a calibration when the question has accumulated
// enough attempts and sits on the calibration cadence; otherwise it is a
// no-op returning nil.
func (s *CalibrationService) RecalibrateIfNeeded(questionID uint) (*CalibrationResult, error) {
	key := s.questionKey(questionID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFound("question", questionID)
		}
		return nil, err
	}

	cfg := s.Config()
	attempts := q.Difficulty.TotalAttempts
	if attempts < cfg.Threshold || attempts%cfg.Frequency != 0 {
		return nil, nil
	}

	result := s.CalibrateDifficulty(q)
	if err := s.QuestionRepo.Save(q); err != nil {
		return nil, err
	}

	monitoring.CalibrationRuns.Inc()
	logger.Log.Info("question recalibrated",
		zap.Uint("questionId", q.ID),
		zap.Float64("previousDifficulty", result.PreviousDifficulty),
		zap.Float64("newDifficulty", result.NewDifficulty),
		zap.Int("sampleSize", result.SampleSize))
	return result, nil
}

// CalibrateDifficulty recomputes the question's empirical difficulty in
// place and returns the calibration report. Difficulty blends the failure
// rate with a time-pressure factor on a 0-100 scale; the blend weights come
// from configuration and sum to 1, keeping the scale intact.
func (s *CalibrationService) CalibrateDifficulty(q *model.Question) *CalibrationResult {
	cfg := s.Config()
	m := &q.Difficulty

	successRateFactor := (1 - m.SuccessRate) * 100
	timeFactor := (m.AverageTimeSpent / cfg.ExpectedTimeSeconds) * 50
	if timeFactor > 100 {
		timeFactor = 100
	}
	newDifficulty := successRateFactor*cfg.SuccessWeight + timeFactor*cfg.TimeWeight

	var step float64
	switch {
	case m.TotalAttempts < 10:
		step = 0.10
	case m.TotalAttempts < 30:
		step = 0.05
	case m.TotalAttempts < 100:
		step = 0.02
	default:
		step = 0.01
	}
	delta := step
	if m.CalibrationConfidence+delta > 1 {
		delta = 1 - m.CalibrationConfidence
	}

	previous := m.CurrentDifficulty
	m.CurrentDifficulty = newDifficulty
	m.CalibrationConfidence += delta

	halfWidth := (1 - m.CalibrationConfidence) * 25
	lower := clampRange(newDifficulty-halfWidth, 0, 100)
	upper := clampRange(newDifficulty+halfWidth, 0, 100)
	m.ConfidenceLower = &lower
	m.ConfidenceUpper = &upper

	var recs []string
	if newDifficulty < 15 && m.SuccessRate > 0.9 {
		recs = append(recs, "Question appears too easy; consider revising the distractors or retiring it")
	}
	if newDifficulty > 85 && m.SuccessRate < 0.3 {
		recs = append(recs, "Question appears too hard; review the wording or the expected answer")
	}
	if m.CalibrationConfidence < 0.3 {
		recs = append(recs, "Calibration needs more data before the difficulty estimate is reliable")
	}

	return &CalibrationResult{
		QuestionID:         q.ID,
		PreviousDifficulty: previous,
		NewDifficulty:      newDifficulty,
		ConfidenceDelta:    delta,
		SampleSize:         m.TotalAttempts,
		Recommendations:    recs,
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
