package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/util"
	"adaptive_assessment_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const effectivenessCacheTTL = 5 * time.Minute

// ScoreResult is the outcome of scoring one attempt.
type ScoreResult struct {
	TotalScore      float64 `json:"totalScore"`
	PercentageScore float64 `json:"percentageScore"`
	Passed          bool    `json:"passed"`
}

// QuestionEffectiveness is the per-question analytics report.
type QuestionEffectiveness struct {
	QuestionID            uint     `json:"questionId"`
	UsageCount            int      `json:"usageCount"`
	SuccessRate           float64  `json:"successRate"`
	AverageTimeSpent      float64  `json:"averageTimeSpent"`
	DiscriminationIndex   float64  `json:"discriminationIndex"`
	CurrentDifficulty     float64  `json:"currentDifficulty"`
	StatisticalConfidence float64  `json:"statisticalConfidence"`
	Flags                 []string `json:"flags,omitempty"`
}

// AssessmentEffectiveness aggregates completed attempts at one assessment.
type AssessmentEffectiveness struct {
	AssessmentID     uint                    `json:"assessmentId"`
	CompletedCount   int                     `json:"completedCount"`
	AverageScore     float64                 `json:"averageScore"`
	PassRate         float64                 `json:"passRate"`
	AverageTimeSpent float64                 `json:"averageTimeSpent"`
	Questions        []QuestionEffectiveness `json:"questions"`
}

// AnalyticsService scores attempts and reports question and assessment
// effectiveness. Effectiveness reports are cached in redis when a client is
// configured; a nil client disables caching without changing behavior.
type AnalyticsService struct {
	QuestionRepo   *repository.QuestionRepository
	AttemptRepo    *repository.AttemptRepository
	AssessmentRepo *repository.AssessmentRepository
	Assessments    *AssessmentService
	Redis          *redis.Client

	defaultPassingScore float64
}

func NewAnalyticsService(
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	assessmentRepo *repository.AssessmentRepository,
	assessments *AssessmentService,
	redisClient *redis.Client,
	defaultPassingScore float64,
) *AnalyticsService {
	if defaultPassingScore <= 0 {
		defaultPassingScore = 60
	}
	return &AnalyticsService{
		QuestionRepo:        questionRepo,
		AttemptRepo:         attemptRepo,
		AssessmentRepo:      assessmentRepo,
		Assessments:         assessments,
		Redis:               redisClient,
		defaultPassingScore: defaultPassingScore,
	}
}

// CalculateScore scores an attempt under the assessment's scoring rules.
// Simple scoring: one point per correct response plus the recorded partial
// credit of non-correct responses, as a percentage of the question count.
// Weighted and custom methods are stored but not yet implemented; they fall
// back to simple scoring with a warning.
func (s *AnalyticsService) CalculateScore(a *model.Assessment, attempt *model.Attempt) ScoreResult {
	method := a.Scoring.Method
	if method != "" && method != model.ScoringMethodSimple {
		logger.Log.Warn("scoring method not implemented, falling back to simple",
			zap.String("method", method),
			zap.Uint("assessmentId", a.ID))
	}

	total := 0.0
	for _, r := range attempt.Responses {
		if r.Correct {
			total++
		} else if r.PartialScore != nil {
			total += *r.PartialScore
		}
	}

	pct := 0.0
	if n := len(attempt.Responses); n > 0 {
		pct = total / float64(n) * 100
	}

	passing := a.Scoring.PassingScore
	if passing <= 0 {
		passing = s.defaultPassingScore
	}

	return ScoreResult{
		TotalScore:      total,
		PercentageScore: pct,
		Passed:          pct >= passing,
	}
}

// questionEffectiveness builds the report from the question's aggregates.
// Discrimination is approximated from the success rate until per-cohort
// response data is tracked.
func questionEffectiveness(q *model.Question) QuestionEffectiveness {
	successRate := 0.0
	if q.UsageCount > 0 {
		successRate = float64(q.CorrectCount) / float64(q.UsageCount)
	}

	discrimination := clampRange((successRate-0.5)*2, -1, 1)

	confidence := float64(q.UsageCount) / 30
	if confidence > 1 {
		confidence = 1
	}

	var flags []string
	if q.UsageCount > 0 {
		if successRate > 0.9 {
			flags = append(flags, "too_easy")
		}
		if successRate < 0.3 {
			flags = append(flags, "too_hard")
		}
		if discrimination > -0.2 && discrimination < 0.2 {
			flags = append(flags, "low_discrimination")
		}
		if q.AverageTimeSpent < 5 {
			flags = append(flags, "suspicious_timings")
		}
	}

	return QuestionEffectiveness{
		QuestionID:            q.ID,
		UsageCount:            q.UsageCount,
		SuccessRate:           successRate,
		AverageTimeSpent:      q.AverageTimeSpent,
		DiscriminationIndex:   discrimination,
		CurrentDifficulty:     q.Difficulty.CurrentDifficulty,
		StatisticalConfidence: confidence,
		Flags:                 flags,
	}
}

func (s *AnalyticsService) GetQuestionEffectiveness(ctx context.Context, questionID uint) (*QuestionEffectiveness, error) {
	cacheKey := fmt.Sprintf("analytics:question:%d", questionID)
	var cached QuestionEffectiveness
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFound("question", questionID)
		}
		return nil, err
	}

	report := questionEffectiveness(q)
	s.cacheSet(ctx, cacheKey, report)
	return &report, nil
}

func (s *AnalyticsService) GetAssessmentEffectiveness(ctx context.Context, assessmentID uint) (*AssessmentEffectiveness, error) {
	cacheKey := fmt.Sprintf("analytics:assessment:%d", assessmentID)
	var cached AssessmentEffectiveness
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	if _, err := s.Assessments.FindOne(assessmentID); err != nil {
		return nil, err
	}

	attempts, err := s.AttemptRepo.ListCompletedByAssessment(assessmentID)
	if err != nil {
		return nil, err
	}

	report := &AssessmentEffectiveness{AssessmentID: assessmentID, CompletedCount: len(attempts)}
	if len(attempts) > 0 {
		scoreSum, timeSum, passed := 0.0, 0.0, 0
		for _, attempt := range attempts {
			scoreSum += attempt.PercentageScore
			timeSum += float64(attempt.TotalTimeSpent)
			if attempt.Passed {
				passed++
			}
		}
		n := float64(len(attempts))
		report.AverageScore = scoreSum / n
		report.AverageTimeSpent = timeSum / n
		report.PassRate = float64(passed) / n
	}

	ids, err := s.Assessments.QuestionIDs(assessmentID)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		questions, err := s.QuestionRepo.FindByIDs(ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]*model.Question, len(questions))
		for i := range questions {
			byID[questions[i].ID] = &questions[i]
		}
		for _, id := range ids {
			if q, ok := byID[id]; ok {
				report.Questions = append(report.Questions, questionEffectiveness(q))
			}
		}
	}

	s.cacheSet(ctx, cacheKey, report)
	return report, nil
}

// InvalidateAssessmentCache drops the cached effectiveness report; called
// after attempts complete so the next read reflects them.
func (s *AnalyticsService) InvalidateAssessmentCache(ctx context.Context, assessmentID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx, fmt.Sprintf("analytics:assessment:%d", assessmentID))
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.Redis == nil {
		return false
	}
	raw, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Log.Warn("analytics cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, v interface{}) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, raw, effectivenessCacheTTL).Err(); err != nil {
		logger.Log.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
