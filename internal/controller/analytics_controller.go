package controller

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/service"
	"adaptive_assessment_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService   *service.AnalyticsService
	CalibrationService *service.CalibrationService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService, calibrationService *service.CalibrationService) *AnalyticsController {
	return &AnalyticsController{
		AnalyticsService:   analyticsService,
		CalibrationService: calibrationService,
	}
}

// QuestionEffectiveness godoc
// @Summary Question effectiveness report
// @Description Success rate, discrimination, difficulty and quality flags for one question
// @Tags analytics
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response{data=service.QuestionEffectiveness}
// @Failure 404 {object} util.Response
// @Router /api/analytics/questions/{id} [get]
func (c *AnalyticsController) QuestionEffectiveness(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	report, err := c.AnalyticsService.GetQuestionEffectiveness(ctx.Request.Context(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// AssessmentEffectiveness godoc
// @Summary Assessment effectiveness report
// @Description Average score, pass rate and per-question breakdown over completed attempts
// @Tags analytics
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} util.Response{data=service.AssessmentEffectiveness}
// @Failure 404 {object} util.Response
// @Router /api/analytics/assessments/{id} [get]
func (c *AnalyticsController) AssessmentEffectiveness(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	report, err := c.AnalyticsService.GetAssessmentEffectiveness(ctx.Request.Context(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// Recalibrate godoc
// @Summary Force a recalibration check for a question
// @Description Returns null when the question is off the calibration cadence
// @Tags analytics
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response{data=service.CalibrationResult}
// @Failure 404 {object} util.Response
// @Router /api/analytics/questions/{id}/recalibrate [post]
func (c *AnalyticsController) Recalibrate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	result, err := c.CalibrationService.RecalibrateIfNeeded(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetCalibrationConfig godoc
// @Summary Current calibration parameters
// @Tags analytics
// @Produce json
// @Success 200 {object} util.Response{data=config.CalibrationConfig}
// @Router /api/analytics/calibration/config [get]
func (c *AnalyticsController) GetCalibrationConfig(ctx *gin.Context) {
	util.Success(ctx, c.CalibrationService.Config())
}

// UpdateCalibrationConfig godoc
// @Summary Update calibration parameters at runtime
// @Tags analytics
// @Accept json
// @Produce json
// @Param body body config.CalibrationConfig true "Calibration parameters"
// @Success 200 {object} util.Response{data=config.CalibrationConfig}
// @Failure 400 {object} util.Response
// @Router /api/analytics/calibration/config [put]
func (c *AnalyticsController) UpdateCalibrationConfig(ctx *gin.Context) {
	var cfg config.CalibrationConfig
	if err := ctx.ShouldBindJSON(&cfg); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.CalibrationService.UpdateConfig(cfg); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.CalibrationService.Config())
}
