package controller

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/service"
	"adaptive_assessment_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// Start godoc
// @Summary Start an attempt
// @Description Opens a new IN_PROGRESS attempt; the maxAttempts quota counts completed attempts only
// @Tags attempts
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 201 {object} util.Response{data=model.Attempt}
// @Failure 403 {object} util.Response "Attempt quota exhausted"
// @Router /api/assessments/{id}/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	assessmentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	attempt, err := c.AttemptService.StartAttempt(claims.UserID, assessmentID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// SubmitResponse godoc
// @Summary Submit a question response
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path int true "Attempt ID"
// @Param questionId path int true "Question ID"
// @Param body body service.SubmitResponseRequest true "Response payload"
// @Success 200 {object} util.Response{data=model.QuestionResponse}
// @Failure 409 {object} util.Response "Attempt is no longer in progress"
// @Router /api/attempts/{id}/responses/{questionId} [post]
func (c *AttemptController) SubmitResponse(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := parseID(ctx, "questionId")
	if !ok {
		return
	}
	var req service.SubmitResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if !c.ownAttempt(ctx, attemptID) {
		return
	}
	resp, err := c.AttemptService.SubmitResponse(attemptID, questionID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// Submit godoc
// @Summary Submit an attempt for scoring
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 409 {object} util.Response "Attempt is no longer in progress"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if !c.ownAttempt(ctx, attemptID) {
		return
	}
	attempt, err := c.AttemptService.SubmitAttempt(attemptID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// Abandon godoc
// @Summary Abandon an attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Router /api/attempts/{id}/abandon [post]
func (c *AttemptController) Abandon(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if !c.ownAttempt(ctx, attemptID) {
		return
	}
	attempt, err := c.AttemptService.AbandonAttempt(attemptID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// Get godoc
// @Summary Get an attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *AttemptController) Get(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	attempt, err := c.AttemptService.GetAttempt(attemptID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims.Role == model.Student && attempt.StudentID != claims.UserID {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, attempt)
}

// ListByAssessment godoc
// @Summary List attempts at an assessment
// @Description Students see only their own attempts; teachers see all
// @Tags attempts
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Router /api/assessments/{id}/attempts [get]
func (c *AttemptController) ListByAssessment(ctx *gin.Context) {
	assessmentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	var studentID *uint
	if claims.Role == model.Student {
		studentID = &claims.UserID
	}

	attempts, err := c.AttemptService.GetAssessmentAttempts(assessmentID, studentID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// ownAttempt rejects students touching attempts that are not theirs.
func (c *AttemptController) ownAttempt(ctx *gin.Context, attemptID uint) bool {
	claims := util.GetUserFromContext(ctx)
	if claims.Role != model.Student {
		return true
	}
	attempt, err := c.AttemptService.GetAttempt(attemptID)
	if err != nil {
		util.RespondError(ctx, err)
		return false
	}
	if attempt.StudentID != claims.UserID {
		util.Forbidden(ctx)
		return false
	}
	return true
}
