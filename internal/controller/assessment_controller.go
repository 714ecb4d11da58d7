package controller

import (
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/service"
	"adaptive_assessment_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

type membershipRequest struct {
	QuestionIDs []uint `json:"questionIds" binding:"required"`
}

// Create godoc
// @Summary Create an assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param body body service.AssessmentRequest true "Assessment definition"
// @Success 201 {object} util.Response{data=model.Assessment}
// @Failure 400 {object} util.Response
// @Router /api/assessments [post]
func (c *AssessmentController) Create(ctx *gin.Context) {
	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	a, err := c.AssessmentService.Create(claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// List godoc
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Param search query string false "Title search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/assessments [get]
func (c *AssessmentController) List(ctx *gin.Context) {
	var f repository.AssessmentFilter
	if err := ctx.ShouldBindQuery(&f); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	as, total, err := c.AssessmentService.FindAll(f)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: as, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// Get godoc
// @Summary Get an assessment
// @Tags assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id} [get]
func (c *AssessmentController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	a, err := c.AssessmentService.FindOne(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// Update godoc
// @Summary Update an assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param body body service.AssessmentRequest true "Assessment definition"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id} [put]
func (c *AssessmentController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AssessmentService.Update(id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// Delete godoc
// @Summary Delete an assessment
// @Tags assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id} [delete]
func (c *AssessmentController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AssessmentService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddQuestions godoc
// @Summary Add questions to an assessment
// @Description Already-present questions are skipped
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param body body membershipRequest true "Question ids"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Router /api/assessments/{id}/questions [post]
func (c *AssessmentController) AddQuestions(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req membershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AssessmentService.AddQuestions(id, req.QuestionIDs)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// RemoveQuestions godoc
// @Summary Remove questions from an assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param body body membershipRequest true "Question ids"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Router /api/assessments/{id}/questions [delete]
func (c *AssessmentController) RemoveQuestions(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req membershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AssessmentService.RemoveQuestions(id, req.QuestionIDs)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// Reorder godoc
// @Summary Reorder an assessment's questions
// @Description The body must be an exact permutation of the current membership
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param body body membershipRequest true "Ordered question ids"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/assessments/{id}/questions/reorder [put]
func (c *AssessmentController) Reorder(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req membershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AssessmentService.ReorderQuestions(id, req.QuestionIDs); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Duplicate godoc
// @Summary Duplicate an assessment
// @Description Clones the definition and membership; attempts are not cloned
// @Tags assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 201 {object} util.Response{data=model.Assessment}
// @Router /api/assessments/{id}/duplicate [post]
func (c *AssessmentController) Duplicate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	a, err := c.AssessmentService.Duplicate(claims.UserID, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, a)
}
