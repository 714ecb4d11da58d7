package controller

import (
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/service"
	"adaptive_assessment_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// Create godoc
// @Summary Create a question
// @Description Creates a question at version 1 with an optional difficulty seed
// @Tags questions
// @Accept json
// @Produce json
// @Param body body service.QuestionCreateRequest true "Question definition"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.Create(claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// List godoc
// @Summary List questions
// @Tags questions
// @Produce json
// @Param type query string false "Question type"
// @Param tagId query int false "Tag filter"
// @Param categoryId query int false "Category filter"
// @Param search query string false "Title/description search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	var f repository.QuestionFilter
	if err := ctx.ShouldBindQuery(&f); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	qs, total, err := c.QuestionService.FindAll(f)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: qs, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// Get godoc
// @Summary Get a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	q, err := c.QuestionService.FindOne(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// Update godoc
// @Summary Update a question
// @Description Applies a patch and appends a new version snapshot
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param body body service.QuestionUpdateRequest true "Fields to change"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.Update(claims.UserID, id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// Duplicate godoc
// @Summary Duplicate a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /api/questions/{id}/duplicate [post]
func (c *QuestionController) Duplicate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.Duplicate(claims.UserID, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// VersionHistory godoc
// @Summary List a question's version history
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response{data=[]model.QuestionVersion}
// @Router /api/questions/{id}/versions [get]
func (c *QuestionController) VersionHistory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	versions, err := c.QuestionService.GetVersionHistory(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, versions)
}

// GetVersion godoc
// @Summary Get one version of a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Param version path int true "Version number"
// @Success 200 {object} util.Response{data=model.QuestionVersion}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id}/versions/{version} [get]
func (c *QuestionController) GetVersion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(ctx.Param("version"))
	if err != nil {
		util.BadRequest(ctx, "invalid version")
		return
	}
	v, err := c.QuestionService.GetVersion(id, version)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// RestoreVersion godoc
// @Summary Restore a question to a historical version
// @Description Restoring appends a new version; history is never rewritten
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Param version path int true "Version number"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id}/versions/{version}/restore [post]
func (c *QuestionController) RestoreVersion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(ctx.Param("version"))
	if err != nil {
		util.BadRequest(ctx, "invalid version")
		return
	}
	claims := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.RestoreVersion(claims.UserID, id, version)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// AddTag godoc
// @Summary Attach a tag to a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Param tagId path int true "Tag ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id}/tags/{tagId} [post]
func (c *QuestionController) AddTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	tagID, ok := parseID(ctx, "tagId")
	if !ok {
		return
	}
	q, err := c.QuestionService.AddTag(id, tagID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// RemoveTag godoc
// @Summary Detach a tag from a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Param tagId path int true "Tag ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id}/tags/{tagId} [delete]
func (c *QuestionController) RemoveTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	tagID, ok := parseID(ctx, "tagId")
	if !ok {
		return
	}
	q, err := c.QuestionService.RemoveTag(id, tagID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// AddCategory godoc
// @Summary Attach a category to a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Param categoryId path int true "Category ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id}/categories/{categoryId} [post]
func (c *QuestionController) AddCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	catID, ok := parseID(ctx, "categoryId")
	if !ok {
		return
	}
	q, err := c.QuestionService.AddCategory(id, catID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// RemoveCategory godoc
// @Summary Detach a category from a question
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Param categoryId path int true "Category ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id}/categories/{categoryId} [delete]
func (c *QuestionController) RemoveCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	catID, ok := parseID(ctx, "categoryId")
	if !ok {
		return
	}
	q, err := c.QuestionService.RemoveCategory(id, catID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// Export godoc
// @Summary Export the question bank
// @Description Serializes the filtered bank to JSON or CSV and stores the artifact
// @Tags questions
// @Produce json
// @Param format query string false "json or csv"
// @Success 200 {object} util.Response
// @Router /api/questions/export [post]
func (c *QuestionController) Export(ctx *gin.Context) {
	var f repository.QuestionFilter
	if err := ctx.ShouldBindQuery(&f); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	url, err := c.QuestionService.ExportQuestions(ctx.Request.Context(), f, ctx.Query("format"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
