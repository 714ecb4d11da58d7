package app

import (
	"adaptive_assessment_backend/docs"
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/middleware"
	"adaptive_assessment_backend/internal/model"

	"adaptive_assessment_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// registerStudentRoutes covers what any authenticated user may do: browse
// assessments and run their own attempts.
func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/me", c.auth.Me)

	rg.GET("/assessments", c.assessment.List)
	rg.GET("/assessments/:id", c.assessment.Get)

	rg.POST("/assessments/:id/attempts", c.attempt.Start)
	rg.GET("/assessments/:id/attempts", c.attempt.ListByAssessment)
	rg.GET("/attempts/:id", c.attempt.Get)
	rg.POST("/attempts/:id/responses/:questionId", c.attempt.SubmitResponse)
	rg.POST("/attempts/:id/submit", c.attempt.Submit)
	rg.POST("/attempts/:id/abandon", c.attempt.Abandon)
}

// registerTeacherRoutes covers authoring and analytics. Admins pass the role
// gate implicitly.
func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/questions", c.question.Create)
		teacher.GET("/questions", c.question.List)
		teacher.POST("/questions/export", c.question.Export)
		teacher.GET("/questions/:id", c.question.Get)
		teacher.PUT("/questions/:id", c.question.Update)
		teacher.POST("/questions/:id/duplicate", c.question.Duplicate)
		teacher.GET("/questions/:id/versions", c.question.VersionHistory)
		teacher.GET("/questions/:id/versions/:version", c.question.GetVersion)
		teacher.POST("/questions/:id/versions/:version/restore", c.question.RestoreVersion)
		teacher.POST("/questions/:id/tags/:tagId", c.question.AddTag)
		teacher.DELETE("/questions/:id/tags/:tagId", c.question.RemoveTag)
		teacher.POST("/questions/:id/categories/:categoryId", c.question.AddCategory)
		teacher.DELETE("/questions/:id/categories/:categoryId", c.question.RemoveCategory)

		teacher.POST("/assessments", c.assessment.Create)
		teacher.PUT("/assessments/:id", c.assessment.Update)
		teacher.DELETE("/assessments/:id", c.assessment.Delete)
		teacher.POST("/assessments/:id/questions", c.assessment.AddQuestions)
		teacher.DELETE("/assessments/:id/questions", c.assessment.RemoveQuestions)
		teacher.PUT("/assessments/:id/questions/reorder", c.assessment.Reorder)
		teacher.POST("/assessments/:id/duplicate", c.assessment.Duplicate)

		teacher.GET("/analytics/questions/:id", c.analytics.QuestionEffectiveness)
		teacher.POST("/analytics/questions/:id/recalibrate", c.analytics.Recalibrate)
		teacher.GET("/analytics/assessments/:id", c.analytics.AssessmentEffectiveness)
		teacher.GET("/analytics/calibration/config", c.analytics.GetCalibrationConfig)
		teacher.PUT("/analytics/calibration/config", c.analytics.UpdateCalibrationConfig)
	}
}
