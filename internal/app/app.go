package app

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/controller"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/service"
	"adaptive_assessment_backend/pkg/configwatcher"
	"adaptive_assessment_backend/pkg/database"
	"adaptive_assessment_backend/pkg/logger"
	"adaptive_assessment_backend/pkg/monitoring"
	"adaptive_assessment_backend/pkg/security"
	"adaptive_assessment_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user            *repository.UserRepository
	question        *repository.QuestionRepository
	questionVersion *repository.QuestionVersionRepository
	taxonomy        *repository.TaxonomyRepository
	assessment      *repository.AssessmentRepository
	attempt         *repository.AttemptRepository
}

type services struct {
	storage     *service.StorageService
	auth        *service.AuthService
	question    *service.QuestionService
	calibration *service.CalibrationService
	assessment  *service.AssessmentService
	analytics   *service.AnalyticsService
	attempt     *service.AttemptService
}

type controllers struct {
	auth       *controller.AuthController
	question   *controller.QuestionController
	assessment *controller.AssessmentController
	attempt    *controller.AttemptController
	analytics  *controller.AnalyticsController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:            repository.NewUserRepository(db),
		question:        repository.NewQuestionRepository(db),
		questionVersion: repository.NewQuestionVersionRepository(db),
		taxonomy:        repository.NewTaxonomyRepository(db),
		assessment:      repository.NewAssessmentRepository(db),
		attempt:         repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.auth = service.NewAuthService(repos.user, cfg)
	s.question = service.NewQuestionService(repos.question, repos.questionVersion, repos.taxonomy, s.storage, db)
	s.calibration = service.NewCalibrationService(repos.question, cfg.Calibration)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.question, db, cfg.Scoring.DefaultPassingScore)
	s.analytics = service.NewAnalyticsService(repos.question, repos.attempt, repos.assessment, s.assessment, rdb, cfg.Scoring.DefaultPassingScore)
	s.attempt = service.NewAttemptService(repos.attempt, repos.assessment, repos.question, s.assessment, s.calibration, s.analytics, cfg.AttemptSweep)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		question:   controller.NewQuestionController(s.question),
		assessment: controller.NewAssessmentController(s.assessment),
		attempt:    controller.NewAttemptController(s.attempt),
		analytics:  controller.NewAnalyticsController(s.analytics, s.calibration),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the stale-attempt sweeper and the config watcher
// that feeds calibration parameter changes into the running service.
func (a *App) startBackgroundTasks(s *services) {
	if a.Config.AttemptSweep.Enabled {
		interval := time.Duration(a.Config.AttemptSweep.IntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go func() {
			ticker := time.NewTicker(interval)
			for range ticker.C {
				if _, err := s.attempt.SweepStaleAttempts(time.Now()); err != nil {
					logger.Log.Error("attempt sweep error", zap.Error(err))
				}
			}
		}()
	}

	go configwatcher.WatchConfig("configs/config.yaml", func(cfg *config.Config) {
		if err := s.calibration.UpdateConfig(cfg.Calibration); err != nil {
			logger.Log.Error("rejected reloaded calibration config", zap.Error(err))
		}
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, analytics caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("assessment-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/exports", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
