package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"content-eval/internal/config"
	"content-eval/internal/handler"
	"content-eval/internal/middleware"
	"content-eval/internal/repository"
	"content-eval/internal/service"
	"content-eval/internal/utils"
	"content-eval/pkg/provider"
)

// SetupRouter builds the gin engine with all routes wired.
func SetupRouter(cfg *config.Config, db *gorm.DB, registry *provider.Registry, redisClient *redis.Client) *gin.Engine {
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(&cfg.CORS))

	// repositories
	expRepo := repository.NewExperimentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	genRepo := repository.NewGenerationRepository(db)
	blindRepo := repository.NewBlindMappingRepository(db)
	evalRepo := repository.NewEvaluationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// services
	jwtManager := utils.NewJWTManager(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.GetExpireDuration())
	logger := logrus.StandardLogger()

	authService := service.NewAuthService(userRepo, jwtManager)
	expService := service.NewExperimentService(expRepo, taskRepo, registry)
	enumerator := service.NewEnumerator(taskRepo, registry)
	orchestrator := service.NewOrchestrator(expRepo, genRepo, enumerator, registry, redisClient, cfg, logger)
	blindService := service.NewBlindService(expRepo, genRepo, taskRepo, blindRepo, logger)
	evalService := service.NewEvaluationService(expRepo, genRepo, blindRepo, evalRepo, logger)
	analysisService := service.NewAnalysisService(expRepo, genRepo, evalRepo)

	if err := authService.InitEvaluator(&cfg.Auth); err != nil {
		logger.WithError(err).Fatal("bootstrap evaluator account")
	}

	// handlers
	authHandler := handler.NewAuthHandler(authService)
	expHandler := handler.NewExperimentHandler(expService)
	genHandler := handler.NewGenerationHandler(orchestrator)
	evalHandler := handler.NewEvaluationHandler(blindService, evalService)
	analysisHandler := handler.NewAnalysisHandler(analysisService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/login", authHandler.Login)

		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtManager))
		{
			authorized.GET("/me", authHandler.GetMe)
			authorized.GET("/tasks", expHandler.Tasks)

			authorized.POST("/experiments", expHandler.Create)
			authorized.GET("/experiments", expHandler.List)
			authorized.GET("/experiments/:id", expHandler.Get)

			authorized.POST("/experiments/:id/generate", genHandler.Start)
			authorized.POST("/experiments/:id/generate/single", genHandler.Single)
			authorized.GET("/experiments/:id/generate/progress", genHandler.Progress)
			authorized.POST("/experiments/:id/generate/cancel", genHandler.Cancel)

			authorized.GET("/experiments/:id/evaluate/next", evalHandler.Next)
			authorized.POST("/experiments/:id/evaluate/skip/:blind_id", evalHandler.Skip)
			authorized.POST("/experiments/:id/evaluate/submit", evalHandler.Submit)
			authorized.GET("/experiments/:id/evaluate/progress", evalHandler.Progress)

			authorized.GET("/experiments/:id/analysis/summary", analysisHandler.Summary)
			authorized.GET("/experiments/:id/analysis/by-model", analysisHandler.ByModel)
			authorized.GET("/experiments/:id/analysis/by-strategy", analysisHandler.ByStrategy)
			authorized.GET("/experiments/:id/analysis/by-task", analysisHandler.ByTask)
			authorized.GET("/experiments/:id/analysis/export", analysisHandler.Export)
		}
	}

	return r
}
