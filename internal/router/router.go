package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/config"
	"github.com/stemsi/exstem-results/internal/handler"
	"github.com/stemsi/exstem-results/internal/middleware"
	"github.com/stemsi/exstem-results/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Class     *handler.ClassHandler
	Subject   *handler.SubjectHandler
	Exam      *handler.ExamHandler
	Result    *handler.ResultHandler
	Stream    *handler.StreamHandler
	Dashboard *handler.DashboardHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	handlers *Handlers,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// If AllowedOrigins is set, restrict to that list; otherwise allow all.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// Exports are heavy; score edits fan out to every live stream.
	exportLimiter := middleware.NewRateLimiter(rdb, "export", 10, time.Minute, log)
	editLimiter := middleware.NewRateLimiter(rdb, "score_edit", 60, time.Minute, log)

	// ─── Admin API (JWT) ───────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(auth), middleware.NoStore())
	{
		adminAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)
		adminAPI.GET("/system/metrics", handlers.System.Metrics)

		classes := adminAPI.Group("/classes")
		{
			classes.GET("", handlers.Class.ListClasses)
			classes.POST("", handlers.Class.CreateClass)
			classes.PUT("/:id", handlers.Class.UpdateClass)
			classes.DELETE("/:id", handlers.Class.DeleteClass)
		}

		subjects := adminAPI.Group("/subjects")
		{
			subjects.GET("", handlers.Subject.ListSubjects)
			subjects.POST("", handlers.Subject.CreateSubject)
			subjects.PUT("/:id", handlers.Subject.UpdateSubject)
			subjects.DELETE("/:id", handlers.Subject.DeleteSubject)
		}

		adminAPI.GET("/exam-types", handlers.Exam.ListExamTypes)
		exams := adminAPI.Group("/exams")
		{
			exams.GET("", handlers.Exam.ListExams)
			exams.POST("", handlers.Exam.CreateExam)
			exams.GET("/:id", handlers.Exam.GetExam)
			exams.PATCH("/:id", handlers.Exam.UpdateExam)
			exams.DELETE("/:id", handlers.Exam.DeleteExam)
		}

		results := adminAPI.Group("/results")
		{
			results.GET("", handlers.Result.ListResults)
			results.GET("/export", exportLimiter.Middleware(), handlers.Result.ExportResults)
			results.GET("/stream", handlers.Stream.ResultsSSE)
			results.PUT("/:id/score", editLimiter.Middleware(), handlers.Result.UpdateScore)
			results.DELETE("/:id", handlers.Result.DeleteResult)
		}
	}

	// ─── WebSocket (JWT via ?token=) ───────────────────────────────────
	wsGroup := router.Group("/ws/v1/admin")
	wsGroup.Use(middleware.RequireAdminJWT(auth))
	{
		wsGroup.GET("/results/stream", handlers.Stream.ResultsWebSocket)
	}

	return router
}
