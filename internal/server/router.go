package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/handlers"
	"github.com/yungbote/lessonforge-backend/internal/middleware"
)

type RouterConfig struct {
	CORSOrigins    []string
	AuthMiddleware *middleware.AuthMiddleware
	ToolsHandler   *handlers.ToolsHandler
	LessonHandler  *handlers.LessonHandler
	CatalogHandler *handlers.CatalogHandler
	ProfileHandler *handlers.ProfileHandler
	EventsHandler  *handlers.EventsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Actor-Email"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	catalog := router.Group("/api/catalog")
	{
		catalog.GET("", cfg.CatalogHandler.List)
		catalog.GET("/:account/lessons/:id", cfg.CatalogHandler.GetLesson)
		catalog.GET("/:account/lessons/:id/sections/:key", cfg.CatalogHandler.GetSection)
		catalog.GET("/:account/profile", cfg.CatalogHandler.GetProfile)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireActor())
	// Tools dispatch
	protected.GET("/tools", cfg.ToolsHandler.List)
	protected.POST("/tools/:name", cfg.ToolsHandler.Invoke)
	// Lessons
	protected.GET("/lessons", cfg.LessonHandler.List)
	protected.GET("/lessons/:id", cfg.LessonHandler.Get)
	protected.GET("/lessons/:id/sections", cfg.LessonHandler.Sections)
	protected.GET("/lessons/:id/sections/:key", cfg.LessonHandler.Section)
	protected.GET("/lessons/:id/generator", cfg.LessonHandler.Generator)
	protected.POST("/lessons/:id/icon", cfg.LessonHandler.PutIcon)
	protected.GET("/lessons/:id/report", cfg.LessonHandler.GetReport)
	protected.PUT("/lessons/:id/report", cfg.LessonHandler.PutReport)
	// Profile
	protected.GET("/profile", cfg.ProfileHandler.Get)
	protected.PUT("/profile", cfg.ProfileHandler.Put)
	// Live updates
	protected.GET("/events", cfg.EventsHandler.Stream)

	return router
}
