package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quantumexchange8/bankofgold/internal/handlers"
	"github.com/quantumexchange8/bankofgold/internal/middleware"
	"github.com/quantumexchange8/bankofgold/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	ImportHandler    *handlers.ImportHandler
	DuplicateHandler *handlers.DuplicateHandler
	LeadHandler      *handlers.LeadHandler
	SSEHandler       *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Imports
	api.POST("/imports", cfg.ImportHandler.CreateImport)
	api.GET("/imports", cfg.ImportHandler.ListImports)
	api.GET("/imports/:id", cfg.ImportHandler.GetImport)
	// Duplicates
	api.GET("/duplicates", cfg.DuplicateHandler.ListDuplicates)
	api.GET("/duplicates/:id/leads", cfg.DuplicateHandler.GetLinkedLeads)
	// Leads
	api.DELETE("/leads/:id", cfg.LeadHandler.DeleteLead)
	// SSE
	api.GET("/events", cfg.SSEHandler.Stream)

	return router
}
