package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/alirazi1992/helpdesk-backend/internal/config"
	"github.com/alirazi1992/helpdesk-backend/internal/http/handlers"
	"github.com/alirazi1992/helpdesk-backend/internal/http/middleware"
	"github.com/alirazi1992/helpdesk-backend/internal/repo"
	"github.com/alirazi1992/helpdesk-backend/internal/service"

	_ "github.com/alirazi1992/helpdesk-backend/docs"
)

// Backend bundles the repository views one storage backend provides.
type Backend struct {
	Tickets     repo.TicketRepository
	Technicians repo.TechnicianRepository
	Rules       repo.RuleRepository
	Runs        repo.RunRepository
	Pinger      handlers.Pinger
}

func Router(cfg config.Config, backend Backend, engine *service.Engine, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Engine:      engine,
		Tickets:     backend.Tickets,
		Technicians: backend.Technicians,
		Rules:       backend.Rules,
		Runs:        backend.Runs,
		Pinger:      backend.Pinger,
		Validator:   validator.New(),
		Logger:      logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/technicians", h.TechniciansList)
		api.GET("/rules", h.RulesList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.PUT("/rules/:id", h.RuleUpdate)
		admin.POST("/rules/:id/toggle", h.RuleToggle)
		admin.GET("/tickets/:id/recommendations", h.Recommendations)
		admin.POST("/tickets/:id/assign", h.Assign)
		admin.POST("/simulate", h.Simulate)
		admin.POST("/simulate/confirm", h.SimulateConfirm)
		admin.POST("/import", h.Import)
		admin.GET("/debug/score", h.DebugScore)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
