package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Templates   *TemplateHandler
	Generations *GenerationHandler
	Attachments *AttachmentHandler
	Drive       *DriveHandler
}

type RouterConfig struct {
	AllowOrigins []string
	Metrics      http.Handler
	Log          *zap.Logger
}

func NewRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.Log != nil {
		r.Use(ginzap.Ginzap(cfg.Log, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(cfg.Log, true))
	} else {
		r.Use(gin.Recovery())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", TenantHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := r.Group("/api/v1")
	{
		templates := v1.Group("/templates")
		templates.POST("", h.Templates.Upload)
		templates.GET("", h.Templates.List)
		templates.GET("/:id", h.Templates.Get)
		templates.DELETE("/:id", h.Templates.Delete)

		generations := v1.Group("/generations")
		generations.POST("", h.Generations.Create)
		generations.GET("", h.Generations.List)
		generations.GET("/:id", h.Generations.Get)
		generations.PATCH("/:id/finalize", h.Generations.Finalize)
		generations.PATCH("/:id/validate", h.Generations.Validate)
		generations.DELETE("/:id", h.Generations.Delete)
		generations.GET("/:id/events", h.Generations.Events)

		attachments := v1.Group("/attachments")
		attachments.POST("", h.Attachments.Upload)
		attachments.GET("/product/:productId", h.Attachments.ListByProduct)
		attachments.DELETE("/:id", h.Attachments.Delete)

		drive := v1.Group("/drive", RequireTenant())
		drive.GET("", h.Drive.Status)
		drive.POST("/credentials", h.Drive.SetCredentials)
		drive.POST("/folder", h.Drive.SetRootFolder)
	}

	return r
}
