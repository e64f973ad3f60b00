package routes

import (
	"go-label-printer/internal/handlers"
	"go-label-printer/internal/logger"
	"go-label-printer/internal/middleware"

	"github.com/gin-gonic/gin"
)

// maxRequestBody bounds print job payloads.
const maxRequestBody = 1 << 20

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Labels    *handlers.LabelHandler
	Templates  *handlers.LabelTemplateHandler
	Monitoring *handlers.MonitoringHandler
	Monitor    *middleware.PerformanceMonitor
	Ping       func() error
}

// NewEngine builds a gin engine with the request middleware chain and every
// label route registered.
func NewEngine(mode string, log *logger.StructuredLogger, h Handlers) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeadersMiddleware())
	if h.Monitor != nil {
		r.Use(h.Monitor.PerformanceMiddleware())
	}
	r.NoRoute(handlers.NotFoundHandler())

	SetupLabelRoutes(r, h)
	return r
}

// SetupLabelRoutes sets up the template, label and product image routes
func SetupLabelRoutes(r *gin.Engine, h Handlers) {
	if h.Monitor != nil {
		r.GET("/health", h.Monitor.HealthHandler(h.Ping))
	}

	api := r.Group("/api")
	api.Use(middleware.RequestSizeLimitMiddleware(maxRequestBody))
	{
		templates := api.Group("/label-templates")
		{
			templates.GET("", h.Templates.ListTemplates)
			templates.POST("", h.Templates.CreateTemplate)
			templates.GET("/:id", h.Templates.GetTemplate)
			templates.PUT("/:id", h.Templates.UpdateTemplate)
			templates.DELETE("/:id", h.Templates.DeleteTemplate)
			templates.GET("/:id/audit", h.Templates.GetTemplateAudit)
		}

		labels := api.Group("/labels")
		{
			labels.GET("/options", h.Templates.TemplateOptions)
			labels.POST("/wizard", h.Labels.Wizard)
			labels.POST("/print", h.Labels.Print)
			labels.POST("/preview", h.Labels.Preview)
		}

		products := api.Group("/products")
		{
			products.GET("/:id/barcode.png", h.Labels.ProductBarcode)
			products.GET("/:id/qr.png", h.Labels.ProductQR)
		}

		if h.Monitoring != nil {
			monitoring := api.Group("/monitoring")
			{
				monitoring.GET("/codec-failures", h.Monitoring.GetCodecFailures)
				monitoring.POST("/codec-failures/:fingerprint/resolve", h.Monitoring.ResolveCodecFailure)
				monitoring.GET("/performance", h.Monitoring.GetPerformanceMetrics)
			}
		}
	}
}
