package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/torchd/pkg/api/handlers"
	"github.com/urmzd/torchd/pkg/device"
	"github.com/urmzd/torchd/pkg/device/schema"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine    *gin.Engine
	svc       device.Service
	session   handlers.Session
	validator *schema.Validator
}

// NewRouter creates a new API router around a started torch session
func NewRouter(svc device.Service, session handlers.Session, validator *schema.Validator) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:    engine,
		svc:       svc,
		session:   session,
		validator: validator,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.svc, r.session)
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		torchHandler := handlers.NewTorchHandler(r.session, r.validator)
		eventsHandler := handlers.NewEventsHandler(r.session)
		t := v1.Group("/torch")
		{
			t.GET("", torchHandler.GetTorch)
			t.PATCH("", torchHandler.SetTorch)
			t.POST("/toggle", torchHandler.Toggle)
			t.PUT("/intensity", torchHandler.SetIntensity)
			t.GET("/events", eventsHandler.Events)
		}

		notificationsHandler := handlers.NewNotificationsHandler(r.session)
		n := v1.Group("/notifications")
		{
			n.GET("", notificationsHandler.List)
			n.DELETE("/:id", notificationsHandler.Dismiss)
		}
	}
}

// Handler exposes the engine as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
