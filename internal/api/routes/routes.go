package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"notify-gateway/internal/api/handlers"
	"notify-gateway/internal/api/middleware"
	"notify-gateway/internal/websocket"
)

type Router struct {
	engine        *gin.Engine
	wsHandler     *handlers.WSHandler
	notifyHandler *handlers.NotifyHandler
	serviceAuthMW *middleware.ServiceAuthMiddleware
}

func NewRouter(hub *websocket.Hub, serviceSecret string, allowedOrigins []string) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(allowedOrigins))
	engine.Use(middleware.LogApi())

	return &Router{
		engine:        engine,
		wsHandler:     handlers.NewWSHandler(hub),
		notifyHandler: handlers.NewNotifyHandler(hub, hub),
		serviceAuthMW: middleware.NewServiceAuthMiddleware(serviceSecret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// Client-facing WebSocket endpoint. Authentication happens in-band over
	// the socket, not here.
	api.GET("/ws", r.wsHandler.HandleWebSocket)

	// Internal API for backend services
	internal := api.Group("/internal")
	internal.Use(r.serviceAuthMW.RequireService())
	{
		internal.POST("/notify", r.notifyHandler.Notify)
		internal.POST("/broadcast", r.notifyHandler.Broadcast)
		internal.GET("/online", r.notifyHandler.Online)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
