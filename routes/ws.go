package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"event-booking-server/middleware"
	ws "event-booking-server/websocket"
)

// RegisterWebSocketRoutes exposes the realtime notification channel
func RegisterWebSocketRoutes(router *gin.RouterGroup, hub *ws.Hub, upgrader websocket.Upgrader, requireToken gin.HandlerFunc) {
	router.GET("/ws/notifications", requireToken, func(c *gin.Context) {
		ws.ServeWebSocket(hub, upgrader, c.Writer, c.Request, c.GetUint(middleware.ContextUserID))
	})
}
