package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, relay *RelayHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/relay/status", health.Status)

	e.GET("/api/search", relay.Search)
	e.GET("/api/trending", relay.Trending)
	e.GET("/api/video/info", relay.VideoInfo)
	e.GET("/api/video/download", relay.Download)
	e.GET("/api/stream/:filename", relay.Stream)
	e.GET("/api/library", relay.Library)
	e.DELETE("/api/library/:filename", relay.Delete)
}
