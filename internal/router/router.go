// Package router wires the HTTP routes of the management API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ishcherbinin/telegram-bot-booking/internal/config"
	"github.com/ishcherbinin/telegram-bot-booking/internal/handler"
	"github.com/ishcherbinin/telegram-bot-booking/internal/middleware"
)

// RegisterRoutes registers the routes that require no authentication.
// Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterBooking registers the staff booking endpoints under /v1. Every
// route requires a valid staff JWT and runs through the Redis-backed rate
// limiter; the limiter sits after authentication so it can key on the user
// id rather than the client IP.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RateLimit(rlCfg, rdb),
	)

	g.GET("/tables", h.ListTables)

	g.POST("/bookings/search", h.SearchTable)
	g.POST("/bookings/hold", h.HoldTable)
	g.POST("/bookings/confirm", h.ConfirmBooking)
	g.POST("/bookings/reject", h.RejectBooking)
	g.DELETE("/bookings", h.CancelBooking)

	g.GET("/my-bookings", h.MyBookings)
	g.GET("/reservations", h.ListReservations)

	g.POST("/backup", h.TriggerBackup)
}
