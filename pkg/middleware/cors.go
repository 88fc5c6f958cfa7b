package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	corsMethods = "GET,POST,OPTIONS"
	corsHeaders = "Origin,Content-Type,Accept,Authorization,X-Request-ID"
	corsExpose  = "Content-Length,Content-Type,X-Request-ID,X-Cache"
)

// DevelopmentCORS allows the local web apps
func DevelopmentCORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000,http://localhost:8080,http://127.0.0.1:3000",
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		AllowCredentials: true,
		ExposeHeaders:    corsExpose,
		MaxAge:           0,
	})
}

// ProductionCORS allows the configured origins
func ProductionCORS(allowedOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		AllowCredentials: true,
		ExposeHeaders:    corsExpose,
		MaxAge:           86400, // 24 hours
	})
}
