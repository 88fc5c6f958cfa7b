// Package analytics is the HTTP host of the schedule analysis engine. It
// loads project schedules from the projects database, runs the engine and
// caches reports in Redis.
package analytics

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/csaptu/flow/analytics/common/dto"
	"github.com/csaptu/flow/analytics/pkg/config"
	"github.com/csaptu/flow/analytics/pkg/httputil"
	"github.com/csaptu/flow/analytics/pkg/middleware"
	"github.com/csaptu/flow/analytics/schedule"
)

// Server represents the analytics service server
type Server struct {
	app    *fiber.App
	config *config.Config
	db     *pgxpool.Pool
	redis  *redis.Client
}

// NewServer creates a new analytics service server
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database connection
	db, err := InitDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis client
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	server := &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
	}

	engine := schedule.NewEngine(cfg.EnginePolicy(), &log.Logger)
	handler := NewAnalysisHandler(NewRepository(db), NewReportCache(redisClient, cfg.Cache.ReportTTL), engine)

	server.app = NewApp(cfg, handler, server.healthCheck)

	return server, nil
}

// NewApp builds the fiber app with the global middleware and routes
func NewApp(cfg *config.Config, handler *AnalysisHandler, health fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "flow-analytics-service",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.Recovery())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New())
	app.Use(helmet.New())

	// CORS
	if cfg.IsDevelopment() {
		app.Use(middleware.DevelopmentCORS())
	} else {
		app.Use(middleware.ProductionCORS(cfg.Server.AllowedOrigins))
	}

	registerRoutes(app, cfg, handler, health)
	return app
}

func registerRoutes(app *fiber.App, cfg *config.Config, handler *AnalysisHandler, health fiber.Handler) {
	// Health check
	if health != nil {
		app.Get("/health", health)
	}

	// API v1
	v1 := app.Group("/api/v1")

	// All routes require authentication
	v1.Use(middleware.Auth(middleware.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
	}))

	project := v1.Group("/projects/:id")
	project.Get("/analysis", handler.Analysis)
	project.Post("/analysis/refresh", handler.Refresh)
	project.Get("/critical-path", handler.CriticalPath)
	project.Get("/delay", handler.Delay)
	project.Get("/workload", handler.Workload)
	project.Get("/bottlenecks", handler.Bottlenecks)
	project.Get("/recommendations", handler.Recommendations)
}

func (s *Server) healthCheck(c *fiber.Ctx) error {
	services := make(map[string]string)

	// Check database
	if err := s.db.Ping(c.Context()); err != nil {
		services["database"] = "error"
	} else {
		services["database"] = "ok"
	}

	// Check Redis
	if err := s.redis.Ping(c.Context()).Err(); err != nil {
		services["redis"] = "error"
	} else {
		services["redis"] = "ok"
	}

	status := "healthy"
	for _, v := range services {
		if v == "error" {
			status = "unhealthy"
			break
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:   status,
		Version:  "1.0.0",
		Services: services,
	})
}

// Listen starts the HTTP server
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// ShutdownWithContext gracefully shuts down the server
func (s *Server) ShutdownWithContext(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.db != nil {
		s.db.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return err
}

// InitDatabase opens and pings a pgx pool
func InitDatabase(cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	// Ensure minimum pool size
	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 25
	}
	minConns := cfg.MaxIdleConns
	if minConns <= 0 {
		minConns = 5
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(minConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.Address())
	if err != nil {
		opt = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(dto.Error(httputil.ErrorCode(code), err.Error()))
}
