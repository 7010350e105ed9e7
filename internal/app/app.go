package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"footballshop/internal/config"
	"footballshop/internal/handlers"
	"footballshop/internal/models"
	"footballshop/internal/repositories"
	"footballshop/internal/services"
	"footballshop/pkg/rabbitmq"
	"footballshop/web"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Deps are the storage and messaging collaborators of the HTTP server.
type Deps struct {
	Products repositories.ProductRepository
	Users    repositories.UserRepository
	Sessions repositories.SessionRepository
	Events   services.EventPublisher // optional
}

// NewServer wires services and handlers into a Fiber app.
func NewServer(cfg config.Config, deps Deps, log *zap.Logger) *fiber.App {
	productService := services.NewProductService(deps.Products, deps.Users, deps.Events, log)
	authService := services.NewAuthService(deps.Users, deps.Sessions, cfg.SessionSecret, cfg.SessionLength)

	app := fiber.New(fiber.Config{
		Views:                 web.NewEngine(),
		ErrorHandler:          errorHandler(log),
		DisableStartupMessage: true,
		Immutable:             true, // params are kept as map keys by the memory store
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: zap.NewStdLog(log.Named("http")).Writer(),
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handlers.NewAuthHandler(authService, cfg.SessionLength, log).RegisterRoutes(app)
	handlers.NewProductHandler(productService, authService, log).RegisterRoutes(app)
	handlers.NewExportHandler(productService, authService, log).RegisterRoutes(app)
	handlers.NewProxyHandler(cfg.ProxyTimeout, log).RegisterRoutes(app)

	return app
}

// errorHandler renders errors escaping the handlers as JSON.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"message": statusMessage(code),
			"error":   err.Error(),
		})
	}
}

func statusMessage(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "Not found"
	case fiber.StatusMethodNotAllowed:
		return "Method not allowed"
	case fiber.StatusBadRequest:
		return "Bad request"
	default:
		return "Internal server error"
	}
}

// OpenDatabase connects to the configured SQL database and migrates the
// schema.
func OpenDatabase(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// GORMDeps builds the repositories backed by db.
func GORMDeps(db *gorm.DB) Deps {
	return Deps{
		Products: repositories.NewGORMProductRepository(db),
		Users:    repositories.NewGORMUserRepository(db),
		Sessions: repositories.NewGORMSessionRepository(db),
	}
}

// MemoryDeps builds in-memory repositories; data is lost on exit.
func MemoryDeps() Deps {
	users := repositories.NewMemoryUserRepository()
	return Deps{
		Products: repositories.NewMemoryProductRepository(),
		Users:    users,
		Sessions: repositories.NewMemorySessionRepository(users),
	}
}

// App is the running shop: HTTP server plus the resources it owns.
type App struct {
	Server *fiber.App
	cfg    config.Config
	mq     *rabbitmq.Client
	log    *zap.Logger
}

// New opens storage and messaging according to cfg and builds the server.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	var deps Deps
	if cfg.DatabaseDriver == "memory" {
		deps = MemoryDeps()
	} else {
		db, err := OpenDatabase(cfg)
		if err != nil {
			return nil, err
		}
		deps = GORMDeps(db)
	}

	a := &App{cfg: cfg, log: log}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return nil, err
		}
		a.mq = mq
		deps.Events = mq
	} else {
		log.Info("RABBITMQ_URL not set, product events disabled")
	}

	a.Server = NewServer(cfg, deps, log)
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		a.log.Info("starting server", zap.String("addr", a.cfg.AppPort))
		errc <- a.Server.Listen(a.cfg.AppPort)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	if err := a.Server.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}

// Close releases the messaging connection.
func (a *App) Close() error {
	if a.mq == nil {
		return nil
	}
	return a.mq.Close()
}
