package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/theleywin/love-on-the-pixel/src/backend"
	"github.com/theleywin/love-on-the-pixel/src/backend/gormstore"
	"github.com/theleywin/love-on-the-pixel/src/backend/mongostore"
	"github.com/theleywin/love-on-the-pixel/src/backend/reststore"
	"github.com/theleywin/love-on-the-pixel/src/config"
	"github.com/theleywin/love-on-the-pixel/src/controllers"
	"github.com/theleywin/love-on-the-pixel/src/errs"
	"github.com/theleywin/love-on-the-pixel/src/lib"
	"github.com/theleywin/love-on-the-pixel/src/middleware"
	"github.com/theleywin/love-on-the-pixel/src/realtime"
	"github.com/theleywin/love-on-the-pixel/src/routes"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Error connecting to the %s backend: %v", cfg.DBDriver, err)
	}
	if m, ok := db.(backend.Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			log.Fatalf("Error migrating database: %v", err)
		}
	}

	hub := realtime.NewHub()
	var events realtime.Publisher = hub
	if cfg.RedisAddr != "" {
		bridge := realtime.NewRedisHub(hub, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := bridge.Ping(ctx); err != nil {
			log.Fatalf("Error connecting to Redis at %s: %v", cfg.RedisAddr, err)
		}
		defer bridge.Close()
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[RealtimeRelay] Stopped: %v", err)
			}
		}()
		events = bridge
	}

	svc := services.New(db, events, services.Config{
		AppBaseURL: cfg.AppBaseURL,
		Tokens:     lib.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
	})

	go svc.Invitations.RunExpiry(ctx, cfg.ExpiryInterval, cfg.InvitationTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(lib.MessageResponse(fe.Message))
			}
			log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(errs.Status(err)).JSON(lib.MessageResponse("Internal server error"))
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Setup(app, controllers.New(svc, hub, events), middleware.ProtectRoute(svc.Accounts))

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		hub.Reset()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server is running on port %s (backend: %s)", cfg.Port, cfg.DBDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Close(closeCtx); err != nil {
		log.Printf("Error closing backend: %v", err)
	}
}

// openBackend connects the adapter DB_DRIVER selects.
func openBackend(ctx context.Context, cfg config.Config) (backend.Backend, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		return gormstore.OpenInMemory()
	case config.DriverSQLite:
		return gormstore.Open(gormstore.Config{Driver: "sqlite", DSN: cfg.DBPath, OnChange: logChange})
	case config.DriverPostgres:
		return gormstore.Open(gormstore.Config{Driver: "postgres", DSN: cfg.DatabaseURL, OnChange: logChange})
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverREST:
		return reststore.New(reststore.Config{URL: cfg.RESTURL, APIKey: cfg.RESTAPIKey}), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.DBDriver)
	}
}

func logChange(c gormstore.Change) {
	log.Printf("[DB] %s %s (%d rows)", c.Op, c.Table, c.RowsAffected)
}
