package main

import (
	"strings"

	"erp-backend/internal/admin"
	"erp-backend/internal/apperror"
	"erp-backend/internal/audit"
	"erp-backend/internal/auth"
	"erp-backend/internal/authz"
	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/inventory"
	"erp-backend/internal/production"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	log := config.Logger()
	db := database.Init(cfg)
	loc := cfg.Location()

	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// CORS_ALLOWED_ORIGINS is a comma separated list
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	w := audit.NewWriter(db, log)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/setup-boss", auth.SetupBossHandler(db))
	api.Post("/auth/login", auth.LoginHandler(cfg, db))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, db))

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Put("/auth/me", auth.UpdateMeHandler(db))

	inventory.RegisterRoutes(protected, inventory.NewServices(db, log, w, loc))
	production.RegisterRoutes(protected, production.NewServices(db, w, loc))

	admin.RegisterRoutes(protected.Group("/admin"), db, w)

	protected.Get("/audit-logs", auth.RequireAction(authz.ViewAuditLog), audit.ListAuditLogsHandler(w))

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
