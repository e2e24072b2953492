package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/marko/tradelog-api/internal/config"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/handlers"
	authmw "github.com/marko/tradelog-api/internal/middleware"
	"github.com/marko/tradelog-api/internal/models"
	"github.com/marko/tradelog-api/internal/services"
	"github.com/marko/tradelog-api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	tradeService := services.NewTradeService(db)
	strategyService := services.NewStrategyService(db)
	tagService := services.NewTagService(db)
	sessions := session.NewBridge(userService, cfg.SessionTTL)

	authHandler := handlers.NewAuthHandler(cfg, userService, jwtService, sessions)
	userHandler := handlers.NewUserHandler(userService)
	tradeHandler := handlers.NewTradeHandler(tradeService)
	strategyHandler := handlers.NewStrategyHandler(strategyService)
	tagHandler := handlers.NewTagHandler(tagService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/session", authHandler.Session)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.RequireAuth(jwtService, userService))

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	owned := api.Group("")
	owned.Use(authmw.RequireAuth(jwtService, userService))
	owned.Use(authmw.Ownership())

	owned.Get("/trades", tradeHandler.List)
	owned.Post("/trades", tradeHandler.Create)
	owned.Get("/trades/:id", tradeHandler.Get)
	owned.Patch("/trades/:id", tradeHandler.Update)
	owned.Delete("/trades/:id", tradeHandler.Delete)
	owned.Post("/trades/:id/tags", tradeHandler.Tag)
	owned.Delete("/trades/:id/tags/:tagId", tradeHandler.Untag)

	owned.Get("/strategies", strategyHandler.List)
	owned.Post("/strategies", strategyHandler.Create)
	owned.Get("/strategies/:id", strategyHandler.Get)
	owned.Patch("/strategies/:id", strategyHandler.Update)
	owned.Delete("/strategies/:id", strategyHandler.Delete)

	owned.Get("/tags", tagHandler.List)
	owned.Post("/tags", tagHandler.Create)
	owned.Delete("/tags/:id", tagHandler.Delete)

	admin := api.Group("/admin")
	admin.Use(authmw.RequireAuth(jwtService, userService))
	admin.Use(authmw.RequireRole(models.RoleAdmin))

	admin.Get("/users", userHandler.ListUsers)
	admin.Patch("/users/:id/active", userHandler.SetUserActive)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
