// main.go
//
// A schema-driven admin back-office data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-admindb.
// jam-build-admindb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-admindb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-admindb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/database"
	"github.com/localnerve/jam-build-admindb/internal/handlers"
	"github.com/localnerve/jam-build-admindb/internal/logging"
	"github.com/localnerve/jam-build-admindb/internal/metrics"
	"github.com/localnerve/jam-build-admindb/internal/middleware"
	"github.com/localnerve/jam-build-admindb/internal/notify"
	"github.com/localnerve/jam-build-admindb/internal/resolve"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"github.com/localnerve/jam-build-admindb/internal/storage"
	"github.com/localnerve/jam-build-admindb/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/localnerve/jam-build-admindb/docs/api" // Swagger docs
)

// @title AdminDB API
// @version 1.0.0
// @description Schema-driven admin back-office data service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/jam-build-admindb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// A registry that fails to build never serves
	reg, err := schema.LoadRegistry(cfg.SchemaFile, cfg.AdminEmails, cfg.PeopleTable)
	if err != nil {
		zlog.Fatal("Failed to build schema registry", zap.Error(err))
	}

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		zlog.Fatal("Failed to register metrics", zap.Error(err))
	}

	engineCfg := resolve.Config{Concurrency: cfg.ResolveConcurrency, Metrics: m}
	if cfg.StorageBaseURL != "" {
		signer, err := storage.NewSigner(cfg.StorageBaseURL, cfg.StorageSigningKey, cfg.StorageURLTTL)
		if err != nil {
			zlog.Fatal("Failed to configure file storage", zap.Error(err))
		}
		engineCfg.Storage = signer
	}

	sinks := []notify.Sink{notify.LogSink{Log: zlog}}
	if cfg.RedisURL != "" {
		redisSink, err := notify.NewRedisSinkFromURL(cfg.RedisURL, cfg.NotifyChannel)
		if err != nil {
			zlog.Fatal("Failed to configure redis notifications", zap.Error(err))
		}
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
	}
	dispatcher := notify.NewDispatcher(zlog, 256, sinks...)
	defer dispatcher.Close()

	identity, err := services.NewAuthorizerIdentity(cfg, "http://localhost:"+cfg.Port, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize authorizer", zap.Error(err))
	}

	st := store.NewGormStore(db, reg)
	engine := resolve.New(reg, st, engineCfg)
	admin := services.NewAdminService(reg, st, engine)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prom := fiberprometheus.New("admindb")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	api.Use(middleware.Identity(identity))

	handlers.Register(api, handlers.Handlers{
		Tables:   &handlers.TableHandler{Admin: admin},
		Resolve:  &handlers.ResolveHandler{Admin: admin},
		Views:    &handlers.ViewHandler{Views: services.NewViewService(reg, db)},
		Comments: &handlers.CommentHandler{Comments: services.NewCommentService(reg, db, st, dispatcher)},
		Health: &handlers.HealthHandler{
			Cfg:    cfg,
			DB:     db,
			Tables: len(reg.NavigableTables()),
			Log:    zlog,
		},
	})

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		zlog.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	zlog.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.Int("tables", len(reg.NavigableTables())),
		zap.String("database", cfg.DBType))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Error("Server stopped with error", zap.Error(err))
		return
	}

	zlog.Info("Server stopped")
}
