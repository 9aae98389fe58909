package main

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ghprime/jwt-pizza-service/internal/chaos"
	"github.com/ghprime/jwt-pizza-service/internal/config"
	"github.com/ghprime/jwt-pizza-service/internal/database"
	"github.com/ghprime/jwt-pizza-service/internal/factory"
	"github.com/ghprime/jwt-pizza-service/internal/handler"
	"github.com/ghprime/jwt-pizza-service/internal/logger"
	"github.com/ghprime/jwt-pizza-service/internal/metrics"
	"github.com/ghprime/jwt-pizza-service/internal/middleware"
	"github.com/ghprime/jwt-pizza-service/internal/router"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	m := metrics.New()
	m.StartSystemSampler(ctx, cfg.MetricsInterval)

	var sink io.Writer
	if cfg.LokiURL != "" {
		loki := logger.NewLokiSink(cfg.LokiURL, cfg.LokiUserID, cfg.LokiAPIKey, cfg.LogSource, m)
		loki.Start(ctx, 5*time.Second)
		sink = loki
	}
	lg := logger.New(cfg.LogSource, sink)

	dao, err := database.NewMySQLDAO(database.MySQLConfig{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPass,
		Name:           cfg.DBName,
		ConnectTimeout: cfg.DBConnectTimeout,
		PerPage:        cfg.ListPerPage,
	}, lg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	rdb := config.NewRedisClient(cfg.RedisAddr)
	chaosManager := chaos.NewManager()
	pizzaFactory := factory.NewClient(cfg.FactoryURL, cfg.FactoryAPIKey)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS)
	e.Use(middleware.Instrument(m))
	e.Use(middleware.Authenticate(dao, cfg.JWTSecret, lg))

	router.RegisterRoutes(e, handler.Docs(cfg))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, dao, m, lg))
	router.RegisterOrder(e, handler.NewOrderHandler(cfg, dao, pizzaFactory, chaosManager, m, rdb, lg), rdb)
	router.RegisterFranchise(e, handler.NewFranchiseHandler(dao, lg))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	addr := ":" + cfg.Port
	lg.Info().Str("addr", addr).Msg("service listening")
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
