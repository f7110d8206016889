package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"questhub/internal/cache"
	"questhub/internal/config"
	"questhub/internal/database"
	"questhub/internal/logger"
	"questhub/internal/server"
	"questhub/internal/storage"
	"questhub/internal/web3"
	"questhub/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "配置文件路径（默认在 ./ 与 ./configs 下查找 questhub.yaml）")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "questhub:", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	// 配置
	opts := []config.Option{
		config.WithConfigName("questhub"),
		config.WithConfigType("yaml"),
		config.WithConfigPaths(".", "./configs"),
		config.WithDefaults(config.Defaults()),
		config.WithEnvPrefix("QUESTHUB"),
	}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg := config.New(opts...)
	if err := cfg.Load(); err != nil {
		// 无配置文件时退回默认值加环境变量
		if !errors.Is(err, config.ErrConfigNotFound) {
			return fmt.Errorf("load config: %w", err)
		}
	}

	var app config.AppConfig
	if err := cfg.Unmarshal(&app); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if app.Server.AuthSecret == "" {
		return errors.New("server.auth_secret is required (QUESTHUB_SERVER_AUTH_SECRET)")
	}

	// 日志
	logConfig := &logger.Config{
		Level:   logger.ParseLevel(app.Log.Level),
		Format:  logger.Format(app.Log.Format),
		Console: true,
	}
	if app.Log.File != "" {
		logConfig.Rotate = &logger.RotateConfig{
			Filename: app.Log.File,
			MaxSize:  app.Log.MaxSize,
		}
	}
	log, err := logger.New(logConfig)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	gin.SetMode(app.Server.Mode)

	// 数据库
	db, err := database.New(&database.Config{
		Type:            database.DBType(app.Database.Type),
		DSN:             app.Database.DSN,
		Replicas:        app.Database.Replicas,
		MaxIdleConns:    app.Database.MaxIdleConns,
		MaxOpenConns:    app.Database.MaxOpenConns,
		ConnMaxLifetime: app.Database.ConnMaxLifetime,
		LogLevel:        app.Database.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	store := storage.New(db)
	if err := store.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// 缓存：启用 redis 时走 redis，否则进程内缓存
	cacheConfig := cache.DefaultConfig()
	cacheConfig.KeyPrefix = "questhub:"
	if app.Redis.TTL > 0 {
		cacheConfig.DefaultTTL = app.Redis.TTL
	}
	if app.Redis.Enabled {
		cacheConfig.Driver = cache.DriverRedis
		cacheConfig.Redis = &cache.RedisConfig{
			Addr:     app.Redis.Addr,
			Password: app.Redis.Password,
			DB:       app.Redis.DB,
		}
	}
	c, err := cache.New(cacheConfig)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer c.Close()

	// 实时消息服务
	wsOpts := []ws.Option{
		ws.WithMaxConnections(app.WS.MaxConnections),
		ws.WithMaxMessageSize(app.WS.MaxMessageSize),
		ws.WithSendQueueSize(app.WS.SendQueueSize),
		ws.WithHeartbeat(app.WS.HeartbeatInterval, app.WS.HeartbeatTimeout),
	}
	if len(app.WS.AllowedOrigins) > 0 {
		wsOpts = append(wsOpts, ws.WithCheckOriginWhitelist(app.WS.AllowedOrigins))
	}
	realtime, err := ws.NewService(store, log, wsOpts...)
	if err != nil {
		return fmt.Errorf("init websocket service: %w", err)
	}

	// HTTP 服务器
	srv := server.New(store, c, web3.NewStub(), realtime, log, server.Options{
		AuthSecret:   app.Server.AuthSecret,
		AllowOrigins: app.Server.AllowOrigins,
		RateLimit:    app.Server.RateLimit,
	})

	httpServer := &http.Server{
		Addr:    app.Server.Addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", app.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.Server.ShutdownTimeout)
	defer cancel()

	realtime.Shutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
