package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wisefido-ts-bridge/internal/config"
	"wisefido-ts-bridge/internal/logger"
	"wisefido-ts-bridge/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-ts-bridge")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wisefido-ts-bridge service",
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("catalog_url", cfg.Catalog.URL),
		zap.String("ts_write_url", cfg.ThingSpeak.WriteURL),
		zap.Duration("min_period", cfg.Bridge.MinPeriod),
	)

	// 创建服务
	bridgeService, err := service.NewBridgeService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create bridge service", zap.Error(err))
	}

	// 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := bridgeService.Start(ctx); err != nil {
			zapLogger.Fatal("Failed to start bridge service", zap.Error(err))
		}
	}()

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	cancel()
	if err := bridgeService.Stop(ctx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
