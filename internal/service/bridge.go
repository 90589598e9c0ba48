package service

import (
	"context"
	"fmt"

	"wisefido-ts-bridge/internal/bridge"
	"wisefido-ts-bridge/internal/catalog"
	"wisefido-ts-bridge/internal/config"
	"wisefido-ts-bridge/internal/consumer"
	mqttcommon "wisefido-ts-bridge/internal/mqtt"
	rediscommon "wisefido-ts-bridge/internal/redis"
	"wisefido-ts-bridge/internal/repository"
	"wisefido-ts-bridge/internal/thingspeak"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BridgeService ThingSpeak 桥接服务
type BridgeService struct {
	config     *config.Config
	logger     *zap.Logger
	redis      *redis.Client
	mqttClient *mqttcommon.Client
	catalog    *catalog.Client
	credRepo   *repository.CredentialRepository
	engine     *bridge.Engine
	consumer   *consumer.MQTTConsumer
}

// NewBridgeService 创建桥接服务
func NewBridgeService(cfg *config.Config, logger *zap.Logger) (*BridgeService, error) {
	// 目录服务客户端与凭证仓库
	catalogClient := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.CacheTTL, cfg.Catalog.Timeout, logger)
	credRepo := repository.NewCredentialRepository(catalogClient, logger)

	// 可选的快照发布（Redis Streams）
	var redisClient *redis.Client
	var publisher bridge.SnapshotPublisher
	if cfg.Bridge.SnapshotEnabled {
		redisClient = rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		publisher = bridge.NewStreamSnapshotPublisher(redisClient, cfg.Bridge.SnapshotStream, logger)
	}

	// ThingSpeak 写入客户端
	tsClient := thingspeak.NewClient(cfg.ThingSpeak.WriteURL, cfg.ThingSpeak.Timeout, logger)

	// 聚合引擎
	fields := bridge.NewFieldSet(
		cfg.Bridge.AverageFields,
		cfg.Bridge.BoolFields,
		[]string{bridge.AlertsField},
		bridge.DefaultAliases,
	)
	store := bridge.NewStore(fields)
	engine := bridge.NewEngine(
		store,
		fields,
		cfg.Bridge.FieldMap,
		cfg.Bridge.MinPeriod,
		cfg.Bridge.AlertStatus,
		credRepo,
		tsClient,
		publisher,
		logger,
	)

	// MQTT 客户端（ClientID 未配置时生成带随机后缀的 ID，避免多实例冲突）
	mqttCfg := cfg.MQTT
	if mqttCfg.ClientID == "" {
		mqttCfg.ClientID = cfg.Bridge.ServiceID + "-" + uuid.NewString()[:8]
	}
	mqttClient, err := mqttcommon.NewClient(&mqttCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	mqttConsumer := consumer.NewMQTTConsumer(cfg, mqttClient, engine, logger)

	return &BridgeService{
		config:     cfg,
		logger:     logger,
		redis:      redisClient,
		mqttClient: mqttClient,
		catalog:    catalogClient,
		credRepo:   credRepo,
		engine:     engine,
		consumer:   mqttConsumer,
	}, nil
}

// Start 启动服务（阻塞直到 ctx 取消）
func (s *BridgeService) Start(ctx context.Context) error {
	s.logger.Info("Starting bridge service components")

	// 启动时预载凭证缓存（best-effort）
	s.credRepo.Warm(ctx)

	// 向目录注册服务描述（best-effort）
	if err := s.catalog.UpsertService(ctx, &catalog.Service{
		ServiceID: s.config.Bridge.ServiceID,
		MQTTSub:   s.consumer.Subscriptions(),
	}); err != nil {
		s.logger.Warn("Cannot upsert service in catalog", zap.Error(err))
	}

	// 后台定时器：驱动延迟强制发送
	go s.engine.RunTicker(ctx, s.config.Bridge.TickInterval)

	// MQTT 消费者（阻塞）
	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}

	return nil
}

// Stop 停止服务
func (s *BridgeService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping bridge service")

	if s.consumer != nil {
		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if s.redis != nil {
		rediscommon.Close(s.redis)
	}

	s.logger.Info("Bridge service stopped")
	return nil
}
