package repository

import (
	"context"
	"sync"

	"wisefido-ts-bridge/internal/catalog"

	"go.uber.org/zap"
)

// CatalogSource 目录服务查询接口（单元测试中可替换）
type CatalogSource interface {
	GetUser(ctx context.Context, userID string) (*catalog.User, error)
	UsersAPIKeyMap(ctx context.Context) (map[[2]string]string, error)
}

// credential 缓存条目：write API key + 可选的 channel ID
type credential struct {
	writeKey string
	channel  string
}

// CredentialRepository (user, room) -> ThingSpeak 写入凭证
// 缓存未命中时同步查询目录服务；查询失败或无结果不缓存（后续调用重试）
type CredentialRepository struct {
	source CatalogSource
	logger *zap.Logger

	mu    sync.Mutex
	cache map[[2]string]credential
}

// NewCredentialRepository 创建凭证仓库
func NewCredentialRepository(source CatalogSource, logger *zap.Logger) *CredentialRepository {
	return &CredentialRepository{
		source: source,
		logger: logger,
		cache:  make(map[[2]string]credential),
	}
}

// Warm 启动时批量预载 (user, room) -> API key 映射（best-effort）
func (r *CredentialRepository) Warm(ctx context.Context) {
	keys, err := r.source.UsersAPIKeyMap(ctx)
	if err != nil {
		r.logger.Warn("Cannot load users from catalog", zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, apiKey := range keys {
		r.cache[k] = credential{writeKey: apiKey}
	}
	r.logger.Info("Credential cache warmed", zap.Int("count", len(keys)))
}

// Resolve 解析 (user, room) 的写入凭证
// 返回 ok=false 表示凭证不可用（目录无此用户或查询失败）
func (r *CredentialRepository) Resolve(ctx context.Context, user, room string) (writeKey, channelID string, ok bool) {
	key := [2]string{user, room}

	r.mu.Lock()
	if c, hit := r.cache[key]; hit {
		r.mu.Unlock()
		return c.writeKey, c.channel, true
	}
	r.mu.Unlock()

	// 缓存未命中：同步查询目录服务一次
	u, err := r.source.GetUser(ctx, user)
	if err != nil {
		r.logger.Warn("Cannot load user from catalog",
			zap.String("user_id", user),
			zap.Error(err),
		)
		return "", "", false
	}
	if u == nil || u.ThingspeakInfo == nil || len(u.ThingspeakInfo.APIKeys) == 0 {
		return "", "", false
	}

	c := credential{
		writeKey: u.ThingspeakInfo.APIKeys[0],
		channel:  u.ThingspeakInfo.Channel,
	}

	r.mu.Lock()
	r.cache[key] = c
	r.mu.Unlock()

	return c.writeKey, c.channel, true
}
