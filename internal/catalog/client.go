package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Document 目录服务完整文档
type Document struct {
	Broker       BrokerInfo `json:"broker"`
	ServicesList []Service  `json:"servicesList"`
	UsersList    []User     `json:"usersList"`
}

// BrokerInfo MQTT broker 信息
type BrokerInfo struct {
	IP   string `json:"IP"`
	Port int    `json:"port"`
}

// Service 服务注册信息
type Service struct {
	ServiceID    string   `json:"serviceID"`
	RESTEndpoint string   `json:"REST_endpoint,omitempty"`
	MQTTSub      []string `json:"MQTT_sub,omitempty"`
	MQTTPub      []string `json:"MQTT_pub,omitempty"`
}

// User 用户信息（含 ThingSpeak 凭证）
type User struct {
	UserID         string          `json:"userID"`
	RoomID         string          `json:"roomID"`
	ThingspeakInfo *ThingspeakInfo `json:"thingspeak_info,omitempty"`
}

// ThingspeakInfo 用户的 ThingSpeak 写入凭证
type ThingspeakInfo struct {
	APIKeys []string `json:"apikeys"`
	Channel string   `json:"channel,omitempty"`
}

// Client 目录服务客户端（带 TTL 文档缓存）
type Client struct {
	httpClient *resty.Client
	url        string
	ttl        time.Duration
	logger     *zap.Logger

	mu        sync.Mutex
	cached    *Document
	fetchedAt time.Time
}

// NewClient 创建目录服务客户端
func NewClient(url string, ttl, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		url:        url,
		ttl:        ttl,
		logger:     logger,
	}
}

// Get 获取目录文档（缓存未过期时直接返回）
func (c *Client) Get(ctx context.Context, force bool) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !force && c.cached != nil && now.Sub(c.fetchedAt) <= c.ttl {
		return c.cached, nil
	}

	var doc Document
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&doc).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode())
	}

	c.cached = &doc
	c.fetchedAt = now
	return c.cached, nil
}

// GetUser 按 userID 查询单个用户
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	doc, err := c.Get(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range doc.UsersList {
		if doc.UsersList[i].UserID == userID {
			return &doc.UsersList[i], nil
		}
	}
	return nil, nil
}

// UsersAPIKeyMap 返回 (userID, roomID) -> 首个 write API key
func (c *Client) UsersAPIKeyMap(ctx context.Context) (map[[2]string]string, error) {
	doc, err := c.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	out := make(map[[2]string]string)
	for _, u := range doc.UsersList {
		if u.UserID == "" || u.ThingspeakInfo == nil || len(u.ThingspeakInfo.APIKeys) == 0 {
			continue
		}
		room := u.RoomID
		if room == "" {
			room = "Room1"
		}
		out[[2]string{u.UserID, room}] = u.ThingspeakInfo.APIKeys[0]
	}
	return out, nil
}

// UpsertService 注册/更新服务描述（启动时 best-effort 调用）
func (c *Client) UpsertService(ctx context.Context, svc *Service) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(svc).
		Post(c.url + "/services")
	if err != nil {
		return fmt.Errorf("failed to upsert service: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("catalog upsert returned status %d", resp.StatusCode())
	}

	c.logger.Info("Service registered in catalog",
		zap.String("service_id", svc.ServiceID),
	)
	return nil
}
