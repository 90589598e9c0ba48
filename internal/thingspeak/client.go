package thingspeak

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client ThingSpeak 写入客户端
// 响应体为 entry ID；"0" 表示写入被拒绝（通常是限速），非传输错误
type Client struct {
	httpClient *resty.Client
	writeURL   string
	logger     *zap.Logger
}

// NewClient 创建 ThingSpeak 客户端
func NewClient(writeURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(timeout)

	return &Client{
		httpClient: httpClient,
		writeURL:   writeURL,
		logger:     logger,
	}
}

// Write 提交一次写入，params 为 fieldN -> 字符串值
// 返回 entry ID；entryID == 0 且 err == nil 表示软拒绝
func (c *Client) Write(ctx context.Context, apiKey string, params map[string]string) (int64, error) {
	query := map[string]string{"api_key": apiKey}
	for k, v := range params {
		query[k] = v
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(query).
		Post(c.writeURL)
	if err != nil {
		return 0, fmt.Errorf("failed to post to thingspeak: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("thingspeak returned status %d", resp.StatusCode())
	}

	body := strings.TrimSpace(string(resp.Body()))
	entryID, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected thingspeak response %q", body)
	}

	if entryID == 0 {
		c.logger.Warn("ThingSpeak rejected write (entry_id=0), likely rate-limit")
	}

	return entryID, nil
}
