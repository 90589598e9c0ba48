package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config ThingSpeak桥接服务配置
type Config struct {
	MQTT  MQTTConfig
	Redis RedisConfig

	// 目录服务配置（API key 查询）
	Catalog struct {
		URL      string
		CacheTTL time.Duration
		Timeout  time.Duration
	}

	// ThingSpeak 写入配置
	ThingSpeak struct {
		WriteURL string
		Timeout  time.Duration
	}

	// 桥接服务特定配置
	Bridge struct {
		ServiceID string

		// 同一 (user, room) 两次写入之间的最小间隔（ThingSpeak 免费版限速 15s）
		MinPeriod time.Duration

		// 后台定时器间隔（检查 wakeup 强制发送）
		TickInterval time.Duration

		// MQTT 订阅主题（支持 {User}/{Room} 占位符，归一化为 + 通配符）
		Topics []string

		// 平均值字段（数值传感器通道）
		AverageFields []string
		// 布尔字段（执行器状态，编码为 1/0）
		BoolFields []string
		// 字段名 -> ThingSpeak 参数名（如 temp -> field1）
		FieldMap map[string]string

		// 报警计数判定的状态标记
		AlertStatus string

		// 快照发布到 Redis Streams（供下游服务消费）
		SnapshotEnabled bool
		SnapshotStream  string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Catalog.URL = getEnv("CATALOG_URL", "http://catalog:9080/catalog")
	cfg.Catalog.CacheTTL = getEnvDuration("CATALOG_CACHE_TTL", 5*time.Second)
	cfg.Catalog.Timeout = getEnvDuration("CATALOG_TIMEOUT", 5*time.Second)

	cfg.ThingSpeak.WriteURL = getEnv("TS_WRITE_URL", "https://api.thingspeak.com/update")
	cfg.ThingSpeak.Timeout = getEnvDuration("TS_TIMEOUT", 5*time.Second)

	cfg.Bridge.ServiceID = getEnv("BRIDGE_SERVICE_ID", "svc-bridge-ts")
	cfg.Bridge.MinPeriod = getEnvDuration("BRIDGE_MIN_PERIOD", 15*time.Second)
	cfg.Bridge.TickInterval = getEnvDuration("BRIDGE_TICK_INTERVAL", time.Second)
	cfg.Bridge.Topics = []string{
		getEnv("BRIDGE_TOPIC_TELEMETRY", "SC/{User}/{Room}/#"),
		getEnv("BRIDGE_TOPIC_ALERTS", "SC/alerts/{User}/{Room}/#"),
	}

	cfg.Bridge.AverageFields = []string{"temp", "hum", "bpm", "light"}
	cfg.Bridge.BoolFields = []string{"servoFan", "servoCurtain", "LedL"}
	cfg.Bridge.FieldMap = map[string]string{
		"temp":         "field1",
		"hum":          "field2",
		"bpm":          "field3",
		"light":        "field4",
		"servoFan":     "field5",
		"servoCurtain": "field6",
		"LedL":         "field7",
		"alerts":       "field8",
	}
	// 可通过环境变量覆盖字段映射（JSON 对象，如 {"temp":"field1"}）
	if raw := os.Getenv("TS_FIELD_MAP"); raw != "" {
		fieldMap := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &fieldMap); err != nil {
			return nil, fmt.Errorf("invalid TS_FIELD_MAP: %w", err)
		}
		if len(fieldMap) == 0 {
			return nil, fmt.Errorf("TS_FIELD_MAP must be a non-empty object")
		}
		cfg.Bridge.FieldMap = fieldMap
	}

	cfg.Bridge.AlertStatus = getEnv("BRIDGE_ALERT_STATUS", "ALERT")

	cfg.Bridge.SnapshotEnabled = getEnv("BRIDGE_SNAPSHOT_ENABLED", "false") == "true"
	cfg.Bridge.SnapshotStream = getEnv("BRIDGE_SNAPSHOT_STREAM", "bridge:snapshots")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Bridge.MinPeriod <= 0 {
		return nil, fmt.Errorf("BRIDGE_MIN_PERIOD must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 支持纯秒数（如 "15"）或 Go duration（如 "15s"）
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
