package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	WebSocket WebSocketConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins lists the browser origins accepted by the CORS layer.
	AllowedOrigins []string
}

type AuthConfig struct {
	// JWTSecret validates user tokens locally; ignored when VerifyURL is set.
	JWTSecret string
	// VerifyURL points at the identity service's verify endpoint.
	VerifyURL string
	// ServiceSecret validates service-to-service tokens on the internal API.
	ServiceSecret string
}

type RedisConfig struct {
	// URL enables cross-instance fan-out and presence when set.
	URL          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type KafkaConfig struct {
	// Brokers enables the event consumer when non-empty.
	Brokers []string
	Topic   string
	GroupID string
}

type WebSocketConfig struct {
	AuthTimeout    time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("NOTIFY_HOST", "")
		viper.SetDefault("NOTIFY_PORT", "8080")
		viper.SetDefault("NOTIFY_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("NOTIFY_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("NOTIFY_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,https://localhost:3000,http://127.0.0.1:3000")
		viper.SetDefault("NOTIFY_JWT_SECRET", "secret")
		viper.SetDefault("NOTIFY_VERIFY_URL", "")
		viper.SetDefault("NOTIFY_SERVICE_SECRET", "service-secret")
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("KAFKA_BROKERS", "")
		viper.SetDefault("KAFKA_TOPIC", "platform-events")
		viper.SetDefault("KAFKA_GROUP_ID", "notify-gateway")
		viper.SetDefault("NOTIFY_WS_AUTH_TIMEOUT", 10*time.Second)
		viper.SetDefault("NOTIFY_WS_WRITE_WAIT", 10*time.Second)
		viper.SetDefault("NOTIFY_WS_PONG_WAIT", 60*time.Second)
		viper.SetDefault("NOTIFY_WS_MAX_MESSAGE_SIZE", 4096)
		viper.SetDefault("NOTIFY_WS_SEND_BUFFER", 256)
		viper.AutomaticEnv()

		var brokers []string
		if raw := viper.GetString("KAFKA_BROKERS"); raw != "" {
			for _, b := range strings.Split(raw, ",") {
				brokers = append(brokers, strings.TrimSpace(b))
			}
		}

		var origins []string
		if raw := viper.GetString("ALLOWED_ORIGINS"); raw != "" {
			for _, o := range strings.Split(raw, ",") {
				origins = append(origins, strings.TrimSpace(o))
			}
		}

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:           viper.GetString("NOTIFY_HOST"),
				Port:           viper.GetString("NOTIFY_PORT"),
				ReadTimeout:    viper.GetDuration("NOTIFY_READ_TIMEOUT"),
				WriteTimeout:   viper.GetDuration("NOTIFY_WRITE_TIMEOUT"),
				IdleTimeout:    viper.GetDuration("NOTIFY_IDLE_TIMEOUT"),
				AllowedOrigins: origins,
			},
			Auth: AuthConfig{
				JWTSecret:     viper.GetString("NOTIFY_JWT_SECRET"),
				VerifyURL:     viper.GetString("NOTIFY_VERIFY_URL"),
				ServiceSecret: viper.GetString("NOTIFY_SERVICE_SECRET"),
			},
			Redis: RedisConfig{
				URL:          viper.GetString("REDIS_URL"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			Kafka: KafkaConfig{
				Brokers: brokers,
				Topic:   viper.GetString("KAFKA_TOPIC"),
				GroupID: viper.GetString("KAFKA_GROUP_ID"),
			},
			WebSocket: WebSocketConfig{
				AuthTimeout:    viper.GetDuration("NOTIFY_WS_AUTH_TIMEOUT"),
				WriteWait:      viper.GetDuration("NOTIFY_WS_WRITE_WAIT"),
				PongWait:       viper.GetDuration("NOTIFY_WS_PONG_WAIT"),
				MaxMessageSize: viper.GetInt64("NOTIFY_WS_MAX_MESSAGE_SIZE"),
				SendBuffer:     viper.GetInt("NOTIFY_WS_SEND_BUFFER"),
			},
		}
	})

	return ConfigInstance, nil
}
