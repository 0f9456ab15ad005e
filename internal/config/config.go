package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/talhadevelopes/a11yguard-sub001/pkg/config"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Mongo     MongoConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	PubSub    PubSubConfig `mapstructure:"pubsub"`
	Storage   storage.Config
	Report    ReportConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	PoolSize int `mapstructure:"pool_size"`
}

type CacheConfig struct {
	Prefix         string
	WebsitesTTL    time.Duration `mapstructure:"websites_ttl"`
	SnapshotsTTL   time.Duration `mapstructure:"snapshots_ttl"`
	ResultsTTL     time.Duration `mapstructure:"results_ttl"`
	OpTimeout      time.Duration `mapstructure:"op_timeout"`
	BreakerMaxFail uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    string
	Topic      string
	Partitions int
}

type PubSubConfig struct {
	Enabled    bool
	Channel    string
	InstanceID string `mapstructure:"instance_id"`
}

type ReportConfig struct {
	RendererCommand string        `mapstructure:"renderer_command"`
	RendererArgs    []string      `mapstructure:"renderer_args"`
	Timeout         time.Duration
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("websocket.ping_interval", "25s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 16384)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.allowed_origins", []string{})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("cache.prefix", "a11yguard")
	v.SetDefault("cache.websites_ttl", "5m")
	v.SetDefault("cache.snapshots_ttl", "2m")
	v.SetDefault("cache.results_ttl", "2m")
	v.SetDefault("cache.op_timeout", "500ms")
	v.SetDefault("cache.breaker_max_failures", 5)
	v.SetDefault("cache.breaker_timeout", "30s")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "a11yguard")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "a11yguard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/a11yguard.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "snapshot.captured")
	v.SetDefault("kafka.partitions", 6)
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.channel", "a11yguard:socket:fanout")
	v.SetDefault("pubsub.instance_id", "")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/reports")
	v.SetDefault("storage.local.url_prefix", "/files")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("report.renderer_command", "wkhtmltopdf")
	v.SetDefault("report.renderer_args", []string{"--quiet", "-", "-"})
	v.SetDefault("report.timeout", "30s")
	v.SetDefault("report.url_expiry", "15m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("cache.prefix", "CACHE_PREFIX")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.database", "MONGO_DATABASE")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("pubsub.enabled", "PUBSUB_ENABLED")
	v.BindEnv("pubsub.instance_id", "INSTANCE_ID")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("report.renderer_command", "REPORT_RENDERER")
	v.BindEnv("log.level", "LOG_LEVEL")
}
