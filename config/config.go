package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	OSS        OSSConfig        `mapstructure:"oss"`
	Log        LogConfig        `mapstructure:"log"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Comment    CommentConfig    `mapstructure:"comment"`
	Attachment AttachmentConfig `mapstructure:"attachment"`
	Events     EventsConfig     `mapstructure:"events"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
	SignExpire      int64  `mapstructure:"sign_expire"` // 私有桶签名有效期（秒），0 表示使用公开 URL
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type CommentConfig struct {
	DefaultLimit     int `mapstructure:"default_limit"`      // 默认分页大小
	MaxLimit         int `mapstructure:"max_limit"`          // 最大分页大小
	MaxContentLength int `mapstructure:"max_content_length"` // 评论最大长度（字符）
	MaxAttachments   int `mapstructure:"max_attachments"`    // 单条评论最多附件数
	ListCacheSeconds int `mapstructure:"list_cache_seconds"` // 列表缓存时间，0 表示不缓存
}

type AttachmentConfig struct {
	ReserveMinutes  int `mapstructure:"reserve_minutes"`  // 上传后未绑定的保留时间
	CleanupInterval int `mapstructure:"cleanup_interval"` // 过期附件清理间隔（分钟）
	CleanupBatch    int `mapstructure:"cleanup_batch"`    // 每轮最多清理条数
}

type EventsConfig struct {
	PubSubChannel string `mapstructure:"pubsub_channel"`
	RetryQueue    string `mapstructure:"retry_queue"`
	MaxWorkers    int    `mapstructure:"max_workers"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
}

func Load(configPath string) (*Config, error) {
	// .env 只用于本地开发，不存在时忽略
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("comment.default_limit", 10)
	v.SetDefault("comment.max_limit", 100)
	v.SetDefault("comment.max_content_length", 2000)
	v.SetDefault("comment.max_attachments", 9)
	v.SetDefault("comment.list_cache_seconds", 30)
	v.SetDefault("attachment.reserve_minutes", 60)
	v.SetDefault("attachment.cleanup_interval", 15)
	v.SetDefault("attachment.cleanup_batch", 200)
	v.SetDefault("events.pubsub_channel", "comment_events")
	v.SetDefault("events.retry_queue", "comment_event_retry")
	v.SetDefault("events.max_workers", 2)
	v.SetDefault("events.max_attempts", 5)
}
