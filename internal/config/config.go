// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	TTS      TTSConfig      `mapstructure:"tts"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。DSN 非空时优先于分项配置。
type MySQLConfig struct {
	DSN         string `mapstructure:"dsn"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	PoolSize    int    `mapstructure:"pool_size"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时不启用提示词缓存。
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	PromptTTL time.Duration `mapstructure:"prompt_ttl"`
}

// LLMConfig 存储大语言模型推理端点的配置。
type LLMConfig struct {
	URL        string              `mapstructure:"url"`
	APIKey     string              `mapstructure:"api_key"`
	Model      string              `mapstructure:"model"`
	ModelPath  string              `mapstructure:"model_path"`
	Timeout    time.Duration       `mapstructure:"timeout"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置固定的解码参数。零值表示不下发该参数。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ChatConfig 存储对话编排相关的策略。
type ChatConfig struct {
	HistoryLimit  int           `mapstructure:"history_limit"`
	DefaultPrompt string        `mapstructure:"default_prompt"`
	RecordTurns   bool          `mapstructure:"record_turns"`
	Summary       SummaryConfig `mapstructure:"summary"`
}

// SummaryConfig 控制标题/摘要的二次推理。
type SummaryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MaxMessages int    `mapstructure:"max_messages"`
	Instruction string `mapstructure:"instruction"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	BucketName      string        `mapstructure:"bucket_name"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// TTSConfig 存储 GPT-SoVITS 语音合成服务的配置。
type TTSConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ServerURL    string        `mapstructure:"server_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DefaultVoice string        `mapstructure:"default_voice"`
	Voices       []VoiceConfig `mapstructure:"voices"`
}

// VoiceConfig 描述一个可切换的角色音色。
type VoiceConfig struct {
	Name          string `mapstructure:"name"`
	GPTWeights    string `mapstructure:"gpt_weights"`
	SoVITSWeights string `mapstructure:"sovits_weights"`
	RefAudioPath  string `mapstructure:"ref_audio_path"`
	PromptText    string `mapstructure:"prompt_text"`
}

// 原始部署直接使用的环境变量名。
var legacyEnv = map[string]string{
	"llm.url":                 "IP",
	"llm.model_path":          "MODEL_PATH",
	"database.mysql.host":     "DB_HOST",
	"database.mysql.user":     "DB_USER",
	"database.mysql.password": "DB_PASSWORD",
	"database.mysql.database": "DB_NAME",
	"database.mysql.port":     "DB_PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.user", "root")
	v.SetDefault("database.mysql.database", "aichat")
	v.SetDefault("database.mysql.pool_size", 5)
	v.SetDefault("database.mysql.auto_migrate", true)
	v.SetDefault("database.mysql.dsn", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.redis.addr", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.prompt_ttl", "10m")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "qwen3")
	v.SetDefault("llm.timeout", "200s")
	v.SetDefault("llm.generation.max_tokens", 20000)
	v.SetDefault("chat.history_limit", 10)
	v.SetDefault("chat.default_prompt", "你是个智能助手")
	v.SetDefault("chat.record_turns", false)
	v.SetDefault("chat.summary.enabled", true)
	v.SetDefault("chat.summary.max_messages", 4)
	v.SetDefault("chat.summary.instruction", "请根据下面的对话生成一个不超过15个字的简短标题，只输出标题本身，不要输出任何解释。")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_expire_hours", 24)
	v.SetDefault("jwt.refresh_token_expire_days", 7)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "chat-turns")
	v.SetDefault("kafka.group_id", "aichat-go-turn-recorder")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.bucket_name", "tts-audio")
	v.SetDefault("minio.url_expiry", "24h")
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.server_url", "http://127.0.0.1:9880")
	v.SetDefault("tts.timeout", "300s")
}

// Load 从指定路径读取 YAML 配置，并叠加环境变量覆盖。
// 配置文件不存在时仅使用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AICHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "AICHAT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.LLM.URL == "" {
		return errors.New("llm.url 未配置（可通过环境变量 IP 提供）")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret 未配置（可通过环境变量 AICHAT_JWT_SECRET 提供）")
	}
	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat.history_limit 必须为正数, 当前: %d", c.Chat.HistoryLimit)
	}
	if c.Database.MySQL.PoolSize <= 0 {
		return fmt.Errorf("database.mysql.pool_size 必须为正数, 当前: %d", c.Database.MySQL.PoolSize)
	}
	if c.TTS.Enabled && len(c.TTS.Voices) == 0 {
		return errors.New("tts.enabled 为 true 时至少需要配置一个 voice")
	}
	return nil
}
