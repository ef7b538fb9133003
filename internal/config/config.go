package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Port          int              `json:"port"`
	Env           string           `json:"env"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Auth          AuthConfig       `json:"auth"`
	AI            AIConfig         `json:"ai"`
	Knowledge     KnowledgeConfig  `json:"knowledge"`
	Cache         CacheConfig      `json:"cache"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	Database      DatabaseConfig   `json:"database"`
	Jobs          JobsConfig       `json:"jobs"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

type AIConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Timeout  int         `json:"timeout"`
	Data     interface{} `json:"data"`
}

type KnowledgeConfig struct {
	Namespace     string       `json:"namespace"`
	MinChunkChars int          `json:"min_chunk_chars"`
	TopK          int          `json:"top_k"`
	Source        SourceConfig `json:"source"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

type RateLimitConfig struct {
	WindowMs int `json:"window_ms"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

func (c DatabaseConfig) Enabled() bool {
	return c.DSN != "" || c.Host != ""
}

type JobsConfig struct {
	UsageReportSpec  string `json:"usage_report_spec"`
	AuditCleanupSpec string `json:"audit_cleanup_spec"`
	AuditMaxAgeDays  int    `json:"audit_max_age_days"`
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	// a missing .env is fine, the file is only a local convenience
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	var cfg Config
	if err := decode(path, data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
		return nil
	}
	// yaml goes through a generic map so the json tags stay the single
	// source of key names
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode yaml config: %w", err)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode yaml config: %w", err)
	}
	if err := json.Unmarshal(normalized, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		data, ok := cfg.AI.Data.(map[string]interface{})
		if !ok || data == nil {
			data = map[string]interface{}{}
		}
		data["api_key"] = key
		cfg.AI.Data = data
	}
	if secret := strings.TrimSpace(os.Getenv("GSQLAI_JWT_SECRET")); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		cfg.Port = port
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.0-flash"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.Data == nil {
		cfg.AI.Data = map[string]interface{}{}
	}
	if cfg.Knowledge.MinChunkChars <= 0 {
		cfg.Knowledge.MinChunkChars = 50
	}
	if cfg.Knowledge.TopK <= 0 {
		cfg.Knowledge.TopK = 7
	}
	if cfg.Knowledge.Source.Type == "" {
		cfg.Knowledge.Source.Type = "local"
	}
	switch cfg.Knowledge.Source.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("knowledge.source.type must be local or s3")
	}
	if cfg.RateLimit.WindowMs == 0 {
		cfg.RateLimit.WindowMs = 1000
	}
	if cfg.Cache.Size <= 0 {
		cfg.Cache.Size = 512
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 1800
	}
	if cfg.Jobs.UsageReportSpec == "" {
		cfg.Jobs.UsageReportSpec = "0 * * * *"
	}
	if cfg.Jobs.AuditCleanupSpec == "" {
		cfg.Jobs.AuditCleanupSpec = "30 3 * * *"
	}
	if cfg.Jobs.AuditMaxAgeDays <= 0 {
		cfg.Jobs.AuditMaxAgeDays = 30
	}
	return nil
}
