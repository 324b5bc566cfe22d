package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"ConcertSync/internal/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig          `mapstructure:"postgres"` // PostgreSQL配置
	Sync     SyncConfig              `mapstructure:"sync"`     // 目录同步调度配置
	Sources  map[string]SourceConfig `mapstructure:"sources"`  // 多票务源独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SyncConfig 目录同步调度配置
type SyncConfig struct {
	Countries             string        `mapstructure:"countries"`               // 目标国家列表（逗号分隔，如"US,CA"）
	PastRetentionDays     int           `mapstructure:"past_retention_days"`     // 保留窗口：过去N天
	FutureRetentionMonths int           `mapstructure:"future_retention_months"` // 保留窗口：未来N个月
	Interval              time.Duration `mapstructure:"interval"`                // 周期执行间隔（如6h）
	RunOnStart            bool          `mapstructure:"run_on_start"`            // 启动时是否立即跑一轮
	RunTimeout            time.Duration `mapstructure:"run_timeout"`             // 单轮全量同步超时
	EnabledSources        []string      `mapstructure:"enabled_sources"`         // 启用的票务源列表
}

// SourceConfig 单个票务源的独立配置
type SourceConfig struct {
	BaseURL       string `mapstructure:"base_url"`        // API基础地址
	APIKey        string `mapstructure:"api_key"`         // API密钥
	Timeout       int    `mapstructure:"timeout"`         // 请求超时（秒）
	PageSize      int    `mapstructure:"page_size"`       // 每页条数
	PageHardLimit int    `mapstructure:"page_hard_limit"` // 供应商分页硬上限：page*size < 该值
	Proxy         string `mapstructure:"proxy"`           // 代理地址
}

// CountryList 解析逗号分隔的国家代码列表（去空格、去空项）
func (s *SyncConfig) CountryList() []string {
	var out []string
	for _, c := range strings.Split(s.Countries, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)

	// 4. 启动期校验：非法的保留窗口/调度参数必须在这里失败，不能拖到同步中途
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if tm, ok := cfg.Sources["ticketmaster"]; ok {
		if v := os.Getenv("TICKETMASTER_API_KEY"); v != "" {
			tm.APIKey = v
		}
		if v := os.Getenv("TICKETMASTER_PROXY"); v != "" {
			tm.Proxy = v
		}
		cfg.Sources["ticketmaster"] = tm
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
}

// Validate 校验配置合法性，失败返回 ConfigurationError
func (c *Config) Validate() error {
	if len(c.Sync.CountryList()) == 0 {
		return &model.ConfigurationError{Field: "sync.countries", Reason: "国家列表不能为空"}
	}
	if c.Sync.PastRetentionDays <= 0 {
		return &model.ConfigurationError{Field: "sync.past_retention_days", Reason: "必须为正数"}
	}
	if c.Sync.FutureRetentionMonths <= 0 {
		return &model.ConfigurationError{Field: "sync.future_retention_months", Reason: "必须为正数"}
	}
	if c.Sync.Interval <= 0 {
		return &model.ConfigurationError{Field: "sync.interval", Reason: "调度间隔必须为正的Duration（如6h）"}
	}
	if c.Sync.RunTimeout <= 0 {
		return &model.ConfigurationError{Field: "sync.run_timeout", Reason: "单轮超时必须为正的Duration"}
	}
	if len(c.Sync.EnabledSources) == 0 {
		return &model.ConfigurationError{Field: "sync.enabled_sources", Reason: "至少启用一个票务源"}
	}
	for _, name := range c.Sync.EnabledSources {
		src, ok := c.Sources[name]
		if !ok {
			return &model.ConfigurationError{Field: "sources." + name, Reason: "已启用但缺少对应配置段"}
		}
		if src.PageSize <= 0 {
			return &model.ConfigurationError{Field: "sources." + name + ".page_size", Reason: "必须为正数"}
		}
		if src.PageHardLimit <= 0 {
			return &model.ConfigurationError{Field: "sources." + name + ".page_hard_limit", Reason: "必须为正数"}
		}
	}
	return nil
}
