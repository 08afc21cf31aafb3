package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads config.yaml (or the explicit file when configFile is set),
// VPNADMIN_* environment variables and a legacy flat .env file.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Default settings
	setDefaults(v)

	// Config file settings
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/vpnadmin/")
	}

	// Environment variable settings
	v.SetEnvPrefix("VPNADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.dsn", "VPNADMIN_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind env database.dsn: %w", err)
	}

	// 1. Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 显式指定的文件必须存在；默认搜索路径下找不到则只用环境变量和默认值。
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// 2. Load .env file (backward compatibility)
	if err := loadDotEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(c.DB.Path) == "" {
			return errors.New("config: database.path is required for sqlite")
		}
	case "postgres":
		if strings.TrimSpace(c.DB.DSN) == "" {
			return errors.New("config: database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.DB.Driver)
	}
	if c.WS.SendBuffer <= 0 {
		return errors.New("config: ws.send_buffer must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.body_limit", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/vpnadmin.db")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("auth.issuer", "vpnadmin")
	v.SetDefault("auth.audience", "vpnadmin-admin")
	v.SetDefault("auth.leeway", "30s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "vpnadmin")
	v.SetDefault("metrics.subsystem", "api")

	v.SetDefault("cache.stats_ttl", "30s")

	v.SetDefault("adlogs.retention", "720h")
	v.SetDefault("adlogs.retention_schedule", "@every 1h")
	v.SetDefault("adlogs.expiry_report_schedule", "0 3 * * *")
	v.SetDefault("adlogs.default_limit", 200)

	v.SetDefault("ws.allowed_origins", []string{"*"})
	v.SetDefault("ws.send_buffer", 64)
	v.SetDefault("ws.write_timeout", "10s")
	v.SetDefault("ws.ping_interval", "30s")

	v.SetDefault("rate_limit.limit", 300)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("client.server_url", "http://127.0.0.1:8080")
	v.SetDefault("client.session_path", defaultSessionPath())
	v.SetDefault("client.timeout", "15s")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".vpnadmin", "session.json")
	}
	return filepath.Join(dir, "vpnadmin", "session.json")
}

func loadDotEnv(v *viper.Viper) error {
	candidates := []string{".", "..", "../.."}
	for _, path := range candidates {
		file := filepath.Clean(filepath.Join(path, ".env"))
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat .env: %w", err)
		}

		// Create a separate viper instance for .env to avoid type confusion with main config
		envViper := viper.New()
		envViper.SetConfigFile(file)
		envViper.SetConfigType("env")
		if err := envViper.ReadInConfig(); err != nil {
			return fmt.Errorf("read .env: %w", err)
		}

		bindLegacyEnv(v, envViper)
	}
	return nil
}

// bindLegacyEnv maps flat .env keys onto the hierarchical structure.
// A real VPNADMIN_* environment variable for the same key is left untouched.
func bindLegacyEnv(target *viper.Viper, source *viper.Viper) {
	mappings := map[string]string{
		"HTTP_ADDR":        "http.addr",
		"SHUTDOWN_TIMEOUT": "http.shutdown_timeout",
		"LOG_LEVEL":        "log.level",
		"LOG_FORMAT":       "log.format",
		"LOG_ADD_SOURCE":   "log.add_source",
		"APP_ENV":          "log.environment",
		"DB_DRIVER":        "database.driver",
		"DB_PATH":          "database.path",
		"DATABASE_URL":     "database.dsn",
		"AUTH_SIGNING_KEY": "auth.signing_key",
		"APP_KEY":          "auth.signing_key",
		"AUTH_TOKEN_TTL":   "auth.token_ttl",
		"AUTH_ISSUER":      "auth.issuer",
		"AUTH_AUDIENCE":    "auth.audience",
		"METRICS_TOKEN":    "metrics.token",
		"ADLOGS_RETENTION": "adlogs.retention",
		"API_URL":          "client.server_url",
	}

	for oldKey, newKey := range mappings {
		val := source.GetString(oldKey)
		if val == "" {
			continue
		}
		envName := "VPNADMIN_" + strings.ToUpper(strings.ReplaceAll(newKey, ".", "_"))
		if _, ok := os.LookupEnv(envName); ok {
			continue
		}
		target.Set(newKey, val)
	}
}
