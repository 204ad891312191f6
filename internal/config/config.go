package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	LogLevel       string
	MaxUploadBytes int64
	PreviewRows    int
	StorageBaseURL string
	SessionMaxAge  time.Duration
}

// Load reads configuration from an optional config file and the
// BACKOFFICE_* environment, falling back to defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "backoffice_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("server.port", "8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.max_upload_bytes", int64(10*1024*1024))
	v.SetDefault("app.preview_rows", 10)
	v.SetDefault("app.storage_base_url", "")
	v.SetDefault("app.session_max_age", 30*time.Minute)

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		App: AppConfig{
			LogLevel:       v.GetString("app.log_level"),
			MaxUploadBytes: v.GetInt64("app.max_upload_bytes"),
			PreviewRows:    v.GetInt("app.preview_rows"),
			StorageBaseURL: v.GetString("app.storage_base_url"),
			SessionMaxAge:  v.GetDuration("app.session_max_age"),
		},
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
