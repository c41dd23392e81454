// Package config loads service configuration from an optional config
// file and the environment. Environment variables win over file values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `mapstructure:"service_name"`
	Port        string `mapstructure:"port"`

	LogFormat string `mapstructure:"log_format"`
	LogLevel  string `mapstructure:"log_level"`

	Database Database `mapstructure:"database"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	DefaultPlant        string        `mapstructure:"default_plant"`
	FinishedGoodsLoc    string        `mapstructure:"finished_goods_location"`
	RawMaterialsLoc     string        `mapstructure:"raw_materials_location"`
	ScrapLoc            string        `mapstructure:"scrap_location"`
	EventBufferSize     int           `mapstructure:"event_buffer_size"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// Database holds the PostgreSQL connection settings.
type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN renders the pgx connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Load reads config.yaml from the working directory when present and
// overlays environment variables prefixed with MRP_.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("service_name", "mrp-backend")
	v.SetDefault("port", "8000")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "mrp")
	v.SetDefault("database.password", "mrp")
	v.SetDefault("database.name", "mrp_db")
	v.SetDefault("otlp_endpoint", "localhost:4318")
	v.SetDefault("default_plant", "1000")
	v.SetDefault("finished_goods_location", "FG01")
	v.SetDefault("raw_materials_location", "RM01")
	v.SetDefault("scrap_location", "SCRAP")
	v.SetDefault("event_buffer_size", 256)
	v.SetDefault("shutdown_grace_period", 10*time.Second)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MRP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}
