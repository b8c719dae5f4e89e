package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/avdeyev/pingroom/internal/catalog"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	// Sliding-window limit on broadcast-triggering events per connection.
	BestPingLimit    int           `mapstructure:"best_ping_limit"`
	BestPingInterval time.Duration `mapstructure:"best_ping_interval"`

	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	// GeoEndpoint is the base URL of the origin-lookup service. Empty
	// disables resolution entirely.
	GeoEndpoint string        `mapstructure:"geo_endpoint"`
	GeoTimeout  time.Duration `mapstructure:"geo_timeout"`

	Servers []catalog.Server `mapstructure:"servers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("best_ping_limit", 5)
	v.SetDefault("best_ping_interval", "10s")
	v.SetDefault("probe_timeout", "10s")
	v.SetDefault("geo_timeout", "2s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
