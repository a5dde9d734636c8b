package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ICEServer is a STUN/TURN entry handed to clients on auth_success.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`

	BackpressurePolicy string `mapstructure:"backpressure_policy"`

	RedisURL    string `mapstructure:"redis_url"`
	DatabaseURL string `mapstructure:"database_url"`
	JWTSecret   string `mapstructure:"jwt_secret"`

	OfferTTL           time.Duration `mapstructure:"offer_ttl"`
	SafetyCheckTimeout time.Duration `mapstructure:"safety_check_timeout"`
	ICEServers         []ICEServer   `mapstructure:"ice_servers"`

	AuthRateLimit    int           `mapstructure:"auth_rate_limit"`
	AuthRateWindow   time.Duration `mapstructure:"auth_rate_window"`
	QueueConcurrency int           `mapstructure:"queue_concurrency"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, then lets CARELINK_* env
// vars override any key. A .env file in the working dir is loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	return load(fileName)
}

func load(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("CARELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("backpressure_policy", "kick")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("offer_ttl", "300s")
	v.SetDefault("safety_check_timeout", "60s")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
	v.SetDefault("auth_rate_limit", 5)
	v.SetDefault("auth_rate_window", "1m")
	v.SetDefault("queue_concurrency", 4)
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0:
		return fmt.Errorf("config: bad port %d", c.Port)
	case c.PingPeriod <= 0 || c.WriteWait <= 0:
		return errors.New("config: ping_period and write_wait must be positive")
	case c.SendBuffer <= 0:
		return errors.New("config: send_buffer must be positive")
	case c.OfferTTL <= 0 || c.SafetyCheckTimeout <= 0:
		return errors.New("config: offer_ttl and safety_check_timeout must be positive")
	}
	return nil
}
