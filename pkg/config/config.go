package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// Config holds the full service configuration, sourced from an optional YAML
// file with environment variable overrides.
type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	LiveKit struct {
		URL             string `mapstructure:"url"`
		APIKey          string `mapstructure:"api_key"`
		APISecret       string `mapstructure:"api_secret"`
		RequestTimeoutS int    `mapstructure:"request_timeout_s"`
		TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
	} `mapstructure:"livekit"`
	Recording struct {
		MinActiveMS        int    `mapstructure:"min_active_ms"`
		MaxDurationMinutes int    `mapstructure:"max_duration_minutes"`
		CleanupIntervalMS  int    `mapstructure:"cleanup_interval_ms"`
		StartTimeoutMS     int    `mapstructure:"start_timeout_ms"`
		PollIntervalMS     int    `mapstructure:"poll_interval_ms"`
		OutputDir          string `mapstructure:"output_dir"`
	} `mapstructure:"recording"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr         string `mapstructure:"addr"`
		Password     string `mapstructure:"password"`
		DB           int    `mapstructure:"db"`
		ChatTTLHours int    `mapstructure:"chat_ttl_hours"`
	} `mapstructure:"redis"`
	S3 struct {
		Bucket    string `mapstructure:"bucket"`
		Region    string `mapstructure:"region"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Endpoint  string `mapstructure:"endpoint"`
	} `mapstructure:"s3"`
}

// ResolveConfigFile resolves the config file path using the following precedence:
// 1) CONFIG_FILE environment variable
// 2) --config flag in args
// 3) CONFIG_DIR + <baseFileName>
// 4) search in ./config, /opt/livekit_backend/config, /etc/livekit_backend
// Returns "" when nothing resolves; the service then runs on env vars and defaults.
func ResolveConfigFile(baseFileName string, args []string) string {
	if cf := strings.TrimSpace(os.Getenv("CONFIG_FILE")); cf != "" {
		if st, err := os.Stat(cf); err == nil && !st.IsDir() {
			return cf
		}
	}

	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			cf := strings.TrimSpace(args[i+1])
			if cf != "" {
				if st, err := os.Stat(cf); err == nil && !st.IsDir() {
					return cf
				}
			}
			break
		}
	}

	if cd := strings.TrimSpace(os.Getenv("CONFIG_DIR")); cd != "" {
		candidate := filepath.Join(cd, baseFileName)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}

	for _, dir := range []string{"./config", "/opt/livekit_backend/config", "/etc/livekit_backend"} {
		candidate := filepath.Join(dir, baseFileName)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}

	return ""
}

// Load reads configuration from the resolved YAML file (if any) and the
// environment, applies defaults, and validates required LiveKit settings.
func Load(args []string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 3001)
	v.SetDefault("livekit.url", "ws://localhost:7880")
	v.SetDefault("livekit.request_timeout_s", 300)
	v.SetDefault("livekit.token_ttl_minutes", 360)
	v.SetDefault("recording.min_active_ms", 5000)
	v.SetDefault("recording.max_duration_minutes", 180)
	v.SetDefault("recording.cleanup_interval_ms", 30*60*1000)
	v.SetDefault("recording.start_timeout_ms", 30000)
	v.SetDefault("recording.poll_interval_ms", 300)
	v.SetDefault("recording.output_dir", "/out")
	v.SetDefault("redis.chat_ttl_hours", 72)

	v.SetEnvPrefix("LK_BACKEND")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("server.port", "PORT")
	v.BindEnv("livekit.url", "LIVEKIT_URL")
	v.BindEnv("livekit.api_key", "LK_API_KEY")
	v.BindEnv("livekit.api_secret", "LK_API_SECRET")
	v.BindEnv("livekit.request_timeout_s", "EGRESS_REQUEST_TIMEOUT")
	v.BindEnv("recording.min_active_ms", "EGRESS_MIN_ACTIVE_MS")
	v.BindEnv("recording.max_duration_minutes", "MAX_EGRESS_DURATION_MINUTES")
	v.BindEnv("recording.cleanup_interval_ms", "EGRESS_CLEANUP_INTERVAL_MS")
	v.BindEnv("recording.output_dir", "EGRESS_OUTPUT_DIR")
	v.BindEnv("database.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.access_key", "S3_ACCESS_KEY")
	v.BindEnv("s3.secret_key", "S3_SECRET_KEY")
	v.BindEnv("s3.endpoint", "S3_ENDPOINT")

	if path := ResolveConfigFile("server_config.yaml", args); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("Config file unreadable, using environment variables and defaults",
				logger.String("path", path), logger.ErrorField(err))
		} else {
			logger.Info("Using config file", logger.String("path", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	if strings.TrimSpace(cfg.LiveKit.APIKey) == "" || strings.TrimSpace(cfg.LiveKit.APISecret) == "" {
		return nil, fmt.Errorf("livekit.api_key and livekit.api_secret are required")
	}
	if strings.TrimSpace(cfg.LiveKit.URL) == "" {
		return nil, fmt.Errorf("livekit.url is required")
	}
	return &cfg, nil
}

// RequestTimeout is the bound applied to every remote LiveKit call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.LiveKit.RequestTimeoutS) * time.Second
}

// MinActive is the minimum time a recording must run before a stop proceeds.
func (c *Config) MinActive() time.Duration {
	return time.Duration(c.Recording.MinActiveMS) * time.Millisecond
}

// MaxDuration is the failsafe limit on total recording length.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.Recording.MaxDurationMinutes) * time.Minute
}

// CleanupInterval is the period of the stale-recording sweep.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Recording.CleanupIntervalMS) * time.Millisecond
}
