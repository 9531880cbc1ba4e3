package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	QuranAPI QuranAPIConfig `mapstructure:"quran_api"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Playback PlaybackConfig `mapstructure:"playback"`
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
}

type QuranAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type RedisConfig struct {
	// URI is optional; when empty the catalog cache is disabled.
	URI string `mapstructure:"uri"`
}

type CacheConfig struct {
	RecitersTTL     time.Duration `mapstructure:"reciters_ttl"`
	ChapterAudioTTL time.Duration `mapstructure:"chapter_audio_ttl"`
}

// PlaybackConfig holds the timing compensation values. They are tuned
// empirically against the upstream timestamp provider and do not
// necessarily generalize to a different one.
type PlaybackConfig struct {
	HighlightDelayMs   int64 `mapstructure:"highlight_delay_ms"`
	RangeStartBufferMs int64 `mapstructure:"range_start_buffer_ms"`
	RangeEndBufferMs   int64 `mapstructure:"range_end_buffer_ms"`
	RestartGuardMs     int64 `mapstructure:"restart_guard_ms"`
	PollIntervalMs     int64 `mapstructure:"poll_interval_ms"`
}

type AppConfig struct {
	LocalesDir       string `mapstructure:"locales_dir"`
	DefaultLanguage  string `mapstructure:"default_language"`
	PreferredReciter string `mapstructure:"preferred_reciter"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(filename string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(filename)

	// Set defaults
	v.SetDefault("app.locales_dir", "locales")
	v.SetDefault("app.default_language", "en")
	v.SetDefault("app.preferred_reciter", "Alafasy")
	v.SetDefault("cache.reciters_ttl", time.Hour)
	v.SetDefault("cache.chapter_audio_ttl", time.Hour)
	v.SetDefault("playback.highlight_delay_ms", 200)
	v.SetDefault("playback.range_start_buffer_ms", 250)
	v.SetDefault("playback.range_end_buffer_ms", 200)
	v.SetDefault("playback.restart_guard_ms", 500)
	v.SetDefault("playback.poll_interval_ms", 100)
	v.SetDefault("log.level", "info")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Environment variable configuration
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.QuranAPI.BaseURL == "" {
		return nil, fmt.Errorf("quran API base URL is required")
	}
	if cfg.Playback.PollIntervalMs <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cfg.Playback.HighlightDelayMs < 0 || cfg.Playback.RangeStartBufferMs < 0 ||
		cfg.Playback.RangeEndBufferMs < 0 || cfg.Playback.RestartGuardMs < 0 {
		return nil, fmt.Errorf("playback buffers must be non-negative")
	}

	return &cfg, nil
}
