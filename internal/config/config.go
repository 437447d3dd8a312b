package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Storage struct {
		Provider     string `mapstructure:"provider"` // "s3" or "local"
		KeyID        string `mapstructure:"key_id"`
		AppKey       string `mapstructure:"app_key"`
		Endpoint     string `mapstructure:"endpoint"`
		Region       string `mapstructure:"region"`
		BucketIngest string `mapstructure:"bucket_ingest"`
		BucketMedia  string `mapstructure:"bucket_media"`
		PublicBase   string `mapstructure:"public_base"` // CDN/base URL in front of the media bucket
		LocalRoot    string `mapstructure:"local_root"`
	} `mapstructure:"storage"`
	Server struct {
		Port            string `mapstructure:"port"`
		MetricsPort     string `mapstructure:"metrics_port"`
		TempDir         string `mapstructure:"temp_dir"`
		PollingInterval int    `mapstructure:"polling_interval_seconds"`
		LogLevel        string `mapstructure:"log_level"`
		JWTSecret       string `mapstructure:"jwt_secret"`
	} `mapstructure:"server"`
	Feed struct {
		PageSize    int    `mapstructure:"page_size"`
		SlidesPath  string `mapstructure:"slides_path"`
		SlideStride int    `mapstructure:"slide_stride"` // a curated slide every N videos
	} `mapstructure:"feed"`
	Player struct {
		WindowRadius      int `mapstructure:"window_radius"`
		ApproachThreshold int `mapstructure:"approach_threshold"`
		RecycleCooldownMS int `mapstructure:"recycle_cooldown_ms"`
		TickMS            int `mapstructure:"tick_ms"`
	} `mapstructure:"player"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
}

// RecycleCooldown returns the pager cool-down as a duration.
func (c *Config) RecycleCooldown() time.Duration {
	return time.Duration(c.Player.RecycleCooldownMS) * time.Millisecond
}

// TickInterval returns the simulated display-refresh period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Player.TickMS) * time.Millisecond
}

func Load() *Config {
	viper.SetEnvPrefix("VERTIGO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("storage.provider")
	viper.BindEnv("storage.key_id")
	viper.BindEnv("storage.app_key")
	viper.BindEnv("storage.endpoint")
	viper.BindEnv("storage.region")
	viper.BindEnv("storage.bucket_ingest")
	viper.BindEnv("storage.bucket_media")
	viper.BindEnv("storage.public_base")
	viper.BindEnv("storage.local_root")

	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.temp_dir")
	viper.BindEnv("server.polling_interval_seconds")
	viper.BindEnv("server.log_level")
	viper.BindEnv("server.jwt_secret")

	viper.BindEnv("feed.page_size")
	viper.BindEnv("feed.slides_path")
	viper.BindEnv("feed.slide_stride")

	viper.BindEnv("player.window_radius")
	viper.BindEnv("player.approach_threshold")
	viper.BindEnv("player.recycle_cooldown_ms")
	viper.BindEnv("player.tick_ms")

	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	// Defaults
	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_root", "./data")
	viper.SetDefault("storage.bucket_ingest", "vertigo-ingest")
	viper.SetDefault("storage.bucket_media", "vertigo-media")

	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.temp_dir", "/tmp/")
	viper.SetDefault("server.polling_interval_seconds", 10)
	viper.SetDefault("server.log_level", "error")

	viper.SetDefault("feed.page_size", 10)
	viper.SetDefault("feed.slide_stride", 8)

	// The engine's tuning knobs: empirically chosen, not correctness
	// requirements.
	viper.SetDefault("player.window_radius", 2)
	viper.SetDefault("player.approach_threshold", 2)
	viper.SetDefault("player.recycle_cooldown_ms", 1000)
	viper.SetDefault("player.tick_ms", 16)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Server.JWTSecret == "" {
		log.Println("⚠️ VERTIGO_SERVER_JWT_SECRET not set, using an insecure development secret")
		cfg.Server.JWTSecret = "dev-secret-change-me"
	}

	return &cfg
}
