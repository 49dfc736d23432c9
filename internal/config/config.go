// internal/config/config.go
package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Status    StatusConfig
	Inference InferenceConfig
	Limits    LimitsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type StorageConfig struct {
	Project       string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

type StatusConfig struct {
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type InferenceConfig struct {
	URL              string
	Scale            int
	UseAccelerator   bool
	AcceleratorSlots int
	TileSize         int
	TilePad          int
}

type LimitsConfig struct {
	MaxDimension        int
	FetchMaxBytes       int64
	FetchTimeoutSeconds int
	JPEGQuality         int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 300)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("GOOGLE_CLOUD_PROJECT", "")
		viper.SetDefault("STORAGE_BUCKET", "")
		viper.SetDefault("STORAGE_ENDPOINT", "storage.googleapis.com")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_REGION", "")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_PUBLIC_BASE_URL", "")
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("INFERENCE_URL", "http://127.0.0.1:9090/enhance")
		viper.SetDefault("INFERENCE_SCALE", 4)
		viper.SetDefault("INFERENCE_USE_ACCELERATOR", false)
		viper.SetDefault("ACCELERATOR_SLOTS", 1)
		viper.SetDefault("INFERENCE_TILE_SIZE", 512)
		viper.SetDefault("INFERENCE_TILE_PAD", 10)
		viper.SetDefault("MAX_DIMENSION", 4000)
		viper.SetDefault("FETCH_MAX_BYTES", int64(50*1024*1024))
		viper.SetDefault("FETCH_TIMEOUT_SECONDS", 60)
		viper.SetDefault("JPEG_QUALITY", 95)

		// Read from environment variables
		viper.AutomaticEnv()

		project := viper.GetString("GOOGLE_CLOUD_PROJECT")
		bucket := viper.GetString("STORAGE_BUCKET")
		if bucket == "" && project != "" {
			bucket = fmt.Sprintf("%s.firebasestorage.app", project)
		}

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Storage: StorageConfig{
				Project:       project,
				Bucket:        bucket,
				Endpoint:      viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:     viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:     viper.GetString("STORAGE_SECRET_KEY"),
				Region:        viper.GetString("STORAGE_REGION"),
				UseSSL:        viper.GetBool("STORAGE_USE_SSL"),
				PublicBaseURL: viper.GetString("STORAGE_PUBLIC_BASE_URL"),
			},
			Status: StatusConfig{
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
			},
			Inference: InferenceConfig{
				URL:              viper.GetString("INFERENCE_URL"),
				Scale:            viper.GetInt("INFERENCE_SCALE"),
				UseAccelerator:   viper.GetBool("INFERENCE_USE_ACCELERATOR"),
				AcceleratorSlots: viper.GetInt("ACCELERATOR_SLOTS"),
				TileSize:         viper.GetInt("INFERENCE_TILE_SIZE"),
				TilePad:          viper.GetInt("INFERENCE_TILE_PAD"),
			},
			Limits: LimitsConfig{
				MaxDimension:        viper.GetInt("MAX_DIMENSION"),
				FetchMaxBytes:       viper.GetInt64("FETCH_MAX_BYTES"),
				FetchTimeoutSeconds: viper.GetInt("FETCH_TIMEOUT_SECONDS"),
				JPEGQuality:         viper.GetInt("JPEG_QUALITY"),
			},
		}
	})

	return instance
}
