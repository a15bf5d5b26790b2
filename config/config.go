package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Rectify   RectifyConfig   `mapstructure:"rectify"`
	Segmenter SegmenterConfig `mapstructure:"segmenter"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CacheConfig 进程内LRU缓存，Redis不可用时使用
type CacheConfig struct {
	MaxBytes int64         `mapstructure:"max_bytes"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type RectifyConfig struct {
	// AlphaThreshold 无透明通道时，灰度大于该值的像素视为不透明
	AlphaThreshold float32 `mapstructure:"alpha_threshold"`
	MaxConcurrent  int     `mapstructure:"max_concurrent"`
	QueueTimeout   int     `mapstructure:"queue_timeout"`
	// FrameCount 照片条纵向等分的格数，0 表示不切分
	FrameCount int `mapstructure:"frame_count"`
}

type SegmenterConfig struct {
	Mode         string        `mapstructure:"mode"` // remote, grabcut, none
	InferenceURL string        `mapstructure:"inference_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Iterations   int           `mapstructure:"iterations"`
	BorderSize   int           `mapstructure:"border_size"`
	MaxSide      int           `mapstructure:"max_side"`
}

// Load 从 YAML 文件加载配置，环境变量 RESTRIP_* 可覆盖
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// New 使用默认配置路径加载配置
func New() *Config {
	// .env 可选
	_ = godotenv.Load()

	cfg, err := Load("config.yaml")
	if err != nil {
		// 配置文件缺失时仍然应用环境变量
		cfg, err = unmarshal(newViper())
		if err != nil {
			return getDefaultConfig()
		}
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("restrip")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := getDefaultConfig()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("cache.max_bytes", d.Cache.MaxBytes)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.allowed_types", d.Upload.AllowedTypes)

	v.SetDefault("rectify.alpha_threshold", d.Rectify.AlphaThreshold)
	v.SetDefault("rectify.max_concurrent", d.Rectify.MaxConcurrent)
	v.SetDefault("rectify.queue_timeout", d.Rectify.QueueTimeout)
	v.SetDefault("rectify.frame_count", d.Rectify.FrameCount)

	v.SetDefault("segmenter.mode", d.Segmenter.Mode)
	v.SetDefault("segmenter.inference_url", d.Segmenter.InferenceURL)
	v.SetDefault("segmenter.timeout", d.Segmenter.Timeout)
	v.SetDefault("segmenter.iterations", d.Segmenter.Iterations)
	v.SetDefault("segmenter.border_size", d.Segmenter.BorderSize)
	v.SetDefault("segmenter.max_side", d.Segmenter.MaxSide)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Cache: CacheConfig{
			MaxBytes: 256 * 1024 * 1024,
			TTL:      time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg"},
		},
		Rectify: RectifyConfig{
			AlphaThreshold: 8,
			MaxConcurrent:  4,
			QueueTimeout:   30,
			FrameCount:     4,
		},
		Segmenter: SegmenterConfig{
			Mode:         "remote",
			InferenceURL: "http://localhost:5000/segment",
			Timeout:      60 * time.Second,
			Iterations:   5,
			BorderSize:   10,
			MaxSide:      1200,
		},
	}
}
