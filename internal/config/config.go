package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Dictionary  DictionaryConfig  `mapstructure:"dictionary"`
	Oracle      OracleConfig      `mapstructure:"oracle"`
	Media       MediaConfig       `mapstructure:"media"`
	Acquisition AcquisitionConfig `mapstructure:"acquisition"`
	Gloss       GlossConfig       `mapstructure:"gloss"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Path            string            `mapstructure:"path"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

// DictionaryConfig selects a YAML dictionary file instead of the database when File is set.
type DictionaryConfig struct {
	File string `mapstructure:"file" validate:"omitempty,file"`
}

type OracleConfig struct {
	BaseURL          string `mapstructure:"base_url" validate:"required,url"`
	APIKey           string `mapstructure:"api_key"`
	Model            string `mapstructure:"model" validate:"required"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"min=1"`
	MaxRetryAttempts uint   `mapstructure:"max_retry_attempts"`
}

func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type MediaConfig struct {
	ClipDirectory string `mapstructure:"clip_directory" validate:"required"`
	OutputPath    string `mapstructure:"output_path" validate:"required"`
	Width         int    `mapstructure:"width" validate:"min=2"`
	Height        int    `mapstructure:"height" validate:"min=2"`
	FPS           int    `mapstructure:"fps" validate:"min=1"`
	FFmpegPath    string `mapstructure:"ffmpeg_path" validate:"required"`
}

type AcquisitionConfig struct {
	Workers   int    `mapstructure:"workers" validate:"min=1"`
	UserAgent string `mapstructure:"user_agent"`
	YTDLPPath string `mapstructure:"ytdlp_path" validate:"required"`
	Prune     bool   `mapstructure:"prune"`
}

type GlossConfig struct {
	MaxWords int `mapstructure:"max_words" validate:"min=1"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/glossa")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.path", "glossa.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "glossa")
	v.SetDefault("database.username", "user")
	v.SetDefault("dictionary.file", "")
	v.SetDefault("oracle.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("oracle.model", "Qwen/Qwen2.5-72B-Instruct")
	v.SetDefault("oracle.timeout_seconds", 30)
	v.SetDefault("oracle.max_retry_attempts", 2)
	v.SetDefault("media.clip_directory", filepath.Join("static", "sign_videos"))
	v.SetDefault("media.output_path", filepath.Join("static", "temp", "merged_video.mp4"))
	// portrait 360x480, the size the clip library is recorded at
	v.SetDefault("media.width", 360)
	v.SetDefault("media.height", 480)
	v.SetDefault("media.fps", 30)
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("acquisition.workers", 5)
	v.SetDefault("acquisition.user_agent", "Mozilla/5.0 (X11; Linux x86_64) glossa")
	v.SetDefault("acquisition.ytdlp_path", "yt-dlp")
	v.SetDefault("acquisition.prune", false)
	v.SetDefault("gloss.max_words", 50)

	// Secrets are bound to environment variables only (not from config file)
	if err := v.BindEnv("oracle.api_key", "ORACLE_API_KEY", "HUGGINGFACE_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind ORACLE_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("oracle.model", "ORACLE_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind ORACLE_MODEL environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// servingRequirements holds what the HTTP server needs on top of Load's checks.
// Offline commands such as acquire create the clip directory themselves.
type servingRequirements struct {
	Media struct {
		ClipDirectory string `mapstructure:"clip_directory" validate:"dir"`
	} `mapstructure:"media"`
}

// ValidateServing checks the settings the HTTP server cannot start without.
func (loader *ConfigLoader) ValidateServing(cfg *Config) error {
	var req servingRequirements
	req.Media.ClipDirectory = cfg.Media.ClipDirectory
	return loader.validate(req)
}

func (loader *ConfigLoader) validate(s any) error {
	err := loader.validator.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validator.Struct() > %w", err)
	}
	var errorMsgs []string
	for _, e := range validationErrors {
		errorMsgs = append(errorMsgs, e.Translate(loader.translator))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
}
