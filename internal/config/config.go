package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the static application configuration.
type Config struct {
	Port       string           `mapstructure:"port"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Session    SessionConfig    `mapstructure:"session"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	Secret          string        `mapstructure:"secret"`
	CookieName      string        `mapstructure:"cookie_name"`
	FlashCookieName string        `mapstructure:"flash_cookie_name"`
	TTL             time.Duration `mapstructure:"ttl"`
	Secure          bool          `mapstructure:"secure"`
}

type UploadConfig struct {
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxBytes          int64    `mapstructure:"max_bytes"`
}

// StorageConfig selects where uploads and generated files live.
type StorageConfig struct {
	Backend   string      `mapstructure:"backend"` // local | minio
	UploadDir string      `mapstructure:"upload_dir"`
	OutputDir string      `mapstructure:"output_dir"`
	Minio     MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type ClassifierConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	ModelName string        `mapstructure:"model_name"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

const (
	BackendLocal = "local"
	BackendMinio = "minio"

	envPrefix = "CELLSCAN"
)

var errMissingSecret = errors.New("session.secret is required")

// Load reads configs/config.yml (if present), applies CELLSCAN_* environment
// overrides and defaults, and validates the result.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "database.db")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "cellscan_session")
	v.SetDefault("session.flash_cookie_name", "cellscan_flash")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("upload.allowed_extensions", []string{"png", "jpg", "jpeg"})
	v.SetDefault("upload.max_bytes", int64(16<<20))
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.upload_dir", "static/uploads")
	v.SetDefault("storage.output_dir", "static/output")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "cellscan")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("classifier.endpoint", "http://localhost:8501")
	v.SetDefault("classifier.model_name", "cellscan")
	v.SetDefault("classifier.timeout", 30*time.Second)
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errMissingSecret
	}
	switch c.Storage.Backend {
	case BackendLocal, BackendMinio:
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendMinio && c.Storage.Minio.Endpoint == "" {
		return errors.New("storage.minio.endpoint is required for the minio backend")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	return nil
}
