package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"iiifhub/pkg/database"
)

// Config is the service configuration. Precedence: IIIFHUB_* environment,
// then the YAML file named by IIIFHUB_CONFIG, then defaults.
type Config struct {
	HTTPAddr      string        `yaml:"http_addr"`
	GRPCAddr      string        `yaml:"grpc_addr"`
	SyncAddr      string        `yaml:"sync_addr"`
	PublicBaseURL string        `yaml:"public_base_url"`
	StorageDir    string        `yaml:"storage_dir"`
	DBPath        string        `yaml:"db_path"`
	LogLevel      string        `yaml:"log_level"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	Upload        UploadConfig  `yaml:"upload"`
}

// UploadConfig controls pre-upload recompression.
type UploadConfig struct {
	CompressThreshold int64 `yaml:"compress_threshold"`
	MaxDimension      int   `yaml:"max_dimension"`
	JPEGQuality       int   `yaml:"jpeg_quality"`
}

func Defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		HTTPAddr:      ":8080",
		GRPCAddr:      ":9090",
		SyncAddr:      ":7070",
		PublicBaseURL: "http://localhost:8080",
		StorageDir:    filepath.Join(home, ".iiifhub", "files"),
		DBPath:        database.DefaultConfig().Path,
		LogLevel:      "info",
		FetchTimeout:  15 * time.Second,
		Upload: UploadConfig{
			CompressThreshold: 500000,
			MaxDimension:      2000,
			JPEGQuality:       80,
		},
	}
}

// Load reads .env (if present), the optional YAML file and the environment.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("IIIFHUB_CONFIG"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "IIIFHUB_HTTP_ADDR")
	setString(&cfg.GRPCAddr, "IIIFHUB_GRPC_ADDR")
	setString(&cfg.SyncAddr, "IIIFHUB_SYNC_ADDR")
	setString(&cfg.PublicBaseURL, "IIIFHUB_PUBLIC_BASE_URL")
	setString(&cfg.StorageDir, "IIIFHUB_STORAGE_DIR")
	setString(&cfg.DBPath, "IIIFHUB_DB_PATH")
	setString(&cfg.LogLevel, "IIIFHUB_LOG_LEVEL")

	if v := os.Getenv("IIIFHUB_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("IIIFHUB_FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}
	if v := os.Getenv("IIIFHUB_COMPRESS_THRESHOLD"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("IIIFHUB_COMPRESS_THRESHOLD: %w", err)
		}
		cfg.Upload.CompressThreshold = n
	}
	if v := os.Getenv("IIIFHUB_MAX_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IIIFHUB_MAX_DIMENSION: %w", err)
		}
		cfg.Upload.MaxDimension = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
