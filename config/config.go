package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Qshflow QshflowConfig `yaml:"qshflow"`
	Input   InputConfig   `yaml:"input"`
	Book    BookConfig    `yaml:"book"`
	Writer  WriterConfig  `yaml:"writer"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type QshflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type InputConfig struct {
	Paths []string `yaml:"paths"`
}

type BookConfig struct {
	Depth  int  `yaml:"depth"`
	Strict bool `yaml:"strict"`
}

type WriterConfig struct {
	MaxWorkers int           `yaml:"max_workers"`
	Batch      BatchConfig   `yaml:"batch"`
	Parquet    ParquetConfig `yaml:"parquet"`
	OutputDir  string        `yaml:"output_dir"`
}

type BatchConfig struct {
	Size          int
	FlushInterval time.Duration
}

// UnmarshalYAML parses flush_interval from duration strings like "30s".
// Fields absent from the document keep their preset defaults.
func (b *BatchConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		Size          int    `yaml:"size"`
		FlushInterval string `yaml:"flush_interval"`
	}{Size: b.Size}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	b.Size = raw.Size
	if raw.FlushInterval != "" {
		d, err := time.ParseDuration(raw.FlushInterval)
		if err != nil {
			return fmt.Errorf("writer.batch.flush_interval: %w", err)
		}
		b.FlushInterval = d
	}
	return nil
}

type ParquetConfig struct {
	Compression string `yaml:"compression"`
	PageSize    int    `yaml:"page_size"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

// DefaultConfigPath is used when no -config flag is given; environment
// specific files take precedence when present for the current APP_ENV.
const DefaultConfigPath = "config.yaml"

var envConfigPaths = map[string]string{
	environmentDevelopment: "config.development.yaml",
	environmentProduction:  "config.production.yaml",
	environmentStaging:     "config.staging.yaml",
}

var envVarRegexp = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references with environment values before
// the YAML is parsed. Unset variables expand to the empty string.
func expandEnv(data []byte) []byte {
	return envVarRegexp.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarRegexp.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, DefaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Book: BookConfig{Depth: 5},
		Writer: WriterConfig{
			MaxWorkers: 1,
			Batch:      BatchConfig{Size: 10000, FlushInterval: 30 * time.Second},
			Parquet:    ParquetConfig{Compression: "snappy", PageSize: 8 * 1024},
			OutputDir:  "out",
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
	if err := yaml.Unmarshal(expandEnv(data), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Qshflow.Name == "" {
		return fmt.Errorf("qshflow.name is required")
	}

	if cfg.Qshflow.Version == "" {
		return fmt.Errorf("qshflow.version is required")
	}

	if len(cfg.Input.Paths) == 0 {
		return fmt.Errorf("input.paths must name at least one capture file")
	}

	if cfg.Book.Depth <= 0 {
		return fmt.Errorf("book.depth must be greater than 0")
	}

	if cfg.Writer.MaxWorkers <= 0 {
		return fmt.Errorf("writer.max_workers must be greater than 0")
	}
	if cfg.Writer.Batch.Size <= 0 {
		return fmt.Errorf("writer.batch.size must be greater than 0")
	}
	if cfg.Writer.Batch.FlushInterval <= 0 {
		return fmt.Errorf("writer.batch.flush_interval must be greater than 0")
	}
	switch cfg.Writer.Parquet.Compression {
	case "snappy", "gzip", "none":
	default:
		return fmt.Errorf("writer.parquet.compression '%s' is invalid", cfg.Writer.Parquet.Compression)
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
