// Package config defines the server configuration and how it is loaded.
//
// Precedence, lowest first: built-in defaults, the YAML file, a .env file in
// the working directory, then the process environment. Field names in Go
// mirror the YAML keys used in configs/doc2db.yaml.
//
// Example (trimmed):
//
//	server:
//	  addr: ":8000"
//	storage:
//	  data_dir: ./data
//	metastore:
//	  kind: sqlite
//	  dsn: ./doc2db.db
//	oracle:
//	  model: gpt-4o-mini
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// DefaultPath is read when no -config flag is given. Its absence is fine.
const DefaultPath = "configs/doc2db.yaml"

// Config is the top-level object decoded from the YAML file.
type Config struct {
	Server    Server    `yaml:"server"`
	Storage   Storage   `yaml:"storage"`
	Metastore Metastore `yaml:"metastore"`
	Filestore Filestore `yaml:"filestore"`
	Oracle    Oracle    `yaml:"oracle"`
	Upload    Upload    `yaml:"upload"`
	Metrics   Metrics   `yaml:"metrics"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Storage locates the per-project destination databases.
type Storage struct {
	DataDir      string `yaml:"data_dir"`
	PreviewLimit int    `yaml:"preview_limit"`
}

type Metastore struct {
	Kind string `yaml:"kind"` // sqlite | postgres | mysql | mssql
	DSN  string `yaml:"dsn"`
}

type Filestore struct {
	Kind  string `yaml:"kind"` // local | minio
	Dir   string `yaml:"dir"`
	Minio Minio  `yaml:"minio"`
}

type Minio struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

type Oracle struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	MaxTokens  int           `yaml:"max_tokens"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type Upload struct {
	MaxMB      int      `yaml:"max_mb"`
	AllowedExt []string `yaml:"allowed_ext"`
}

type Metrics struct {
	Backend        string        `yaml:"backend"` // none | pushgateway | datadog
	PushgatewayURL string        `yaml:"pushgateway_url"`
	Job            string        `yaml:"job"`
	Datadog        Datadog       `yaml:"datadog"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
}

type Datadog struct {
	Addr      string   `yaml:"addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:    Server{Addr: ":8000", ShutdownTimeout: 10 * time.Second},
		Storage:   Storage{DataDir: "./data", PreviewLimit: 5},
		Metastore: Metastore{Kind: "sqlite", DSN: "./doc2db.db"},
		Filestore: Filestore{Kind: "local", Dir: "./uploads", Minio: Minio{Bucket: "doc2db-uploads"}},
		Oracle: Oracle{
			Model:      "gpt-4o-mini",
			MaxTokens:  4000,
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
		Upload: Upload{
			MaxMB:      20,
			AllowedExt: []string{".pdf", ".png", ".jpg", ".jpeg", ".xlsx", ".xls", ".csv", ".txt", ".tsv", ".html", ".htm"},
		},
		Metrics: Metrics{Backend: "none", Job: "doc2db", FlushInterval: 15 * time.Second, Datadog: Datadog{Addr: "127.0.0.1:8125", Namespace: "doc2db"}},
		Log:     Log{Level: "info", Format: "json"},
	}
}

// Load builds a Config from defaults, the YAML file at path, .env and the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str(&c.Server.Addr, "DOC2DB_ADDR")
	str(&c.Storage.DataDir, "DOC2DB_DATA_DIR")
	str(&c.Metastore.Kind, "DOC2DB_METASTORE_KIND")
	str(&c.Metastore.DSN, "DOC2DB_METASTORE_DSN")

	str(&c.Filestore.Kind, "DOC2DB_FILESTORE_KIND")
	str(&c.Filestore.Dir, "DOC2DB_UPLOAD_DIR")
	str(&c.Filestore.Minio.Endpoint, "MINIO_ENDPOINT")
	str(&c.Filestore.Minio.AccessKey, "MINIO_ACCESS_KEY")
	str(&c.Filestore.Minio.SecretKey, "MINIO_SECRET_KEY")
	str(&c.Filestore.Minio.Bucket, "MINIO_BUCKET")
	str(&c.Filestore.Minio.Region, "MINIO_REGION")

	str(&c.Oracle.APIKey, "OPENAI_API_KEY")
	str(&c.Oracle.Model, "OPENAI_MODEL")
	str(&c.Oracle.BaseURL, "OPENAI_BASE_URL")

	str(&c.Metrics.Backend, "METRICS_BACKEND")
	str(&c.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	str(&c.Metrics.Datadog.Addr, "DD_AGENT_ADDR")

	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")

	if err := integer(&c.Upload.MaxMB, "MAX_UPLOAD_MB"); err != nil {
		return err
	}
	return boolean(&c.Filestore.Minio.UseSSL, "MINIO_USE_SSL")
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func integer(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func boolean(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}

// MaxUploadBytes converts Upload.MaxMB to bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.Upload.MaxMB) << 20 }

// Extensions returns the allowed upload extensions lower-cased with a dot.
func (c Config) Extensions() []string {
	out := make([]string, 0, len(c.Upload.AllowedExt))
	for _, e := range c.Upload.AllowedExt {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
