package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable that overrides a file value.
const EnvPrefix = "ASSETDB_"

type Config struct {
	// Project is the host folder holding Assets, Library and the script
	// headers. A relative path is resolved against the config file.
	Project  string `toml:"project" yaml:"project" validate:"required"`
	LogLevel string `toml:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error fatal DEBUG INFO WARN ERROR FATAL"`
	LogFile  string `toml:"log_file" yaml:"log_file"`

	// Trash moves removed assets to the OS trash instead of deleting them.
	Trash bool `toml:"trash" yaml:"trash"`
	// ReadOnly opens the project for builds that ship only the library.
	ReadOnly   bool `toml:"read_only" yaml:"read_only"`
	Instancing bool `toml:"instancing" yaml:"instancing"`
	Workers    int  `toml:"workers" yaml:"workers" validate:"min=1,max=64"`

	Layout   data.Layout    `toml:"layout" yaml:"layout"`
	Metadata MetadataConfig `toml:"metadata" yaml:"metadata"`
	Library  LibraryConfig  `toml:"library" yaml:"library"`
}

type MetadataConfig struct {
	Backend string `toml:"backend" yaml:"backend" validate:"oneof=sidecar ephemeral sqlite postgres consul"`

	SQLitePath  string       `toml:"sqlite_path" yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
	PostgresURL string       `toml:"postgres_url" yaml:"postgres_url" validate:"required_if=Backend postgres"`
	Consul      ConsulConfig `toml:"consul" yaml:"consul"`
}

type ConsulConfig struct {
	Address    string `toml:"address" yaml:"address"`
	Token      string `toml:"token" yaml:"token"`
	Datacenter string `toml:"datacenter" yaml:"datacenter"`
	Namespace  string `toml:"namespace" yaml:"namespace"`
	Prefix     string `toml:"prefix" yaml:"prefix"`
}

type LibraryConfig struct {
	Backend string   `toml:"backend" yaml:"backend" validate:"oneof=local s3 mirror"`
	S3      S3Config `toml:"s3" yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `toml:"endpoint" yaml:"endpoint"`
	Bucket    string `toml:"bucket" yaml:"bucket"`
	AccessKey string `toml:"access_key" yaml:"access_key"`
	SecretKey string `toml:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl" yaml:"use_ssl"`
	Prefix    string `toml:"prefix" yaml:"prefix"`
}

func Default() *Config {
	return &Config{
		Project:    ".",
		LogLevel:   "info",
		Instancing: true,
		Workers:    1,
		Layout:     data.DefaultLayout(),
		Metadata: MetadataConfig{
			Backend: "sidecar",
		},
		Library: LibraryConfig{
			Backend: "local",
		},
	}
}

// Load reads a TOML or YAML config file and applies the environment on top.
// A .env file next to the config is loaded first; variables already set in
// the process win over it. An empty path yields the defaults plus the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	dir := "."

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand '%s': %w", path, err)
		}
		dir = filepath.Dir(expanded)

		content, err := os.ReadFile(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to read config '%s': %w", expanded, err)
		}
		if err := Decode(cfg, filepath.Ext(expanded), content); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", expanded, err)
		}
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.resolve(dir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses content into cfg by file extension.
func Decode(cfg *Config, ext string, content []byte) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Unmarshal(content, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(content, cfg)
	default:
		return fmt.Errorf("%w: config format '%s'", data.ErrUnsupported, ext)
	}
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"PROJECT":          &c.Project,
		"LOG_LEVEL":        &c.LogLevel,
		"LOG_FILE":         &c.LogFile,
		"METADATA_BACKEND": &c.Metadata.Backend,
		"SQLITE_PATH":      &c.Metadata.SQLitePath,
		"POSTGRES_URL":     &c.Metadata.PostgresURL,
		"CONSUL_ADDRESS":   &c.Metadata.Consul.Address,
		"CONSUL_TOKEN":     &c.Metadata.Consul.Token,
		"LIBRARY_BACKEND":  &c.Library.Backend,
		"S3_ENDPOINT":      &c.Library.S3.Endpoint,
		"S3_BUCKET":        &c.Library.S3.Bucket,
		"S3_ACCESS_KEY":    &c.Library.S3.AccessKey,
		"S3_SECRET_KEY":    &c.Library.S3.SecretKey,
	}
	for key, target := range strs {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			*target = value
		}
	}

	bools := map[string]*bool{
		"TRASH":      &c.Trash,
		"READ_ONLY":  &c.ReadOnly,
		"INSTANCING": &c.Instancing,
		"S3_USE_SSL": &c.Library.S3.UseSSL,
	}
	for key, target := range bools {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", data.ErrInvalid, EnvPrefix, key, value)
			}
			*target = parsed
		}
	}

	if value, ok := os.LookupEnv(EnvPrefix + "WORKERS"); ok {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %sWORKERS=%q", data.ErrInvalid, EnvPrefix, value)
		}
		c.Workers = workers
	}
	return nil
}

// resolve expands home references and anchors relative host paths at dir.
func (c *Config) resolve(dir string) error {
	var err error
	if c.Project, err = anchor(c.Project, dir); err != nil {
		return err
	}
	if c.LogFile != "" {
		if c.LogFile, err = anchor(c.LogFile, c.Project); err != nil {
			return err
		}
	}
	if c.Metadata.SQLitePath != "" && c.Metadata.SQLitePath != ":memory:" {
		if c.Metadata.SQLitePath, err = anchor(c.Metadata.SQLitePath, c.Project); err != nil {
			return err
		}
	}
	return nil
}

func anchor(p, dir string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand '%s': %w", p, err)
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(dir, expanded), nil
}

// Validate checks field constraints and the settings each backend needs.
func (c *Config) Validate() error {
	v := validator.New()

	var errs data.Errors
	if err := v.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return err
		}
		for _, fe := range invalid {
			errs.Add(fmt.Errorf("%w: %s failed on '%s'", data.ErrInvalid, fe.Namespace(), fe.Tag()))
		}
	}

	if c.Library.Backend != "local" {
		if c.Library.S3.Endpoint == "" {
			errs.Add(fmt.Errorf("%w: library backend '%s' needs an s3 endpoint", data.ErrInvalid, c.Library.Backend))
		}
		if c.Library.S3.Bucket == "" {
			errs.Add(fmt.Errorf("%w: library backend '%s' needs an s3 bucket", data.ErrInvalid, c.Library.Backend))
		}
	}

	return errs.Errors()
}

func (c *Config) Level() log.LogLevel {
	level, err := log.Parse(c.LogLevel)
	if err != nil {
		return log.Info
	}
	return level
}
