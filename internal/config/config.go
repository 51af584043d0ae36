package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "config.yaml"
	envPrefix      = "SEOCMS"
)

// SetupConfig loads file-based configuration needed for bootstrap from the
// working directory and initializes the logger. Runtime configuration
// (publication settings) is loaded from the database afterwards.
func SetupConfig() *cms.Config {
	config, err := Load(".")
	if err != nil {
		slog.Error("failed to read config", "error", err)
		os.Exit(1)
	}

	logger.InitLogger(
		logger.ParseLogFormat(config.LogFormat),
		logger.ParseLogLevel(config.LogLevel),
	)
	return config
}

// Load reads dir/config.yaml, writing one with defaults if it does not exist.
// A dir/.env file, if present, is loaded into the environment first, and
// SEOCMS_<KEY> variables override file values.
func Load(dir string) (*cms.Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("dbfile", "seocms.db")
	v.SetDefault("host", "0.0.0.0:8080")
	v.SetDefault("log_format", "pretty") // pretty, json, or text
	v.SetDefault("log_level", "info")    // debug, info, warn, error
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("site_name", "SEO CMS")
	v.SetDefault("sanitizer", "text") // text or dom
	v.SetDefault("render_workers", 0) // 0 uses one worker per CPU
	v.SetDefault("page_cache_ttl", 300)
	v.SetDefault("publish_token_hash", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, configFilename)
	v.SetConfigFile(path)

	createDefaultConfigFile := false
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		createDefaultConfigFile = true
	}

	config := &cms.Config{
		DatabaseFile:     v.GetString("dbfile"),
		Host:             v.GetString("host"),
		BaseURL:          strings.TrimSuffix(v.GetString("base_url"), "/"),
		SiteName:         v.GetString("site_name"),
		LogFormat:        v.GetString("log_format"),
		LogLevel:         v.GetString("log_level"),
		Sanitizer:        v.GetString("sanitizer"),
		RenderWorkers:    v.GetInt("render_workers"),
		PageCacheTTL:     v.GetInt("page_cache_ttl"),
		PublishTokenHash: v.GetString("publish_token_hash"),
	}

	if createDefaultConfigFile {
		slog.Info("config not found, writing defaults", "file", path)
		if err := writeConfig(path, config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func writeConfig(path string, config *cms.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return yaml.NewEncoder(f).Encode(config)
}
