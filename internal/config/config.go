package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Backend struct {
		BaseURL        string `yaml:"baseURL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"backend"`

	Chat struct {
		WindowSize int `yaml:"windowSize"`
	} `yaml:"chat"`

	Suggest struct {
		DebounceMS int `yaml:"debounceMs"`
	} `yaml:"suggest"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml, terus apply env overrides
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// no file: defaults + environment only
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.baseURL is required (or set BACKEND_BASE_URL)")
	}
	return &cfg, nil
}

// applyEnv lets secrets and deploy-specific values come from the
// environment instead of the yaml file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		c.Minio.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 30
	}
	if c.Chat.WindowSize == 0 {
		c.Chat.WindowSize = 5
	}
	if c.Suggest.DebounceMS == 0 {
		c.Suggest.DebounceMS = 1000
	}
}

// BackendTimeout helper
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// SuggestDebounce helper
func (c *Config) SuggestDebounce() time.Duration {
	return time.Duration(c.Suggest.DebounceMS) * time.Millisecond
}

// ArchiveEnabled reports whether the report archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}
