package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Meridian-SCM/Segment/internal/scoring"
	"github.com/Meridian-SCM/Segment/internal/segment"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Nats         NatsConfig         `yaml:"nats"`
	Evaluation   EvaluationConfig   `yaml:"evaluation"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type NatsConfig struct {
	URL string `yaml:"url"`
}

type EvaluationConfig struct {
	// Workers bounds the scoring fan-out. Each supplier is scored
	// independently, so the pool needs no coordination beyond collecting
	// results.
	Workers int `yaml:"workers"`

	// PublishSupplierEvents emits one event per classified supplier in
	// addition to the run-level events. Noisy on large batches.
	PublishSupplierEvents bool `yaml:"publish_supplier_events"`
}

type ScoringConfig struct {
	// Profiles are the per-business-unit weight configurations. One entry
	// must carry the business_unit tag "combined": it is the fallback for
	// units without a profile of their own.
	Profiles []scoring.Profile `yaml:"profiles"`
}

type SegmentationConfig struct {
	Thresholds segment.Thresholds `yaml:"thresholds"`
	Targets    segment.Targets    `yaml:"targets"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Nats: NatsConfig{
			URL: "nats://localhost:4222",
		},
		Evaluation: EvaluationConfig{
			Workers: 8,
		},
		Scoring: ScoringConfig{
			Profiles: []scoring.Profile{
				{
					Version:      "v1",
					BusinessUnit: "combined",
					Weights:      scoring.DefaultWeights(),
					BUImpact:     100,
					BUScale:      3,
				},
			},
		},
		Segmentation: SegmentationConfig{
			Thresholds: segment.DefaultThresholds(),
			Targets:    segment.DefaultTargets(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Segmentation.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("segmentation thresholds: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SEGMENT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("SEGMENT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("SEGMENT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("SEGMENT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SEGMENT_NATS_URL"); v != "" {
		cfg.Nats.URL = v
	}
	if v := os.Getenv("SEGMENT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.Workers = n
		}
	}
	if v := os.Getenv("SEGMENT_PUBLISH_SUPPLIER_EVENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluation.PublishSupplierEvents = b
		}
	}
	if v := os.Getenv("SEGMENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
