// internal/workers/travel/analyze-message/config.go
package analyzemessage

import (
	"fmt"
	"time"

	"travel-orchestrator/internal/common/config"
	"travel-orchestrator/internal/models"
)

type Config struct {
	Enabled         bool            `mapstructure:"enabled"`
	MaxJobsActive   int             `mapstructure:"max_jobs_active"`
	Timeout         time.Duration   `mapstructure:"timeout"`
	DefaultLanguage models.Language `mapstructure:"default_language"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		MaxJobsActive:   5,
		Timeout:         10 * time.Second,
		DefaultLanguage: models.DefaultLanguage,
	}
}

// FromAppConfig reads the worker section and the NLU defaults.
func FromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	wc := config.GetWorkerConfig(cfg, TaskType)
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.NLU.DefaultLanguage != "" {
		c.DefaultLanguage = models.Language(cfg.NLU.DefaultLanguage)
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.DefaultLanguage == "" {
		return fmt.Errorf("default_language is required")
	}
	return nil
}
