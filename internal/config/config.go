// Package config loads assetgen settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/kingspeech/assetgen/internal/assets"
	"github.com/kingspeech/assetgen/internal/derivative"
)

var validate = validator.New()

// Settings holds the environment-derived parameters. Command flags override them.
type Settings struct {
	Root         string `env:"ASSETGEN_ROOT" envDefault:"." validate:"required"`
	RegistryPath string `env:"ASSETGEN_REGISTRY"`
	Quality      int    `env:"ASSETGEN_WEBP_QUALITY" envDefault:"82" validate:"gte=0,lte=100"`
	Method       int    `env:"ASSETGEN_WEBP_METHOD" envDefault:"6" validate:"gte=0,lte=6"`
	Jobs         int    `env:"ASSETGEN_JOBS" envDefault:"1" validate:"gte=1"`
}

// Load parses the environment into Settings and validates the result.
func Load() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Registry returns the YAML registry when RegistryPath is set, otherwise the
// compiled-in defaults rooted at Root.
func (s *Settings) Registry() (*assets.Registry, error) {
	if s.RegistryPath == "" {
		return assets.DefaultRegistry(s.Root), nil
	}
	return assets.LoadRegistry(s.RegistryPath, s.Root)
}

// GeneratorOptions maps the encoder settings onto derivative options.
func (s *Settings) GeneratorOptions() derivative.Options {
	return derivative.Options{Quality: s.Quality, Method: s.Method}
}
