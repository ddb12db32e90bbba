// Package server implements the gspkit HTTP server: a registry of named
// point-cloud datasets plus endpoints to build similarity graphs over them
// and run graph-based classification.
//
// This file defines the Go structs that correspond to the YAML server
// configuration, allowing type-safe parsing of listen addresses, auth and
// default graph-construction parameters.
package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sanonone/gspkit/pkg/gsp"
)

// Config is the top-level structure of the server configuration file.
type Config struct {
	// HTTPAddr is the listen address, e.g. ":9091".
	HTTPAddr string `yaml:"http_addr"`
	// AuthToken protects every endpoint except /healthz and /metrics.
	// Empty disables authentication.
	AuthToken string `yaml:"auth_token"`
	// AsyncThreshold is the point count above which graph builds run as
	// background tasks instead of inline in the request.
	AsyncThreshold int `yaml:"async_threshold"`
	// Graph holds the default graph-construction parameters; requests
	// can override them per call.
	Graph GraphConfig `yaml:"graph"`
}

// GraphConfig mirrors gsp.Config in YAML form.
type GraphConfig struct {
	Mode           string  `yaml:"mode"`
	K              int     `yaml:"k"`
	Epsilon        float64 `yaml:"epsilon"`
	Sigma          float64 `yaml:"sigma"`
	UseL1          bool    `yaml:"use_l1"`
	UseFlann       bool    `yaml:"use_flann"`
	UseFull        bool    `yaml:"use_full"`
	Center         bool    `yaml:"center"`
	Rescale        bool    `yaml:"rescale"`
	SymmetrizeType string  `yaml:"symmetrize_type"`
	Light          bool    `yaml:"light"`
}

// DefaultConfig returns the built-in server defaults.
func DefaultConfig() Config {
	g := gsp.DefaultConfig()
	return Config{
		HTTPAddr:       ":9091",
		AsyncThreshold: 10000,
		Graph: GraphConfig{
			Mode:           g.Mode,
			K:              g.K,
			Epsilon:        g.Epsilon,
			SymmetrizeType: g.SymmetrizeType,
		},
	}
}

// ToGSP converts the YAML graph defaults into a gsp.Config, falling back
// to the library defaults for unset fields.
func (gc GraphConfig) ToGSP() gsp.Config {
	cfg := gsp.DefaultConfig()
	if gc.Mode != "" {
		cfg.Mode = gc.Mode
	}
	if gc.K > 0 {
		cfg.K = gc.K
	}
	if gc.Epsilon > 0 {
		cfg.Epsilon = gc.Epsilon
	}
	cfg.Sigma = gc.Sigma
	cfg.UseL1 = gc.UseL1
	cfg.UseFlann = gc.UseFlann
	cfg.UseFull = gc.UseFull
	cfg.Center = gc.Center
	cfg.Rescale = gc.Rescale
	if gc.SymmetrizeType != "" {
		cfg.SymmetrizeType = gc.SymmetrizeType
	}
	cfg.Light = gc.Light
	return cfg
}

// LoadConfig reads and parses the YAML configuration file. It uses strict
// mode (KnownFields) to prevent silent errors due to typos, and expands
// environment variables so tokens can stay out of the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}
	return cfg, nil
}
