// Package config handles .cribo.yml project-level configuration, adapted
// from the teacher's .arsrc.yml loader: same lookup/validation shape,
// retargeted from scoring overrides to bundler source roots and
// classifier hints.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents the .cribo.yml configuration file.
type ProjectConfig struct {
	Version int `yaml:"version"`

	// SrcRoots lists directories scanned for first-party modules, relative
	// to the config file's directory. Defaults to ["."] if empty.
	SrcRoots []string `yaml:"src_roots"`

	// Entry is the dotted module name (or path) of the bundle's entry
	// point; required unless given on the command line.
	Entry string `yaml:"entry"`

	// Output is the default output path for the bundled file.
	Output string `yaml:"output"`

	Classify ClassifyOverrides `yaml:"classify"`
}

// ClassifyOverrides lets a project pin otherwise-ambiguous import
// classifications (spec §6.3's external Classifier collaborator).
type ClassifyOverrides struct {
	FirstParty []string `yaml:"first_party"`
	ThirdParty []string `yaml:"third_party"`
}

// LoadProjectConfig loads project configuration from .cribo.yml or
// .cribo.yaml. If explicitPath is provided (from --config), that file is
// loaded. Returns nil (no error) if no config file is found, in which case
// the caller falls back to CLI-flag-only defaults.
func LoadProjectConfig(dir string, explicitPath string) (*ProjectConfig, error) {
	var configPath string

	if explicitPath != "" {
		configPath = explicitPath
	} else {
		ymlPath := filepath.Join(dir, ".cribo.yml")
		yamlPath := filepath.Join(dir, ".cribo.yaml")

		if _, err := os.Stat(ymlPath); err == nil {
			configPath = ymlPath
		} else if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			return nil, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read project config %s: %w", configPath, err)
	}

	cfg := &ProjectConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse project config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", configPath, err)
	}

	if len(cfg.SrcRoots) == 0 {
		cfg.SrcRoots = []string{"."}
	}

	return cfg, nil
}

// Validate checks that the ProjectConfig's values are well-formed.
func (c *ProjectConfig) Validate() error {
	if c.Version != 0 && c.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", c.Version)
	}
	for _, root := range c.SrcRoots {
		if root == "" {
			return fmt.Errorf("src_roots entries must not be empty")
		}
	}
	return nil
}

// ResolveSrcRoots joins each configured root against dir, the directory
// the config file was loaded from.
func (c *ProjectConfig) ResolveSrcRoots(dir string) []string {
	out := make([]string, len(c.SrcRoots))
	for i, root := range c.SrcRoots {
		if filepath.IsAbs(root) {
			out[i] = root
		} else {
			out[i] = filepath.Join(dir, root)
		}
	}
	return out
}
