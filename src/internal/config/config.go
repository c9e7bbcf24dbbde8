// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/orgtree"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
)

// Environment variables read by [Load].
const (
	EnvConfigFile = "CERTTREE_CONFIG_FILE"
	EnvOldRoot    = "CERTTREE_OLD_ROOT"
	EnvNewRoot    = "CERTTREE_NEW_ROOT"
	EnvEngine     = "CERTTREE_ENGINE"
	EnvOpenSSL    = "CERTTREE_OPENSSL"
	EnvWorkers    = "CERTTREE_WORKERS"

	// DefaultPassphraseEnv names the environment variable holding a fallback passphrase file path.
	DefaultPassphraseEnv = "CERTTREE_PASSPHRASE_FILE"
)

// Tree names used in roots.required and in reports.
const (
	TreeOld = "old"
	TreeNew = "new"
)

var (
	// ErrInvalidConfig indicates a configuration that violates the schema.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrReadConfig indicates a configuration file that cannot be read or parsed.
	ErrReadConfig = errors.New("config: cannot load configuration file")
)

//go:embed schema.json
var schemaJSON string

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config is the verifier configuration.
type Config struct {
	// Roots: The trees to scan
	Roots struct {
		Old string `json:"old" yaml:"old"`
		New string `json:"new" yaml:"new"`
		// Required: Tree names whose absence aborts the run
		Required []string `json:"required,omitempty" yaml:"required,omitempty"`
	} `json:"roots" yaml:"roots"`

	// Passphrase: Where candidate passphrases come from
	Passphrase struct {
		FileName     string `json:"fileName" yaml:"fileName"`
		OverridePath string `json:"overridePath,omitempty" yaml:"overridePath,omitempty"`
		// EnvVar: Environment variable naming a fallback passphrase file
		EnvVar string `json:"envVar,omitempty" yaml:"envVar,omitempty"`
	} `json:"passphrase" yaml:"passphrase"`

	// Chain: Global intermediate candidates
	Chain struct {
		SearchRoots []string `json:"searchRoots,omitempty" yaml:"searchRoots,omitempty"`
		Patterns    []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	} `json:"chain" yaml:"chain"`

	// Engine: Crypto engine selection
	Engine struct {
		Kind        string `json:"kind" yaml:"kind"`
		OpenSSLPath string `json:"opensslPath,omitempty" yaml:"opensslPath,omitempty"`
	} `json:"engine" yaml:"engine"`

	// Output: Report rendering
	Output struct {
		Format      string `json:"format" yaml:"format"`
		WarnDays    int    `json:"warnDays" yaml:"warnDays"`
		NoColor     bool   `json:"noColor,omitempty" yaml:"noColor,omitempty"`
		MetricsFile string `json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`
	} `json:"output" yaml:"output"`

	// Workers: Organizations processed in parallel
	Workers int `json:"workers" yaml:"workers"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	c := &Config{}
	c.Roots.Old = "./old"
	c.Roots.New = "./new"
	c.Passphrase.FileName = orgtree.DefaultPassphraseFile
	c.Passphrase.EnvVar = DefaultPassphraseEnv
	c.Chain.Patterns = slices.Clone(x509chain.DefaultPatterns)
	c.Engine.Kind = x509engine.KindNative
	c.Engine.OpenSSLPath = "openssl"
	c.Output.Format = "text"
	c.Output.WarnDays = 30
	c.Workers = 4
	return c
}

// detectConfigFormat determines the configuration file format based on file extension.
func detectConfigFormat(configPath string) configFormat {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// Load builds the configuration: defaults, then the file, then the environment.
//
// Parameters:
//   - configPath: Configuration file; when empty, [EnvConfigFile] is consulted,
//     and when that is empty too only defaults and environment apply
//
// Returns:
//   - *Config: Validated configuration
//   - error: [ErrReadConfig] or [ErrInvalidConfig]
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = os.Getenv(EnvConfigFile)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
		}
		if err := Parse(data, detectConfigFormat(configPath) == configFormatYAML, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse validates a configuration document and merges it into cfg. Keys absent
// from data keep their value in cfg.
func Parse(data []byte, isYAML bool, cfg *Config) error {
	var doc any
	var err error
	if isYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	if doc == nil {
		// Empty file.
		return nil
	}

	if err := validate(gojsonschema.NewGoLoader(doc)); err != nil {
		return err
	}

	if isYAML {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvOldRoot); v != "" {
		c.Roots.Old = v
	}
	if v := os.Getenv(EnvNewRoot); v != "" {
		c.Roots.New = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		c.Engine.Kind = v
	}
	if v := os.Getenv(EnvOpenSSL); v != "" {
		c.Engine.OpenSSLPath = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks c against the configuration schema.
func (c *Config) Validate() error {
	return validate(gojsonschema.NewGoLoader(c))
}

func validate(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaJSON), doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// IsRequired reports whether the tree named name must exist.
func (c *Config) IsRequired(name string) bool {
	return slices.Contains(c.Roots.Required, name)
}

// PassphraseEnvFallback returns the path held by the configured environment variable.
func (c *Config) PassphraseEnvFallback() string {
	if c.Passphrase.EnvVar == "" {
		return ""
	}
	return os.Getenv(c.Passphrase.EnvVar)
}
