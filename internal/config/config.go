// Package config handles gocsdump.toml run configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultOutput         = "types.cs"
	DefaultSymbolsPackage = "symbols"
)

type Config struct {
	Input  Input  `toml:"input"`
	Output Output `toml:"output"`
	Filter Filter `toml:"filter"`
	Log    Log    `toml:"log"`
}

// Input names the metadata source. Snapshot wins when both are set.
type Input struct {
	Snapshot string `toml:"snapshot"`
	WinMd    string `toml:"winmd"`
}

type Output struct {
	Path           string `toml:"path"`
	Symbols        string `toml:"symbols"`
	SymbolsPackage string `toml:"symbols-package"`
}

type Filter struct {
	ExcludeNamespaces         []string `toml:"exclude-namespaces"`
	SuppressCompilerGenerated bool     `toml:"suppress-compiler-generated"`
}

type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses a configuration file. Keys missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Output.Path == "" {
		c.Output.Path = DefaultOutput
	}
	if c.Output.SymbolsPackage == "" {
		c.Output.SymbolsPackage = DefaultSymbolsPackage
	}
}
