// Package config handles tulip.toml host configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "tulip.toml"

// Default inline program used when no script path is given.
const (
	DefaultSource = "1 + 2;"
	DefaultName   = "<test>"
)

// Config represents a tulip.toml configuration.
type Config struct {
	Inline Inline       `toml:"inline"`
	Run    Run          `toml:"run"`
	Log    Log          `toml:"log"`
	Report ReportConfig `toml:"report"`

	// Path is the file the configuration was read from (empty for defaults).
	Path string `toml:"-"`
}

// Inline configures the program interpreted when no script is given.
type Inline struct {
	Source string `toml:"source"`
	Name   string `toml:"name"`
}

// Run configures script execution.
type Run struct {
	WithResult bool `toml:"with-result"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// ReportConfig configures the CBOR run report.
type ReportConfig struct {
	Output string `toml:"output"`
}

// Default returns the configuration used when no tulip.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Inline.Source == "" {
		c.Inline.Source = DefaultSource
	}
	if c.Inline.Name == "" {
		c.Inline.Name = DefaultName
	}
}

// Load parses tulip.toml from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a configuration file at an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Relative log and report paths are relative to the config file.
	dir := filepath.Dir(c.Path)
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(dir, c.Log.File)
	}
	if c.Report.Output != "" && !filepath.IsAbs(c.Report.Output) {
		c.Report.Output = filepath.Join(dir, c.Report.Output)
	}

	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a tulip.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LogFile returns the log file path for commonlog.Configure, or nil for
// stderr.
func (c *Config) LogFile() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	return &path
}
