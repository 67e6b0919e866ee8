// Package config holds the settings threaded into the resolver and orderer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// NoArch is the architecture of arch-independent packages
const NoArch = "noarch"

// Config controls how a transaction is resolved and ordered
type Config struct {
	// Arch is the target machine architecture
	Arch string `yaml:"arch"`
	// ArchCompat lists, per canonical arch, the arches whose packages it can run
	ArchCompat map[string][]string `yaml:"arch_compat"`
	// ArchTranslate maps alias arch names to their canonical name
	ArchTranslate map[string]string `yaml:"arch_translate"`
	// IgnoreRequires lists name prefixes of internal pseudo-requirements
	IgnoreRequires []string `yaml:"ignore_requires"`
	// Protected lists package names that may never be obsoleted away
	Protected []string `yaml:"protected"`
	// SkipFileConflicts disables the file conflict stage
	SkipFileConflicts bool `yaml:"skip_file_conflicts"`

	// Logger receives the transaction's log entries (nil = standard logger)
	Logger *logrus.Entry `yaml:"-"`
}

// DefaultConfig returns a Config with an x86_64 target and rpm's usual
// arch tables
func DefaultConfig() *Config {
	return &Config{
		Arch: "x86_64",
		ArchCompat: map[string][]string{
			"x86_64":  {"athlon", "i686", "i586", "i486", "i386"},
			"athlon":  {"i686", "i586", "i486", "i386"},
			"i686":    {"i586", "i486", "i386"},
			"i586":    {"i486", "i386"},
			"i486":    {"i386"},
			"ppc64":   {"ppc"},
			"s390x":   {"s390"},
			"armv7hl": {"armv7l", "armv6l"},
			"armv7l":  {"armv6l"},
		},
		ArchTranslate: map[string]string{
			"amd64": "x86_64",
			"em64t": "x86_64",
			"ia32e": "x86_64",
			"arm64": "aarch64",
		},
		IgnoreRequires: []string{"rpmlib("},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Arch == "" {
		return fmt.Errorf("arch is required")
	}
	if c.Arch == NoArch {
		return fmt.Errorf("arch cannot be %s", NoArch)
	}
	for alias, canonical := range c.ArchTranslate {
		if canonical == "" {
			return fmt.Errorf("arch_translate.%s has no target", alias)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Arch != "" {
		c.Arch = other.Arch
	}
	for arch, compat := range other.ArchCompat {
		if c.ArchCompat == nil {
			c.ArchCompat = make(map[string][]string)
		}
		c.ArchCompat[arch] = compat
	}
	for alias, canonical := range other.ArchTranslate {
		if c.ArchTranslate == nil {
			c.ArchTranslate = make(map[string]string)
		}
		c.ArchTranslate[alias] = canonical
	}
	if len(other.IgnoreRequires) > 0 {
		c.IgnoreRequires = other.IgnoreRequires
	}
	if len(other.Protected) > 0 {
		c.Protected = other.Protected
	}
	if other.SkipFileConflicts {
		c.SkipFileConflicts = true
	}
	if other.Logger != nil {
		c.Logger = other.Logger
	}
}

// Log returns the logger entries should be written to
func (c *Config) Log() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Translate returns the canonical name of an arch
func (c *Config) Translate(arch string) string {
	if canonical, ok := c.ArchTranslate[arch]; ok {
		return canonical
	}
	return arch
}

// Compatible reports whether a package built for candidate can be used on
// a system (or by a package) of arch target
func (c *Config) Compatible(target, candidate string) bool {
	if candidate == NoArch || target == NoArch || target == "" || candidate == target {
		return true
	}
	t, cand := c.Translate(target), c.Translate(candidate)
	if t == cand {
		return true
	}
	return slices.Contains(c.ArchCompat[t], cand)
}

// SameArch reports whether two arches are translation equivalent
func (c *Config) SameArch(a, b string) bool {
	return c.Translate(a) == c.Translate(b)
}

// Multilib reports whether two arches are distinct but co-installable
// variants of one machine family, such as x86_64 and i686.
func (c *Config) Multilib(a, b string) bool {
	if a == NoArch || b == NoArch || c.SameArch(a, b) {
		return false
	}
	ta, tb := c.Translate(a), c.Translate(b)
	return slices.Contains(c.ArchCompat[ta], tb) || slices.Contains(c.ArchCompat[tb], ta)
}

// IsPseudoRequire reports whether a requirement is an internal marker that
// no package provides
func (c *Config) IsPseudoRequire(dep models.Dependency) bool {
	if dep.Flags&models.FlagRpmlib != 0 {
		return true
	}
	for _, prefix := range c.IgnoreRequires {
		if strings.HasPrefix(dep.Name, prefix) {
			return true
		}
	}
	return false
}

// IsProtected reports whether a package name may not be obsoleted
func (c *Config) IsProtected(name string) bool {
	return slices.Contains(c.Protected, name)
}
