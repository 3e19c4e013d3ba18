// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config holds the settings of a graph build and loads them from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/poiesic/normgraph/graph"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for an unusable configuration.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the complete configuration of a build.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	References ReferencesConfig `yaml:"references"`
	Similarity SimilarityConfig `yaml:"similarity"`

	// Workers is the worker pool size. Zero picks one from the CPU count.
	Workers int `yaml:"workers"`
}

// InputConfig locates the chunk corpus.
type InputConfig struct {
	// ChunksDir holds one subdirectory per document.
	ChunksDir string `yaml:"chunks_dir"`
	// Pattern selects chunk files inside a document directory (doublestar syntax).
	Pattern string `yaml:"pattern"`
}

// OutputConfig locates the build artifacts.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	GraphFile string `yaml:"graph_file"`
	LogFile   string `yaml:"log_file"`
	// SnapshotDir, if set, receives a badger snapshot of the graph.
	SnapshotDir string `yaml:"snapshot_dir"`
}

// ReferencesConfig configures cross-reference detection.
type ReferencesConfig struct {
	// Matcher is one of containment, exact or edit.
	Matcher string `yaml:"matcher"`
	// MaxDistance is the edit distance accepted by the edit matcher.
	MaxDistance int `yaml:"max_distance"`
}

// SimilarityConfig configures similarity detection.
type SimilarityConfig struct {
	Threshold float64 `yaml:"threshold"`
	MaxLinks  int     `yaml:"max_links"`
	// Policy is prefix or ranked.
	Policy string `yaml:"policy"`
}

// Option is a functional option for configuring a Config.
type Option func(*Config)

// WithChunksDir sets the corpus root.
func WithChunksDir(dir string) Option {
	return func(c *Config) {
		c.Input.ChunksDir = dir
	}
}

// WithPattern sets the chunk file pattern.
func WithPattern(pattern string) Option {
	return func(c *Config) {
		c.Input.Pattern = pattern
	}
}

// WithOutputDir sets the artifact directory.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.Output.Dir = dir
	}
}

// WithSnapshotDir enables the badger snapshot at dir.
func WithSnapshotDir(dir string) Option {
	return func(c *Config) {
		c.Output.SnapshotDir = dir
	}
}

// WithMatcher sets the citation matcher name.
func WithMatcher(name string) Option {
	return func(c *Config) {
		c.References.Matcher = name
	}
}

// WithMaxDistance sets the edit distance accepted by the edit matcher.
func WithMaxDistance(distance int) Option {
	return func(c *Config) {
		c.References.MaxDistance = distance
	}
}

// WithThreshold sets the similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Config) {
		c.Similarity.Threshold = threshold
	}
}

// WithMaxLinks sets the similarity edge cap.
func WithMaxLinks(maxLinks int) Option {
	return func(c *Config) {
		c.Similarity.MaxLinks = maxLinks
	}
}

// WithPolicy sets the similarity cap policy name.
func WithPolicy(policy string) Option {
	return func(c *Config) {
		c.Similarity.Policy = policy
	}
}

// WithWorkers sets the worker pool size.
func WithWorkers(workers int) Option {
	return func(c *Config) {
		c.Workers = workers
	}
}

// DefaultConfig returns the configuration of the standard build.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			ChunksDir: "chunks",
			Pattern:   "*.{json,yaml,yml}",
		},
		Output: OutputConfig{
			Dir:       "output",
			GraphFile: "advanced_graph.json",
			LogFile:   "advanced_build_log.txt",
		},
		References: ReferencesConfig{
			Matcher:     graph.MatcherContainment,
			MaxDistance: 1,
		},
		Similarity: SimilarityConfig{
			Threshold: 0.3,
			MaxLinks:  200,
			Policy:    string(graph.PolicyPrefix),
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := config.NewConfig(
//	    config.WithChunksDir("corpus/chunks"),
//	    config.WithPolicy("ranked"),
//	)
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return cfg
}

// Apply applies opts to c in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Normalize trims names and paths and lower-cases the matcher and policy.
func (c *Config) Normalize() {
	c.Input.ChunksDir = strings.TrimSpace(c.Input.ChunksDir)
	c.Input.Pattern = strings.TrimSpace(c.Input.Pattern)
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	c.Output.GraphFile = strings.TrimSpace(c.Output.GraphFile)
	c.Output.LogFile = strings.TrimSpace(c.Output.LogFile)
	c.Output.SnapshotDir = strings.TrimSpace(c.Output.SnapshotDir)
	c.References.Matcher = strings.ToLower(strings.TrimSpace(c.References.Matcher))
	c.Similarity.Policy = strings.ToLower(strings.TrimSpace(c.Similarity.Policy))
}

// Validate checks that the configuration is complete and consistent.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Input.ChunksDir == "" {
		return fmt.Errorf("%w: input.chunks_dir is required", ErrInvalidConfig)
	}
	if c.Input.Pattern != "" && !doublestar.ValidatePattern(c.Input.Pattern) {
		return fmt.Errorf("%w: input.pattern %q is not a valid glob", ErrInvalidConfig, c.Input.Pattern)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is required", ErrInvalidConfig)
	}
	if c.Output.GraphFile == "" {
		return fmt.Errorf("%w: output.graph_file is required", ErrInvalidConfig)
	}
	if c.Output.LogFile == "" {
		return fmt.Errorf("%w: output.log_file is required", ErrInvalidConfig)
	}
	if c.Output.GraphFile == c.Output.LogFile {
		return fmt.Errorf("%w: output.graph_file and output.log_file must differ", ErrInvalidConfig)
	}
	if _, err := graph.MatcherByName(c.References.Matcher, c.References.MaxDistance); err != nil {
		return fmt.Errorf("%w: references: %v", ErrInvalidConfig, err)
	}
	if c.Similarity.Threshold <= 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("%w: similarity.threshold must be in (0, 1]", ErrInvalidConfig)
	}
	if c.Similarity.MaxLinks < 0 {
		return fmt.Errorf("%w: similarity.max_links must not be negative", ErrInvalidConfig)
	}
	if _, err := graph.ParsePolicy(c.Similarity.Policy); err != nil {
		return fmt.Errorf("%w: similarity: %v", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// GraphPath returns the path of the graph artifact.
func (c *Config) GraphPath() string {
	return filepath.Join(c.Output.Dir, c.Output.GraphFile)
}

// LogPath returns the path of the build log artifact.
func (c *Config) LogPath() string {
	return filepath.Join(c.Output.Dir, c.Output.LogFile)
}

// LoadFromFile loads configuration from a YAML file. Keys absent from the
// file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
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
