/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package document

import (
	"fmt"
	"os"
	"path/filepath"
	gotime "time"

	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/cotext/internal/validation"
)

// Below are the values of the default values of the document config.
const (
	DefaultMaxLeafBytes         = 256
	DefaultGCGracePeriod        = 0 * gotime.Second
	DefaultPendingRetryWindow   = 30 * gotime.Second
	DefaultMaxPendingOperations = 10000
	DefaultCompactionThreshold  = 0
)

// Config is the configuration for creating a Document.
type Config struct {
	// MaxLeafBytes is the upper bound of a rope chunk and of the fragments
	// in a leaf of the fragment tree.
	MaxLeafBytes int `yaml:"MaxLeafBytes" validate:"gte=16"`

	// GCGracePeriod is how long a tombstone is kept after it becomes
	// collectable.
	GCGracePeriod string `yaml:"GCGracePeriod" validate:"duration"`

	// PendingRetryWindow is how long an operation may wait for its
	// dependencies before a causal gap is reported.
	PendingRetryWindow string `yaml:"PendingRetryWindow" validate:"duration"`

	// MaxPendingOperations bounds the deferred operation queue.
	MaxPendingOperations int `yaml:"MaxPendingOperations" validate:"gte=1"`

	// CompactionThreshold is the number of tombstones that triggers a
	// compaction after remote operations were applied. Zero disables it.
	CompactionThreshold int `yaml:"CompactionThreshold" validate:"gte=0"`
}

// NewConfig returns a Config with the default values.
func NewConfig() *Config {
	return &Config{
		MaxLeafBytes:         DefaultMaxLeafBytes,
		GCGracePeriod:        DefaultGCGracePeriod.String(),
		PendingRetryWindow:   DefaultPendingRetryWindow.String(),
		MaxPendingOperations: DefaultMaxPendingOperations,
		CompactionThreshold:  DefaultCompactionThreshold,
	}
}

// NewConfigFromFile returns a Config from the given YAML file. Missing
// values are filled with the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("validate document config: %w", err)
	}
	return nil
}

// ParseGCGracePeriod returns the grace period as a duration.
func (c *Config) ParseGCGracePeriod() (gotime.Duration, error) {
	d, err := gotime.ParseDuration(c.GCGracePeriod)
	if err != nil {
		return 0, fmt.Errorf("parse gc grace period %q: %w", c.GCGracePeriod, err)
	}
	return d, nil
}

// ParsePendingRetryWindow returns the retry window as a duration.
func (c *Config) ParsePendingRetryWindow() (gotime.Duration, error) {
	d, err := gotime.ParseDuration(c.PendingRetryWindow)
	if err != nil {
		return 0, fmt.Errorf("parse pending retry window %q: %w", c.PendingRetryWindow, err)
	}
	return d, nil
}

func (c *Config) ensureDefaultValue() {
	if c.MaxLeafBytes == 0 {
		c.MaxLeafBytes = DefaultMaxLeafBytes
	}
	if c.GCGracePeriod == "" {
		c.GCGracePeriod = DefaultGCGracePeriod.String()
	}
	if c.PendingRetryWindow == "" {
		c.PendingRetryWindow = DefaultPendingRetryWindow.String()
	}
	if c.MaxPendingOperations == 0 {
		c.MaxPendingOperations = DefaultMaxPendingOperations
	}
}
