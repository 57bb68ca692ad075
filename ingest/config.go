// Copyright 2026 Lectern Labs
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


package ingest

import (
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/lectern-app/lectern/chunk"
)

const (
	defaultWorkers        = 4
	defaultEmbedBatchSize = 32
	defaultEmbedDimension = 768
	defaultLeaseDuration  = 2 * time.Minute
	defaultPollInterval   = 500 * time.Millisecond
	defaultClaimRate      = rate.Limit(10) // claims per second across the pool
)

// Config holds the tuning parameters of the ingestion worker pool and
// pipeline. All values have documented defaults; zero values are filled
// in by Normalize.
type Config struct {
	// Workers is the fixed worker pool size. Default: 4
	Workers int

	// EmbedBatchSize bounds how many chunk texts go to the embedding
	// provider in one request. Default: 32
	EmbedBatchSize int

	// EmbedDimension is the expected embedding vector length. Every
	// returned vector is validated against it. Default: 768
	EmbedDimension int

	// LeaseDuration is the visibility timeout granted per claim. A
	// worker renews its lease while a job runs; a crashed worker's job
	// becomes claimable again after this window. Default: 2m
	LeaseDuration time.Duration

	// PollInterval is how long an idle worker waits before asking the
	// queue again. Default: 500ms
	PollInterval time.Duration

	// ClaimRate caps queue claims per second across the pool
	// (backpressure; a full queue delays jobs rather than rejecting
	// them). Default: 10/s
	ClaimRate rate.Limit

	// Chunk holds the chunker parameters (size, overlap, minimum
	// length).
	Chunk chunk.Config

	// Enrich holds the post-index enrichment heuristic thresholds.
	Enrich EnrichConfig
}

// Option is a functional option for configuring ingestion.
type Option func(*Config)

// WithWorkers sets the fixed worker pool size.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithEmbedBatchSize sets the embedding sub-batch size.
func WithEmbedBatchSize(n int) Option {
	return func(c *Config) {
		c.EmbedBatchSize = n
	}
}

// WithEmbedDimension sets the expected embedding vector length.
func WithEmbedDimension(dim int) Option {
	return func(c *Config) {
		c.EmbedDimension = dim
	}
}

// WithLeaseDuration sets the visibility timeout per claim.
func WithLeaseDuration(d time.Duration) Option {
	return func(c *Config) {
		c.LeaseDuration = d
	}
}

// WithPollInterval sets the idle worker poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithClaimRate caps claims per second across the pool.
func WithClaimRate(r rate.Limit) Option {
	return func(c *Config) {
		c.ClaimRate = r
	}
}

// WithChunking sets the chunker parameters.
func WithChunking(cfg chunk.Config) Option {
	return func(c *Config) {
		c.Chunk = cfg
	}
}

// WithEnrichment sets the enrichment heuristic thresholds.
func WithEnrichment(cfg EnrichConfig) Option {
	return func(c *Config) {
		c.Enrich = cfg
	}
}

// DefaultConfig returns the ingestion defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        defaultWorkers,
		EmbedBatchSize: defaultEmbedBatchSize,
		EmbedDimension: defaultEmbedDimension,
		LeaseDuration:  defaultLeaseDuration,
		PollInterval:   defaultPollInterval,
		ClaimRate:      defaultClaimRate,
		Chunk:          chunk.DefaultConfig(),
		Enrich:         DefaultEnrichConfig(),
	}
}

// NewConfig creates a Config with defaults and applies the options.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = def.EmbedBatchSize
	}
	if c.EmbedDimension <= 0 {
		c.EmbedDimension = def.EmbedDimension
	}
	if c.LeaseDuration <= 0 {
		c.LeaseDuration = def.LeaseDuration
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ClaimRate <= 0 {
		c.ClaimRate = def.ClaimRate
	}
	if c.Chunk == (chunk.Config{}) {
		c.Chunk = def.Chunk
	}
	c.Enrich.Normalize()
}

// Validate checks the configuration after normalization.
func (c *Config) Validate() error {
	c.Normalize()
	if err := c.Chunk.Validate(); err != nil {
		return err
	}
	if c.EmbedDimension <= 0 {
		return errors.New("ingest config: EmbedDimension must be positive")
	}
	return nil
}
