// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// SeedConfig is settings for seed fingerprinting and anchor generation
type SeedConfig struct {
	// the k-mer size used for seed fingerprints
	K int `mapstructure:"kmer-size"`
}

// AlignConfig is settings for the batched consensus engine
type AlignConfig struct {
	// match score (positive)
	Match int `mapstructure:"match"`

	// mismatch penalty (negative)
	Mismatch int `mapstructure:"mismatch"`

	// gap penalty (negative)
	Gap int `mapstructure:"gap"`

	// whether to restrict alignment to a diagonal band
	Banded bool `mapstructure:"banded"`

	// the corridor width in banded mode
	BandWidth int `mapstructure:"band-width"`

	// the maximum number of sequences per problem
	MaxSequences int `mapstructure:"max-sequences"`

	// the longest accepted sequence
	MaxSeqLen int `mapstructure:"max-length"`
}

// Config is the root-level settings struct, a mix of defaults and
// command line arguments
type Config struct {
	// the device to run on
	Device int `mapstructure:"device"`

	// the device memory budget, e.g. "512MiB"
	MaxMemory string `mapstructure:"max-memory"`

	// seed settings
	Seed SeedConfig `mapstructure:",squash"`

	// alignment settings
	Align AlignConfig `mapstructure:",squash"`
}

// New returns a new Config struct populated by Viper settings
// bound from the command line
func New() Config {
	var c Config

	if err := viper.Unmarshal(&c); err != nil {
		log.Fatalf("unable to decode settings into struct: %v", err)
	}

	return c
}

// MemoryBytes parses the configured memory budget
func (c Config) MemoryBytes() int64 {
	n, err := humanize.ParseBytes(c.MaxMemory)
	if err != nil {
		log.Fatalf("invalid max-memory %q: %v", c.MaxMemory, err)
	}
	return int64(n)
}
