// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

// StructuredConfig is the top-level configuration of kdbxtool. It is
// populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env:       direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Document describes the inner XML payload to read and where to write
	// it back.
	Document Document `envPrefix:"DOCUMENT_"`

	// Crypto holds the inner random stream used for protected values.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// App holds settings of the command itself.
	App App `envPrefix:"APP_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Document locates the decrypted inner XML payload.
type Document struct {
	// InputPath is the file the payload is read from.
	// Env: DOCUMENT_INPUT_PATH
	InputPath string `env:"INPUT_PATH"`

	// OutputPath, when set, receives the re-serialized payload.
	// Env: DOCUMENT_OUTPUT_PATH
	OutputPath string `env:"OUTPUT_PATH"`

	// Version is the KDBX major version (3 or 4) that decides date, binary
	// and header hash encoding.
	// Env: DOCUMENT_VERSION
	Version int `env:"VERSION"`
}

// Crypto configures the inner random stream.
type Crypto struct {
	// StreamAlgorithm is "salsa20" (KDBX 3) or "chacha20" (KDBX 4).
	// Env: CRYPTO_STREAM_ALGORITHM
	StreamAlgorithm string `env:"STREAM_ALGORITHM"`

	// StreamKey is the hex encoded inner random stream key from the outer
	// header. Must be kept confidential.
	// Env: CRYPTO_STREAM_KEY
	StreamKey string `env:"STREAM_KEY"`
}

// App holds settings of the command-line tool.
type App struct {
	// Query, when set, lists the nodes whose title (or entry tags) contain
	// it instead of printing a summary.
	// Env: APP_QUERY
	Query string `env:"QUERY"`

	// LogRole is the "role" field attached to every log line.
	// Env: APP_LOG_ROLE
	LogRole string `env:"LOG_ROLE"`

	// Timeout bounds a whole load or save (e.g. "30s").
	// Env: APP_TIMEOUT
	Timeout time.Duration `env:"TIMEOUT"`
}

// Algorithm returns the parsed stream algorithm.
func (c Crypto) Algorithm() (crypto.StreamAlgorithm, error) {
	return crypto.ParseStreamAlgorithm(c.StreamAlgorithm)
}

// Key decodes StreamKey.
func (c Crypto) Key() ([]byte, error) {
	key, err := hex.DecodeString(c.StreamKey)
	if err != nil {
		return nil, fmt.Errorf("decode stream key: %w", err)
	}
	return key, nil
}

// defaults fills whatever no source has set.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Document: Document{Version: 3},
		Crypto:   Crypto{StreamAlgorithm: crypto.StreamSalsa20.String()},
		App:      App{LogRole: "kdbxtool", Timeout: 30 * time.Second},
	}
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all available sources in the following priority order (earlier sources
// win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(os.Args[1:]).
		withJSON().
		withDefaults().
		build()
}
