// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func validConfig() *StructuredConfig {
	return &StructuredConfig{
		Document: Document{InputPath: "in.xml", Version: 3},
		Crypto:   Crypto{StreamAlgorithm: "salsa20", StreamKey: "00112233"},
	}
}

// ── build ─────────────────────────────────────────────────────────────────────

func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// TestBuild_EmptyBuilder: nothing configured fails validation.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrInvalidDocumentConfigs)
}

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_EarlierSourceWins: mergo only fills fields that are still zero,
// so the first source to set a field decides it.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{App: App{Query: "from env"}},
		&StructuredConfig{App: App{Query: "from flags", LogRole: "flags"}},
	)
	b.withDefaults()
	b.configs = append(b.configs, validConfig())

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "from env", cfg.App.Query)
	assert.Equal(t, "flags", cfg.App.LogRole)
	assert.Equal(t, 30*time.Second, cfg.App.Timeout)
	assert.Equal(t, "in.xml", cfg.Document.InputPath)
}

func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StructuredConfig)
		wantErr error
	}{
		{"valid", func(*StructuredConfig) {}, nil},
		{"no input", func(c *StructuredConfig) { c.Document.InputPath = "" }, ErrInvalidDocumentConfigs},
		{"bad version", func(c *StructuredConfig) { c.Document.Version = 2 }, ErrInvalidDocumentConfigs},
		{"unknown stream", func(c *StructuredConfig) { c.Crypto.StreamAlgorithm = "rc4" }, ErrInvalidCryptoConfigs},
		{"arcfour", func(c *StructuredConfig) { c.Crypto.StreamAlgorithm = "arcfour" }, ErrInvalidCryptoConfigs},
		{"bad key", func(c *StructuredConfig) { c.Crypto.StreamKey = "zz" }, ErrInvalidCryptoConfigs},
		{"missing key", func(c *StructuredConfig) { c.Crypto.StreamKey = "" }, ErrInvalidCryptoConfigs},
		{"no stream needs no key", func(c *StructuredConfig) {
			c.Crypto.StreamAlgorithm = "none"
			c.Crypto.StreamKey = ""
		}, nil},
		{"negative timeout", func(c *StructuredConfig) { c.App.Timeout = -time.Second }, ErrInvalidAppConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// ── sources ──────────────────────────────────────────────────────────────────

func TestWithEnv_ReadsEnvVars(t *testing.T) {
	setEnvVars(t, map[string]string{"DOCUMENT_INPUT_PATH": "env.xml"})

	b := newConfigBuilder().withEnv()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "env.xml", b.configs[0].Document.InputPath)
}

func TestWithFlags_SetsErrorOnBadFlag(t *testing.T) {
	b := newConfigBuilder().withFlags([]string{"-nope"})
	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

func TestWithJSON_NoOp_WhenNoPathSet(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b.withJSON()
	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithJSON_AppendsConfig_WhenValidFile(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"document": map[string]any{"input_path": "json.xml"},
	})

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "json.xml", b.configs[1].Document.InputPath)
}

func TestWithJSON_SetsError_WhenFileNotFound(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/does/not/exist.json"})
	b.withJSON()

	assert.Error(t, b.err)
	assert.Len(t, b.configs, 1)
}

// TestBuilder_FullChain runs every source the way GetStructuredConfig does.
func TestBuilder_FullChain(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"document": map[string]any{"input_path": "json.xml", "output_path": "json-out.xml"},
		"crypto":   map[string]any{"stream_key": "a1b2"},
	})
	setEnvVars(t, map[string]string{"DOCUMENT_INPUT_PATH": "env.xml"})

	cfg, err := newConfigBuilder().
		withEnv().
		withFlags([]string{"-c", path, "-format-version", "4", "-stream", "chacha20"}).
		withJSON().
		withDefaults().
		build()
	require.NoError(t, err)

	assert.Equal(t, "env.xml", cfg.Document.InputPath)
	assert.Equal(t, "json-out.xml", cfg.Document.OutputPath)
	assert.Equal(t, 4, cfg.Document.Version)
	assert.Equal(t, "chacha20", cfg.Crypto.StreamAlgorithm)
	assert.Equal(t, "kdbxtool", cfg.App.LogRole)

	key, err := cfg.Crypto.Key()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa1, 0xb2}, key)
}
