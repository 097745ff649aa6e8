// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *StructuredConfig
	}{
		{
			name:     "no flags",
			args:     nil,
			expected: &StructuredConfig{},
		},
		{
			name: "all flags",
			args: []string{
				"-i", "in.xml",
				"-o", "out.xml",
				"-format-version", "4",
				"-stream", "chacha20",
				"-stream-key", "abcd",
				"-q", "bank",
				"-log-role", "cli",
				"-timeout", "45s",
				"-c", "cfg.json",
			},
			expected: &StructuredConfig{
				Document:     Document{InputPath: "in.xml", OutputPath: "out.xml", Version: 4},
				Crypto:       Crypto{StreamAlgorithm: "chacha20", StreamKey: "abcd"},
				App:          App{Query: "bank", LogRole: "cli", Timeout: 45 * time.Second},
				JSONFilePath: "cfg.json",
			},
		},
		{
			name: "config alias",
			args: []string{"-config", "other.json"},
			expected: &StructuredConfig{
				JSONFilePath: "other.json",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-unknown"}},
		{"bad duration", []string{"-timeout", "forever"}},
		{"bad version", []string{"-format-version", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "error parsing flags")
		})
	}
}
