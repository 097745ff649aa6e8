// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// ParseFlags parses the command-line flags in args.
//
// Flags:
//
//	-i input payload path
//	-o output payload path
//	-format-version KDBX major version (3 or 4)
//	-stream inner stream algorithm (salsa20, chacha20)
//	-stream-key hex inner stream key
//	-q search query
//	-log-role role field for log lines
//	-timeout load/save timeout (e.g., "30s")
//	-c/-config json file path with configs
func ParseFlags(args []string) (*StructuredConfig, error) {
	var inputPath, outputPath string
	var version int
	var streamAlgorithm, streamKey string
	var query, logRole string
	var timeout time.Duration
	var jsonConfigPath string

	fs := flag.NewFlagSet("kdbxtool", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&inputPath, "i", "", "Input payload path")
	fs.StringVar(&outputPath, "o", "", "Output payload path")
	fs.IntVar(&version, "format-version", 0, "KDBX major version (3 or 4)")
	fs.StringVar(&streamAlgorithm, "stream", "", "Inner stream algorithm (salsa20, chacha20)")
	fs.StringVar(&streamKey, "stream-key", "", "Hex encoded inner stream key")
	fs.StringVar(&query, "q", "", "Search query")
	fs.StringVar(&logRole, "log-role", "", "Role field for log lines")
	fs.DurationVar(&timeout, "timeout", 0, "Load/save timeout (e.g., 30s)")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		Document: Document{
			InputPath:  inputPath,
			OutputPath: outputPath,
			Version:    version,
		},
		Crypto: Crypto{
			StreamAlgorithm: streamAlgorithm,
			StreamKey:       streamKey,
		},
		App: App{
			Query:   query,
			LogRole: logRole,
			Timeout: timeout,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}
