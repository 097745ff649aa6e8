// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	Document struct {
		InputPath  string `json:"input_path"`
		OutputPath string `json:"output_path"`
		Version    int    `json:"version"`
	} `json:"document,omitempty"`

	Crypto struct {
		StreamAlgorithm string `json:"stream_algorithm"`
		StreamKey       string `json:"stream_key"`
	} `json:"crypto,omitempty"`

	App struct {
		Query   string   `json:"query"`
		LogRole string   `json:"log_role"`
		Timeout Duration `json:"timeout"`
	} `json:"app,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Document: Document{
			InputPath:  jsonCfg.Document.InputPath,
			OutputPath: jsonCfg.Document.OutputPath,
			Version:    jsonCfg.Document.Version,
		},
		Crypto: Crypto{
			StreamAlgorithm: jsonCfg.Crypto.StreamAlgorithm,
			StreamKey:       jsonCfg.Crypto.StreamKey,
		},
		App: App{
			Query:   jsonCfg.App.Query,
			LogRole: jsonCfg.App.LogRole,
			Timeout: time.Duration(jsonCfg.App.Timeout),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
