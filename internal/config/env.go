// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the environment. Each section reads its own
// prefix: DOCUMENT_INPUT_PATH, CRYPTO_STREAM_KEY, APP_TIMEOUT and so on,
// plus CONFIG for the JSON file path. Unset variables leave fields zero so
// later sources can fill them.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}
	return nil
}
