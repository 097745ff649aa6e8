// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

// validate checks that the merged [StructuredConfig] can drive a load:
// an input path, a known format version, and a usable inner stream.
func (cfg *StructuredConfig) validate() error {
	if cfg.Document.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidDocumentConfigs)
	}
	if v := cfg.Document.Version; v != 3 && v != 4 {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidDocumentConfigs, v)
	}

	alg, err := cfg.Crypto.Algorithm()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCryptoConfigs, err)
	}
	if alg == crypto.StreamArcFourVariant {
		return fmt.Errorf("%w: %s is not supported", ErrInvalidCryptoConfigs, alg)
	}
	key, err := cfg.Crypto.Key()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCryptoConfigs, err)
	}
	if alg != crypto.StreamNone && len(key) == 0 {
		return fmt.Errorf("%w: stream key is required for %s", ErrInvalidCryptoConfigs, alg)
	}

	if cfg.App.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidAppConfigs)
	}
	return nil
}
