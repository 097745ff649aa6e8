// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidDocumentConfigs indicates a missing input path or an
	// unsupported format version.
	ErrInvalidDocumentConfigs = errors.New("invalid document configuration")
	// ErrInvalidCryptoConfigs indicates an unknown stream algorithm or a
	// missing or malformed stream key.
	ErrInvalidCryptoConfigs = errors.New("invalid crypto configuration")
	// ErrInvalidAppConfigs indicates invalid command settings.
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
)
