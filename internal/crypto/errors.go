// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned by [NewInnerStream] for stream
	// algorithms that this package does not implement (for example the
	// legacy ArcFour variant).
	ErrUnsupportedAlgorithm = errors.New("unsupported inner stream algorithm")

	// ErrEmptyStreamKey is returned when an inner stream is requested
	// without key material.
	ErrEmptyStreamKey = errors.New("inner stream key is empty")
)
