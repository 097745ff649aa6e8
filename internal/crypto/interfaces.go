// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto supplies the random-byte sources consumed by the KDBX DOM.
//
// A KDBX file obfuscates every protected string value with a keystream
// derived from the inner random stream key stored in the (outer) header.
// The DOM treats that keystream as a plain [RandomSource]: requesting N bytes
// in sequence yields the mask of the next protected value in document order.
// The same source is reused afterwards to mask values in memory.
package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/random_source_mock.go -package=mock

// RandomSource produces a stream of bytes used to mask protected values.
//
// Implementations must be safe for concurrent use: several protected strings
// share one source and may draw masks from different goroutines.
type RandomSource interface {
	// GetBytes returns the next count bytes of the stream. A count of zero
	// returns an empty, non-nil slice and does not advance the stream.
	GetBytes(count int) []byte

	// Clone returns an independent generator of the same kind. Keyed
	// stream generators restart from the beginning of their keystream, so
	// a clone of a freshly created source reproduces the same bytes.
	Clone() RandomSource
}
