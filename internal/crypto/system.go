// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
)

// systemSource draws bytes from the OS CSPRNG. It has no keystream position,
// so clones are simply new sources.
type systemSource struct{}

// NewSystemSource returns a [RandomSource] backed by crypto/rand. It is used
// to mask values that were never part of an encrypted file (new strings,
// group names) when no keyed stream is available.
func NewSystemSource() RandomSource {
	return systemSource{}
}

func (systemSource) GetBytes(count int) []byte {
	out := make([]byte, count)
	if _, err := rand.Read(out); err != nil {
		// crypto/rand.Read never returns an error on supported platforms
		panic(err)
	}
	return out
}

func (systemSource) Clone() RandomSource {
	return systemSource{}
}

// nullSource is the keystream of the Null inner stream.
type nullSource struct{}

// NewNullSource returns a [RandomSource] that yields only zero bytes, so
// XOR masking leaves values unchanged.
func NewNullSource() RandomSource {
	return nullSource{}
}

func (nullSource) GetBytes(count int) []byte {
	return make([]byte, count)
}

func (nullSource) Clone() RandomSource {
	return nullSource{}
}
