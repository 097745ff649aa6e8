// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// UUID identifies a node. On the wire it is the standard base64 encoding of
// its 16 raw bytes.
type UUID [16]byte

// EmptyUUID is the all-zero identifier KeePass uses for "no reference".
var EmptyUUID UUID

// NewUUID returns a fresh random identifier.
func NewUUID() UUID {
	return UUID(uuid.New())
}

// ParseUUID decodes the wire form. An empty string decodes to EmptyUUID.
func ParseUUID(encoded string) (UUID, error) {
	if encoded == "" {
		return EmptyUUID, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return EmptyUUID, err
	}
	if len(raw) != len(UUID{}) {
		return EmptyUUID, fmt.Errorf("uuid must be 16 bytes, got %d", len(raw))
	}

	var u UUID
	copy(u[:], raw)
	return u, nil
}

// Encoded returns the base64 wire form.
func (u UUID) Encoded() string {
	return base64.StdEncoding.EncodeToString(u[:])
}

func (u UUID) IsEmpty() bool {
	return u == EmptyUUID
}

// String returns the canonical hyphenated hex form, for logs.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}
