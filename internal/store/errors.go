// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by payload stores. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrEmptyPath is returned when a load or save is attempted without a
	// destination.
	ErrEmptyPath = errors.New("empty payload path")

	// ErrPayloadNotFound is returned when the payload file does not exist.
	ErrPayloadNotFound = errors.New("payload was not found")

	// ErrPayloadNotSaved is returned when any step of an atomic save fails.
	// The previous payload, if any, is left in place.
	ErrPayloadNotSaved = errors.New("payload was not saved")
)
