// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package editor

import "errors"

var (
	// ErrPersistFailed wraps the error reported by the Persister. The tree
	// has been restored when it is returned.
	ErrPersistFailed = errors.New("failed to persist document")

	// ErrNotFound is returned by Commit when the tracked node is no longer a
	// child of its recorded parent.
	ErrNotFound = errors.New("tracked node not found under its parent")
)
