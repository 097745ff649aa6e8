// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	ErrNoDocument = errors.New("no document loaded")
	ErrNoTarget   = errors.New("no path to save the document to")

	// ErrHeaderBinaries is returned when saving a version 4 document that
	// holds attachments: their payloads belong in the inner header, which
	// the payload store does not write.
	ErrHeaderBinaries = errors.New("attachments of a version 4 document cannot be stored in the xml payload")
)
