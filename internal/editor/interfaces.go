// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package editor

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/persister_mock.go -package=mock

// Persister saves the document a session edits. It is implemented by the
// service layer, which serializes the document and writes it out.
type Persister interface {
	Persist(ctx context.Context) error
}
