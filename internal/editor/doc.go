// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package editor implements the clone-edit-commit workflow used to change a
// group or entry of a [kdbx.Document].
//
// A Session tracks one node. It keeps a master copy of the last persisted
// state and a working copy that callers mutate freely. Commit pushes the
// working copy into the live tree and asks a [Persister] to save the
// document; if saving fails the tree is put back exactly as it was.
//
//	s := editor.NewEntrySession(entry, false, svc, log)
//	s.BeginEdit()
//	s.Working().Password().SetClearValue("new secret")
//	if err := s.Commit(ctx); err != nil {
//		// the entry is unchanged and the session is read-only again
//	}
package editor
