// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package editor

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-kdbx/internal/kdbx"
	"github.com/MKhiriev/go-kdbx/internal/logger"
)

// Item is the set of node operations a session needs. It is satisfied by
// *kdbx.Group and *kdbx.Entry.
type Item[T any] interface {
	kdbx.Node
	Equal(other T) bool
	SyncTo(other T, isUpdate bool)
}

// Session tracks the edit state of one node.
//
// A new session (isNew) starts in edit mode; its node is not yet part of the
// tree. A session over an existing node starts read-only. BeginEdit is always
// allowed, but leaving edit mode while the working copy differs from the
// master has to go through Commit or Revert.
type Session[T Item[T]] struct {
	persister Persister
	log       *logger.Logger
	clone     func(T) T

	live     T
	master   T
	working  T
	isNew    bool
	readOnly bool
}

// NewEntrySession tracks entry. When isNew is set, entry must have been
// created for its parent (see kdbx.Document.NewEntry) but not inserted.
func NewEntrySession(entry *kdbx.Entry, isNew bool, persister Persister, log *logger.Logger) *Session[*kdbx.Entry] {
	return newSession(entry, isNew, persister, log, func(e *kdbx.Entry) *kdbx.Entry {
		return e.Clone(true)
	})
}

// NewGroupSession tracks group. When isNew is set, group must have been
// created for its parent (see kdbx.NewGroup) but not inserted.
func NewGroupSession(group *kdbx.Group, isNew bool, persister Persister, log *logger.Logger) *Session[*kdbx.Group] {
	return newSession(group, isNew, persister, log, (*kdbx.Group).Clone)
}

func newSession[T Item[T]](item T, isNew bool, persister Persister, log *logger.Logger, clone func(T) T) *Session[T] {
	if persister == nil {
		panic("editor: session requires a persister")
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Session[T]{
		persister: persister,
		log:       log,
		clone:     clone,
		live:      item,
		isNew:     isNew,
		readOnly:  !isNew,
	}
	s.master = clone(item)
	s.working = clone(s.master)
	return s
}

// Working returns the copy callers edit.
func (s *Session[T]) Working() T {
	return s.working
}

// Master returns the last persisted state. It must not be modified.
func (s *Session[T]) Master() T {
	return s.master
}

// IsNew reports whether the node has not been committed to the tree yet.
func (s *Session[T]) IsNew() bool {
	return s.isNew
}

func (s *Session[T]) IsReadOnly() bool {
	return s.readOnly
}

// IsDirty reports whether the working copy differs from the master.
func (s *Session[T]) IsDirty() bool {
	return !s.working.Equal(s.master)
}

// BeginEdit switches to edit mode.
func (s *Session[T]) BeginEdit() {
	s.readOnly = false
}

// EndEdit switches back to read-only mode. It panics when there are
// uncommitted changes.
func (s *Session[T]) EndEdit() {
	if s.IsDirty() {
		panic("editor: EndEdit with uncommitted changes; Commit or Revert first")
	}
	s.readOnly = true
}

// Revert discards the working copy. It does nothing for read-only and new
// sessions.
func (s *Session[T]) Revert() {
	if s.readOnly || s.isNew {
		return
	}
	s.working = s.clone(s.master)
	s.readOnly = true
	s.log.Debug().Str("uuid", s.master.UUID().Encoded()).Msg("edit reverted")
}

// Commit writes the working copy into the tree and persists the document.
//
// A new node is inserted into its parent. An existing node is located under
// its recorded parent by identifier and updated in place, which pushes its
// previous state onto the entry history. If the persister fails the tree is
// restored: a new node is removed again and stays in edit mode, an existing
// node is synced back from the master and the session becomes read-only.
func (s *Session[T]) Commit(ctx context.Context) error {
	if s.readOnly {
		panic("editor: Commit on a read-only session")
	}

	if s.isNew {
		return s.commitNew(ctx)
	}
	return s.commitExisting(ctx)
}

func (s *Session[T]) commitNew(ctx context.Context) error {
	parent := s.working.Parent()
	if parent == nil {
		panic("editor: new node has no parent")
	}

	node := s.working
	parent.AddChild(node)

	if err := s.persister.Persist(ctx); err != nil {
		parent.RemoveChild(node)
		s.log.Err(err).Str("uuid", node.UUID().Encoded()).Msg("insert rolled back")
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	s.live = node
	s.master = s.clone(node)
	s.working = s.clone(s.master)
	s.isNew = false
	s.readOnly = true
	s.log.Info().Str("uuid", node.UUID().Encoded()).Msg("node inserted")
	return nil
}

func (s *Session[T]) commitExisting(ctx context.Context) error {
	if !s.IsDirty() {
		s.readOnly = true
		return nil
	}

	target, err := s.locate()
	if err != nil {
		return err
	}

	target.SyncTo(s.working, true)

	if err := s.persister.Persist(ctx); err != nil {
		target.SyncTo(s.master, false)
		s.working = s.clone(s.master)
		s.readOnly = true
		s.log.Err(err).Str("uuid", target.UUID().Encoded()).Msg("update rolled back")
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	s.live = target
	s.master = s.clone(target)
	s.working = s.clone(s.master)
	s.readOnly = true
	s.log.Info().Str("uuid", target.UUID().Encoded()).Msg("node updated")
	return nil
}

// locate finds the live node the master was cloned from.
func (s *Session[T]) locate() (T, error) {
	parent := s.master.Parent()
	if parent == nil {
		return s.live, nil
	}

	var zero T
	found, ok := parent.FindChild(s.master.UUID())
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, s.master.UUID())
	}
	target, ok := found.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has a different node type", ErrNotFound, s.master.UUID())
	}
	return target, nil
}
