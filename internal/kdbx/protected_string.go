// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/beevik/etree"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

const stringTag = "String"

// Reserved keys of the standard entry strings.
const (
	KeyTitle    = "Title"
	KeyUserName = "UserName"
	KeyPassword = "Password"
	KeyURL      = "URL"
	KeyNotes    = "Notes"
)

// ProtectedString is a named string value that can be held XOR-masked in
// memory. While protected, only the masked bytes and their one-time mask are
// stored; the mask always has the byte length of the value.
//
// Equality is defined over (protected, key, clear value), never over the
// masked bytes.
type ProtectedString struct {
	observable
	part Part
	rng  crypto.RandomSource

	mu        sync.Mutex
	key       string
	protected bool
	plain     string
	masked    []byte
	mask      []byte
}

// NewProtectedString creates a value. A nil rng falls back to the OS CSPRNG.
func NewProtectedString(key, value string, rng crypto.RandomSource, protect bool) *ProtectedString {
	if rng == nil {
		rng = crypto.NewSystemSource()
	}

	s := &ProtectedString{
		part:      emptyPart(stringTag),
		rng:       rng,
		key:       key,
		protected: protect,
	}
	s.store([]byte(value))
	return s
}

// parseProtectedString reads a <String> element. A protected value is taken
// as the on-disk ciphertext and its mask is the next run of bytes from rng,
// so strings must be parsed in document order.
func parseProtectedString(el *etree.Element, rng crypto.RandomSource) (*ProtectedString, error) {
	part, err := NewPart(stringTag, el)
	if err != nil {
		return nil, err
	}

	r := fieldReader{p: &part}
	key := r.str("Key", false)
	value := r.node("Value", true)
	if r.err != nil {
		return nil, r.err
	}

	s := &ProtectedString{
		part:      part,
		rng:       rng,
		key:       key,
		protected: strings.EqualFold(value.SelectAttrValue("Protected", ""), "True"),
	}

	if !s.protected {
		s.plain = value.Text()
		return s, nil
	}

	cipher, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value.Text()))
	if err != nil {
		return nil, invalidValue(stringTag, key, value.Text(), err)
	}
	s.masked = cipher
	s.mask = rng.GetBytes(len(cipher))
	return s, nil
}

// store replaces the value. Caller holds mu or has exclusive access.
func (s *ProtectedString) store(value []byte) {
	clear(s.masked)
	clear(s.mask)

	if !s.protected {
		s.plain = string(value)
		s.masked, s.mask = nil, nil
		return
	}

	s.plain = ""
	s.mask = s.rng.GetBytes(len(value))
	s.masked = make([]byte, len(value))
	subtle.XORBytes(s.masked, value, s.mask)
}

// reveal returns the clear bytes. Caller holds mu.
func (s *ProtectedString) reveal() []byte {
	if !s.protected {
		return []byte(s.plain)
	}
	out := make([]byte, len(s.masked))
	subtle.XORBytes(out, s.masked, s.mask)
	return out
}

func (s *ProtectedString) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func (s *ProtectedString) SetKey(key string) {
	s.mu.Lock()
	changed := s.key != key
	s.key = key
	s.mu.Unlock()

	if changed {
		s.notify("Key")
	}
}

func (s *ProtectedString) Protected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protected
}

// SetProtected switches between masked and clear storage. Turning
// protection on draws a fresh mask.
func (s *ProtectedString) SetProtected(protect bool) {
	s.mu.Lock()
	if s.protected == protect {
		s.mu.Unlock()
		return
	}

	value := s.reveal()
	s.protected = protect
	s.store(value)
	clear(value)
	s.mu.Unlock()

	s.notify("Protected")
}

// ClearValue unmasks and returns the value.
func (s *ProtectedString) ClearValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.protected {
		return s.plain
	}
	value := s.reveal()
	defer clear(value)
	return string(value)
}

// SetClearValue replaces the value, drawing a new mask when protected.
func (s *ProtectedString) SetClearValue(value string) {
	s.mu.Lock()
	s.store([]byte(value))
	s.mu.Unlock()

	s.notify("ClearValue")
}

// Masked returns a copy of the masked bytes, or nil when the value is held
// in the clear.
func (s *ProtectedString) Masked() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.protected {
		return nil
	}
	return append([]byte{}, s.masked...)
}

// Clone returns an independent copy. A protected clone gets its own mask
// from the same source.
func (s *ProtectedString) Clone() *ProtectedString {
	s.mu.Lock()
	value := s.reveal()
	c := &ProtectedString{
		part:      s.part.clone(),
		rng:       s.rng,
		key:       s.key,
		protected: s.protected,
	}
	s.mu.Unlock()

	c.store(value)
	clear(value)
	return c
}

func (s *ProtectedString) Equal(other *ProtectedString) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s == other {
		return true
	}
	return s.Protected() == other.Protected() &&
		s.Key() == other.Key() &&
		s.ClearValue() == other.ClearValue()
}

// toXML writes the value. Protected values are encrypted with the writer's
// stream; empty values draw nothing.
func (s *ProtectedString) toXML(w *writeContext) *etree.Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.part.Build(func(el *etree.Element) {
		addText(el, "Key", s.key)
		valueEl := el.CreateElement("Value")

		if !s.protected {
			if s.plain != "" {
				valueEl.SetText(s.plain)
			}
			return
		}

		value := s.reveal()
		defer clear(value)
		if len(value) > 0 {
			cipher := make([]byte, len(value))
			subtle.XORBytes(cipher, value, w.rng.GetBytes(len(value)))
			valueEl.SetText(base64.StdEncoding.EncodeToString(cipher))
		}
		valueEl.CreateAttr("Protected", "True")
	})
}
