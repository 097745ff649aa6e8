// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import "github.com/beevik/etree"

const memoryProtectionTag = "MemoryProtection"

// MemoryProtection is the database policy that decides which standard entry
// strings are created protected.
type MemoryProtection struct {
	part Part

	ProtectTitle    bool
	ProtectUserName bool
	ProtectPassword bool
	ProtectURL      bool
	ProtectNotes    bool
}

// NewMemoryProtection returns the KeePass default: only passwords are
// protected.
func NewMemoryProtection() *MemoryProtection {
	return &MemoryProtection{part: emptyPart(memoryProtectionTag), ProtectPassword: true}
}

func parseMemoryProtection(el *etree.Element) (*MemoryProtection, error) {
	part, err := NewPart(memoryProtectionTag, el)
	if err != nil {
		return nil, err
	}

	r := fieldReader{p: &part}
	m := &MemoryProtection{
		ProtectTitle:    r.boolean("ProtectTitle"),
		ProtectUserName: r.boolean("ProtectUserName"),
		ProtectPassword: r.boolean("ProtectPassword"),
		ProtectURL:      r.boolean("ProtectURL"),
		ProtectNotes:    r.boolean("ProtectNotes"),
	}
	if r.err != nil {
		return nil, r.err
	}

	m.part = part
	return m, nil
}

// ProtectsKey reports whether new strings with the given reserved key should
// be protected. Custom keys are never protected by policy.
func (m *MemoryProtection) ProtectsKey(key string) bool {
	switch key {
	case KeyTitle:
		return m.ProtectTitle
	case KeyUserName:
		return m.ProtectUserName
	case KeyPassword:
		return m.ProtectPassword
	case KeyURL:
		return m.ProtectURL
	case KeyNotes:
		return m.ProtectNotes
	default:
		return false
	}
}

func (m *MemoryProtection) Clone() *MemoryProtection {
	c := *m
	c.part = m.part.clone()
	return &c
}

func (m *MemoryProtection) Equal(other *MemoryProtection) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.ProtectTitle == other.ProtectTitle &&
		m.ProtectUserName == other.ProtectUserName &&
		m.ProtectPassword == other.ProtectPassword &&
		m.ProtectURL == other.ProtectURL &&
		m.ProtectNotes == other.ProtectNotes
}

func (m *MemoryProtection) toXML(*writeContext) *etree.Element {
	return m.part.Build(func(el *etree.Element) {
		addBool(el, "ProtectTitle", m.ProtectTitle)
		addBool(el, "ProtectUserName", m.ProtectUserName)
		addBool(el, "ProtectPassword", m.ProtectPassword)
		addBool(el, "ProtectURL", m.ProtectURL)
		addBool(el, "ProtectNotes", m.ProtectNotes)
	})
}
