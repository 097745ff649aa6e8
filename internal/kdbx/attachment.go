// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"strconv"

	"github.com/beevik/etree"
)

// Attachment is a named reference from an entry to a pooled [Binary].
type Attachment struct {
	part   Part
	name   string
	binary *Binary
}

func NewAttachment(name string, bin *Binary) *Attachment {
	return &Attachment{part: emptyPart(binaryTag), name: name, binary: bin}
}

func parseAttachment(el *etree.Element, pool *Binaries) (*Attachment, error) {
	part, err := NewPart(binaryTag, el)
	if err != nil {
		return nil, err
	}

	r := fieldReader{p: &part}
	name := r.str("Key", true)
	value := r.node("Value", true)
	if r.err != nil {
		return nil, r.err
	}

	rawRef := value.SelectAttrValue("Ref", "")
	ref, err := strconv.Atoi(rawRef)
	if err != nil {
		return nil, invalidValue(binaryTag, "Ref", rawRef, err)
	}

	var bin *Binary
	if pool != nil {
		bin, _ = pool.Get(ref)
	}
	if bin == nil {
		return nil, newFormatError(ErrUnknownBinary, binaryTag, name, rawRef, nil)
	}

	return &Attachment{part: part, name: name, binary: bin}, nil
}

func (a *Attachment) Name() string {
	return a.name
}

func (a *Attachment) Binary() *Binary {
	return a.binary
}

func (a *Attachment) Equal(other *Attachment) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.name == other.name && a.binary.Equal(other.binary)
}

func (a *Attachment) toXML(w *writeContext) *etree.Element {
	return a.part.Build(func(el *etree.Element) {
		addText(el, "Key", a.name)
		value := el.CreateElement("Value")

		ref := -1
		if w.binaries != nil {
			ref = w.binaries.indexOf(a.binary)
		}
		if ref < 0 {
			w.fail(newFormatError(ErrUnknownBinary, binaryTag, a.name, "", nil))
			ref = 0
		}
		value.CreateAttr("Ref", strconv.Itoa(ref))
	})
}
