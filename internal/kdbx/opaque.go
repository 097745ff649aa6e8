// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import "github.com/beevik/etree"

// Opaque is an XML block the model keeps but does not interpret, such as an
// entry's AutoType settings or the root's DeletedObjects list. It is
// immutable; values may be shared between clones.
type Opaque struct {
	el *etree.Element
}

// NewOpaque keeps a private copy of el.
func NewOpaque(el *etree.Element) *Opaque {
	if el == nil {
		return nil
	}
	return &Opaque{el: el.Copy()}
}

// Tag returns the element name of the block.
func (o *Opaque) Tag() string {
	return o.el.Tag
}

// Element returns a copy of the block.
func (o *Opaque) Element() *etree.Element {
	return o.el.Copy()
}

func (o *Opaque) Equal(other *Opaque) bool {
	if o == nil || other == nil {
		return o == other
	}
	return elementsEqual(o.el, other.el)
}

func (o *Opaque) toXML() *etree.Element {
	return o.el.Copy()
}
