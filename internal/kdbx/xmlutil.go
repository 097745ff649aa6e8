// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

func addText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	if text != "" {
		el.SetText(text)
	}
	return el
}

func addBool(parent *etree.Element, tag string, b bool) {
	addText(parent, tag, formatBool(b))
}

func addInt(parent *etree.Element, tag string, i int) {
	addText(parent, tag, strconv.Itoa(i))
}

func addDate(parent *etree.Element, tag string, t time.Time, params Params) {
	addText(parent, tag, formatDate(t, params))
}

func addUUID(parent *etree.Element, tag string, u UUID) {
	addText(parent, tag, u.Encoded())
}

// elementsEqual compares two subtrees structurally: tags, attributes in order,
// trimmed character data and child elements.
func elementsEqual(a, b *etree.Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Space != b.Space || a.Tag != b.Tag || len(a.Attr) != len(b.Attr) {
		return false
	}
	for i := range a.Attr {
		if a.Attr[i].Space != b.Attr[i].Space || a.Attr[i].Key != b.Attr[i].Key || a.Attr[i].Value != b.Attr[i].Value {
			return false
		}
	}
	if strings.TrimSpace(a.Text()) != strings.TrimSpace(b.Text()) {
		return false
	}

	ac, bc := a.ChildElements(), b.ChildElements()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !elementsEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
