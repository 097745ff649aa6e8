// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"slices"

	"github.com/beevik/etree"
)

const historyTag = "History"

// History is the ordered list of earlier versions of an entry, oldest first.
// Its length is capped by Metadata.HistoryMaxItems.
type History struct {
	part     Part
	entries  []*Entry
	metadata *Metadata
}

func NewHistory(metadata *Metadata) *History {
	return &History{part: emptyPart(historyTag), metadata: metadata}
}

func parseHistory(el *etree.Element, ctx *parseContext) (*History, error) {
	part, err := NewPart(historyTag, el)
	if err != nil {
		return nil, err
	}

	h := &History{metadata: ctx.metadata}
	for _, entryEl := range part.GetNodes(entryTag) {
		snapshot, err := parseEntryElement(entryEl, nil, ctx, true)
		if err != nil {
			return nil, err
		}
		h.entries = append(h.entries, snapshot)
	}

	h.part = part
	return h, nil
}

// Entries returns the snapshots, oldest first.
func (h *History) Entries() []*Entry {
	return slices.Clone(h.entries)
}

func (h *History) Len() int {
	return len(h.entries)
}

// Add appends a detached snapshot of e and evicts the oldest snapshots while
// the history is over its cap. A negative cap means unbounded.
func (h *History) Add(e *Entry) {
	snapshot := e.Clone(false)
	snapshot.parent = nil
	h.entries = append(h.entries, snapshot)

	limit := -1
	if h.metadata != nil {
		limit = h.metadata.HistoryMaxItems()
	}
	if limit >= 0 && len(h.entries) > limit {
		h.entries = slices.Delete(h.entries, 0, len(h.entries)-limit)
	}
}

// Remove drops the snapshot at index i.
func (h *History) Remove(i int) {
	h.entries = slices.Delete(h.entries, i, i+1)
}

func (h *History) Clone() *History {
	if h == nil {
		return nil
	}
	c := &History{part: h.part.clone(), metadata: h.metadata}
	for _, e := range h.entries {
		c.entries = append(c.entries, e.Clone(false))
	}
	return c
}

func (h *History) Equal(other *History) bool {
	if h == nil || other == nil {
		return h == other
	}
	return slices.EqualFunc(h.entries, other.entries, (*Entry).Equal)
}

func (h *History) toXML(w *writeContext) *etree.Element {
	return h.part.Build(func(el *etree.Element) {
		for _, e := range h.entries {
			el.AddChild(e.toXML(w))
		}
	})
}
