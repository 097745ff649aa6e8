// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import "github.com/beevik/etree"

const (
	rootTag           = "Root"
	deletedObjectsTag = "DeletedObjects"
)

// Root holds the database group tree and the preserved DeletedObjects list.
type Root struct {
	part           Part
	group          *Group
	deletedObjects *Opaque
}

func NewRoot(group *Group) *Root {
	return &Root{part: emptyPart(rootTag), group: group}
}

func parseRoot(el *etree.Element, ctx *parseContext) (*Root, error) {
	part, err := NewPart(rootTag, el)
	if err != nil {
		return nil, err
	}

	groupEl, err := part.GetNode(groupTag, true)
	if err != nil {
		return nil, err
	}
	group, err := parseGroup(groupEl, nil, ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := part.GetNode(deletedObjectsTag, false)
	if err != nil {
		return nil, err
	}

	return &Root{part: part, group: group, deletedObjects: NewOpaque(deleted)}, nil
}

// DatabaseGroup returns the top of the group tree.
func (r *Root) DatabaseGroup() *Group {
	return r.group
}

// DeletedObjects returns the preserved block, or nil.
func (r *Root) DeletedObjects() *Opaque {
	return r.deletedObjects
}

func (r *Root) Equal(other *Root) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.group.Equal(other.group) && r.deletedObjects.Equal(other.deletedObjects)
}

func (r *Root) toXML(w *writeContext) *etree.Element {
	return r.part.Build(func(el *etree.Element) {
		el.AddChild(r.group.toXML(w))
		if r.deletedObjects != nil {
			el.AddChild(r.deletedObjects.toXML())
		}
	})
}
