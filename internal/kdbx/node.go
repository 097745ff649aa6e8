// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"github.com/beevik/etree"
)

// Node is the behaviour shared by [Group] and [Entry].
type Node interface {
	UUID() UUID
	Title() *ProtectedString
	Notes() *ProtectedString
	IconID() int
	SetIconID(id int)
	CustomIconUUID() UUID
	SetCustomIconUUID(id UUID)
	Times() *Times
	CustomData() *CustomData
	SetCustomData(data *CustomData)

	// Parent returns the containing group, or nil for the root group and
	// for nodes that are not attached to a tree.
	Parent() *Group
	HasAncestor(g *Group) bool

	// Reparent moves the node under newParent within one tree. It panics
	// when the node is the root or is not a child of its recorded parent,
	// when newParent is detached or in another tree, and when the move would
	// place a group inside its own subtree.
	Reparent(newParent *Group)

	MatchesQuery(query string) bool
	Subscribe(fn func(Change)) (cancel func())

	base() *nodeBase
	equalNode(other Node) bool
	cloneNode() Node
	toXML(w *writeContext) *etree.Element
}

// nodeBase holds the fields common to groups and entries.
type nodeBase struct {
	observable
	part Part

	uuid       UUID
	title      *ProtectedString
	notes      *ProtectedString
	iconID     int
	customIcon UUID
	times      *Times
	customData *CustomData
	parent     *Group
}

func (n *nodeBase) base() *nodeBase {
	return n
}

func (n *nodeBase) UUID() UUID {
	return n.uuid
}

func (n *nodeBase) Title() *ProtectedString {
	return n.title
}

func (n *nodeBase) Notes() *ProtectedString {
	return n.notes
}

func (n *nodeBase) IconID() int {
	return n.iconID
}

func (n *nodeBase) SetIconID(id int) {
	if n.iconID == id {
		return
	}
	n.iconID = id
	n.notify("IconID")
}

// CustomIconUUID returns EmptyUUID when the node uses a built-in icon.
func (n *nodeBase) CustomIconUUID() UUID {
	return n.customIcon
}

func (n *nodeBase) SetCustomIconUUID(id UUID) {
	if n.customIcon == id {
		return
	}
	n.customIcon = id
	n.notify("CustomIconUUID")
}

func (n *nodeBase) Times() *Times {
	return n.times
}

// CustomData may be nil when the node carries none.
func (n *nodeBase) CustomData() *CustomData {
	return n.customData
}

func (n *nodeBase) SetCustomData(data *CustomData) {
	n.customData = data
	n.notify("CustomData")
}

func (n *nodeBase) Parent() *Group {
	return n.parent
}

// HasAncestor walks the parent chain looking for g by identifier.
func (n *nodeBase) HasAncestor(g *Group) bool {
	if g == nil {
		panic("kdbx: HasAncestor called with nil group")
	}
	for p := n.parent; p != nil; p = p.parent {
		if p.uuid == g.uuid {
			return true
		}
	}
	return false
}

// parseNodeBase reads the fields every node starts with. Title and notes are
// filled in by the concrete type.
func parseNodeBase(part *Part) (nodeBase, error) {
	r := fieldReader{p: part}
	n := nodeBase{
		uuid:       r.uuid("UUID", true),
		iconID:     r.integer("IconID"),
		customIcon: r.uuid("CustomIconUUID", false),
	}

	timesEl := r.node(timesTag, true)
	if r.err == nil {
		n.times, r.err = parseTimes(timesEl)
	}
	if dataEl := r.node(customDataTag, false); dataEl != nil {
		n.customData, r.err = parseCustomData(dataEl)
	}
	if r.err != nil {
		return nodeBase{}, r.err
	}
	return n, nil
}

// cloneBase copies the common fields. The clone keeps the same parent and
// has no listeners.
func (n *nodeBase) cloneBase() nodeBase {
	return nodeBase{
		part:       n.part.clone(),
		uuid:       n.uuid,
		title:      n.title.Clone(),
		notes:      n.notes.Clone(),
		iconID:     n.iconID,
		customIcon: n.customIcon,
		times:      n.times.Clone(),
		customData: n.customData.Clone(),
		parent:     n.parent,
	}
}

// equalBase compares the common fields, the parent by identifier only.
func (n *nodeBase) equalBase(o *nodeBase) bool {
	if (n.parent == nil) != (o.parent == nil) {
		return false
	}
	if n.parent != nil && n.parent.uuid != o.parent.uuid {
		return false
	}
	return n.uuid == o.uuid &&
		n.title.Equal(o.title) &&
		n.notes.Equal(o.notes) &&
		n.iconID == o.iconID &&
		n.customIcon == o.customIcon &&
		n.times.Equal(o.times) &&
		n.customData.Equal(o.customData)
}

// syncBase copies the mutable common fields from o.
func (n *nodeBase) syncBase(o *nodeBase) {
	n.iconID = o.iconID
	n.customIcon = o.customIcon
	n.title = o.title.Clone()
	n.notes = o.notes.Clone()
	n.customData = o.customData.Clone()
	n.times.SyncTo(o.times)
}

// reparent implements Node.Reparent for both node kinds.
func reparent(n Node, newParent *Group) {
	if newParent == nil {
		panic("kdbx: reparent to nil group")
	}

	b := n.base()
	old := b.parent
	if old == nil {
		panic("kdbx: cannot reparent the root group")
	}
	if old == newParent {
		return
	}
	if g, ok := n.(*Group); ok && (g == newParent || newParent.HasAncestor(g)) {
		panic("kdbx: reparent would create a cycle")
	}
	if old.indexOf(n) < 0 {
		panic("kdbx: node is not a child of its parent")
	}
	from, okFrom := treeRoot(n)
	to, okTo := treeRoot(newParent)
	if !okFrom || !okTo || from != to {
		panic("kdbx: reparent into a detached group or another tree")
	}

	old.removeChild(n)
	newParent.appendChild(n)
	b.times.LocationChanged = now()
	n.base().notify("Parent")
}
