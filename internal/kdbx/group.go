// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

const (
	groupTag = "Group"

	// DefaultGroupIconID is the folder icon.
	DefaultGroupIconID = 48
	// defaultSearchable applies to a root group that leaves searching unset.
	defaultSearchable = true
)

// childList is the ordered child collection of a group. A clone of a group
// shares its list with the original until one of them mutates it: the owner
// then copies the slice, any other group deep-clones the whole subtree under
// itself.
type childList struct {
	owner *Group
	nodes []Node
	refs  int
}

// Group is a folder node. Its children are groups and entries interleaved in
// document order.
type Group struct {
	nodeBase
	children *childList

	isExpanded              bool
	defaultAutoTypeSequence string
	enableAutoType          *bool
	enableSearching         *bool
	lastTopVisibleEntry     UUID
}

// NewGroup creates an empty group. The group records parent but is not
// inserted into it; use Group.AddChild for that.
func NewGroup(parent *Group, name string) *Group {
	g := &Group{
		nodeBase: nodeBase{
			part:   emptyPart(groupTag),
			uuid:   NewUUID(),
			title:  NewProtectedString("Name", name, nil, false),
			notes:  NewProtectedString(KeyNotes, "", nil, false),
			iconID: DefaultGroupIconID,
			times:  NewTimes(),
			parent: parent,
		},
		isExpanded: true,
	}
	g.children = &childList{owner: g, refs: 1}
	return g
}

// parseGroup reads a <Group> and its subtree. Child entries and groups are
// built strictly in document order because each may draw protected-value
// masks from ctx.rng.
func parseGroup(el *etree.Element, parent *Group, ctx *parseContext) (*Group, error) {
	part, err := NewPart(groupTag, el)
	if err != nil {
		return nil, err
	}

	base, err := parseNodeBase(&part)
	if err != nil {
		return nil, err
	}

	g := &Group{nodeBase: base}
	g.parent = parent
	g.children = &childList{owner: g, refs: 1}

	r := fieldReader{p: &part}
	g.title = NewProtectedString("Name", r.str("Name", false), ctx.rng, false)
	g.notes = NewProtectedString(KeyNotes, r.str("Notes", false), ctx.rng, false)
	g.isExpanded = r.boolean("IsExpanded")
	g.defaultAutoTypeSequence = r.str("DefaultAutoTypeSequence", false)
	g.enableAutoType = r.nullableBool("EnableAutoType")
	g.enableSearching = r.nullableBool("EnableSearching")
	g.lastTopVisibleEntry = r.uuid("LastTopVisibleEntry", false)
	if r.err != nil {
		return nil, r.err
	}

	part.ForgetNodes(entryTag)
	part.ForgetNodes(groupTag)
	for _, childEl := range el.ChildElements() {
		var child Node
		switch childEl.Tag {
		case entryTag:
			child, err = parseEntry(childEl, g, ctx)
		case groupTag:
			child, err = parseGroup(childEl, g, ctx)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		g.children.nodes = append(g.children.nodes, child)
	}

	g.part = part
	return g, nil
}

func (g *Group) IsExpanded() bool {
	return g.isExpanded
}

func (g *Group) SetExpanded(expanded bool) {
	if g.isExpanded == expanded {
		return
	}
	g.isExpanded = expanded
	g.notify("IsExpanded")
}

func (g *Group) DefaultAutoTypeSequence() string {
	return g.defaultAutoTypeSequence
}

func (g *Group) SetDefaultAutoTypeSequence(seq string) {
	g.defaultAutoTypeSequence = seq
	g.notify("DefaultAutoTypeSequence")
}

// EnableAutoType is nil when the setting is inherited.
func (g *Group) EnableAutoType() *bool {
	return g.enableAutoType
}

func (g *Group) SetEnableAutoType(enable *bool) {
	g.enableAutoType = enable
	g.notify("EnableAutoType")
}

// EnableSearching is nil when the setting is inherited.
func (g *Group) EnableSearching() *bool {
	return g.enableSearching
}

func (g *Group) SetEnableSearching(enable *bool) {
	g.enableSearching = enable
	g.notify("EnableSearching")
}

func (g *Group) LastTopVisibleEntry() UUID {
	return g.lastTopVisibleEntry
}

func (g *Group) SetLastTopVisibleEntry(id UUID) {
	g.lastTopVisibleEntry = id
	g.notify("LastTopVisibleEntry")
}

// IsSearchingPermitted resolves the inherited searching flag.
func (g *Group) IsSearchingPermitted() bool {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.enableSearching != nil {
			return *cur.enableSearching
		}
	}
	return defaultSearchable
}

// Children returns the child nodes in order. The slice is a copy.
func (g *Group) Children() []Node {
	return slices.Clone(g.children.nodes)
}

func (g *Group) Len() int {
	return len(g.children.nodes)
}

// ownChildren makes g the sole owner of its child list before a mutation.
func (g *Group) ownChildren() []Node {
	cl := g.children
	if cl.owner == g && cl.refs == 1 {
		return cl.nodes
	}

	cl.refs--
	owned := &childList{owner: g, refs: 1}
	if cl.owner == g {
		owned.nodes = slices.Clone(cl.nodes)
	} else {
		owned.nodes = make([]Node, 0, len(cl.nodes))
		for _, child := range cl.nodes {
			owned.nodes = append(owned.nodes, detachedCopy(child, g))
		}
	}
	g.children = owned
	return owned.nodes
}

func (g *Group) appendChild(n Node) {
	nodes := g.ownChildren()
	g.children.nodes = append(nodes, n)
	n.base().parent = g
	g.notify("Children")
}

// AddChild inserts n and makes g its parent. Entries are appended; groups
// are placed after the last child group so that groups precede entries. It
// panics if n is already a child of a group.
func (g *Group) AddChild(n Node) {
	if n == nil {
		panic("kdbx: AddChild called with nil node")
	}
	if p := n.Parent(); p != nil && p.indexOf(n) >= 0 {
		panic("kdbx: node already belongs to a group")
	}
	if child, ok := n.(*Group); ok && (child == g || g.HasAncestor(child)) {
		panic("kdbx: AddChild would create a cycle")
	}

	if _, isGroup := n.(*Group); !isGroup {
		g.appendChild(n)
		return
	}

	nodes := g.ownChildren()
	at := 0
	for i, child := range nodes {
		if _, ok := child.(*Group); ok {
			at = i + 1
		}
	}
	g.children.nodes = slices.Insert(nodes, at, n)
	n.base().parent = g
	g.notify("Children")
}

// RemoveChild detaches n from g. n keeps g as its recorded parent so it can
// be inserted again. It panics when n is not a child of g.
func (g *Group) RemoveChild(n Node) {
	if n == nil {
		panic("kdbx: RemoveChild called with nil node")
	}
	if !g.removeChild(n) {
		panic("kdbx: RemoveChild of a node that is not a child")
	}
	g.notify("Children")
}

func (g *Group) removeChild(n Node) bool {
	if g.indexOf(n) < 0 {
		return false
	}
	nodes := g.ownChildren()
	g.children.nodes = slices.DeleteFunc(nodes, func(c Node) bool { return c == n })
	return true
}

// indexOf finds n itself among the children. A clone with the same
// identifier does not count.
func (g *Group) indexOf(n Node) int {
	return slices.Index(g.children.nodes, n)
}

// FindChild returns the direct child with the given identifier.
func (g *Group) FindChild(id UUID) (Node, bool) {
	for _, c := range g.children.nodes {
		if c.UUID() == id {
			return c, true
		}
	}
	return nil, false
}

// HasDescendant reports whether n, matched by identifier, lives anywhere in
// the subtree below g.
func (g *Group) HasDescendant(n Node) bool {
	if n == nil {
		panic("kdbx: HasDescendant called with nil node")
	}

	id := n.UUID()
	for _, c := range g.children.nodes {
		if c.UUID() == id {
			return true
		}
	}
	for _, c := range g.children.nodes {
		if sub, ok := c.(*Group); ok && sub.HasDescendant(n) {
			return true
		}
	}
	return false
}

// FindNode searches g and its subtree depth-first for an encoded identifier.
func (g *Group) FindNode(encoded string) Node {
	if g.uuid.Encoded() == encoded {
		return g
	}
	for _, c := range g.children.nodes {
		if c.UUID().Encoded() == encoded {
			return c
		}
		if sub, ok := c.(*Group); ok {
			if found := sub.FindNode(encoded); found != nil {
				return found
			}
		}
	}
	return nil
}

// treeRoot walks up from n and returns the topmost group. ok is false when
// some node on the way is not held by its recorded parent, which is the case
// for clones and for nodes that were created but never inserted.
func treeRoot(n Node) (root *Group, ok bool) {
	for {
		p := n.Parent()
		if p == nil {
			g, isGroup := n.(*Group)
			return g, isGroup
		}
		if p.indexOf(n) < 0 {
			return nil, false
		}
		n = p
	}
}

// CanAdopt reports whether the node with the encoded identifier may be moved
// under g, i.e. it is neither g nor one of g's ancestors.
func (g *Group) CanAdopt(encoded string) bool {
	if encoded == "" {
		return false
	}
	for cur := g; cur != nil; cur = cur.parent {
		if cur.uuid.Encoded() == encoded {
			return false
		}
	}
	return true
}

// TryAdopt finds the node with the encoded identifier anywhere in g's tree
// and moves it under g. It returns false when no such node exists. The tree
// is left untouched with ErrAdoptionCycle when the node is g or one of its
// ancestors, and with ErrDetachedGroup when g is not part of a tree (a
// clone, or a group never inserted) or the node found belongs to another
// tree.
func (g *Group) TryAdopt(encoded string) (bool, error) {
	if encoded == "" {
		return false, nil
	}
	if !g.CanAdopt(encoded) {
		return false, ErrAdoptionCycle
	}

	root, ok := treeRoot(g)
	if !ok {
		return false, ErrDetachedGroup
	}
	adoptee := root.FindNode(encoded)
	if adoptee == nil {
		return false, nil
	}
	if adopteeRoot, ok := treeRoot(adoptee); !ok || adopteeRoot != root {
		return false, ErrDetachedGroup
	}
	adoptee.Reparent(g)
	return true, nil
}

func (g *Group) Reparent(newParent *Group) {
	reparent(g, newParent)
}

// MatchesQuery reports a case-insensitive substring match on the name.
func (g *Group) MatchesQuery(query string) bool {
	return strings.Contains(strings.ToUpper(g.title.ClearValue()), strings.ToUpper(query))
}

// SearchableNodes collects every node below g that matches query. Groups
// are always candidates; entries only when their group permits searching.
func (g *Group) SearchableNodes(query string) []Node {
	var out []Node
	g.collectSearchable(query, &out)
	return out
}

func (g *Group) collectSearchable(query string, out *[]Node) {
	permitted := g.IsSearchingPermitted()
	for _, c := range g.children.nodes {
		switch n := c.(type) {
		case *Group:
			if n.MatchesQuery(query) {
				*out = append(*out, n)
			}
			n.collectSearchable(query, out)
		case *Entry:
			if permitted && n.MatchesQuery(query) {
				*out = append(*out, n)
			}
		}
	}
}

// Walk visits g and every node below it in document order. Returning false
// from fn stops the walk.
func (g *Group) Walk(fn func(Node) bool) bool {
	if !fn(g) {
		return false
	}
	for _, c := range g.children.nodes {
		switch n := c.(type) {
		case *Group:
			if !n.Walk(fn) {
				return false
			}
		default:
			if !fn(n) {
				return false
			}
		}
	}
	return true
}

// Clone copies the group's own fields. Children are shared with g until
// either group changes its child list.
func (g *Group) Clone() *Group {
	c := g.cloneFields()
	g.children.refs++
	c.children = g.children
	return c
}

func (g *Group) cloneFields() *Group {
	return &Group{
		nodeBase:                g.cloneBase(),
		isExpanded:              g.isExpanded,
		defaultAutoTypeSequence: g.defaultAutoTypeSequence,
		enableAutoType:          cloneBoolPtr(g.enableAutoType),
		enableSearching:         cloneBoolPtr(g.enableSearching),
		lastTopVisibleEntry:     g.lastTopVisibleEntry,
	}
}

func (g *Group) cloneNode() Node {
	return g.Clone()
}

// detachedCopy clones n and everything below it for parent. Every group of
// the copy owns its child list, so no live node is reachable from it.
func detachedCopy(n Node, parent *Group) Node {
	src, isGroup := n.(*Group)
	if !isGroup {
		c := n.cloneNode()
		c.base().parent = parent
		return c
	}

	c := src.cloneFields()
	c.parent = parent
	c.children = &childList{owner: c, refs: 1, nodes: make([]Node, 0, len(src.children.nodes))}
	for _, child := range src.children.nodes {
		c.children.nodes = append(c.children.nodes, detachedCopy(child, c))
	}
	return c
}

// SyncTo copies every mutable field except identity, parent and children
// from other. When touch is set the modification time is stamped.
func (g *Group) SyncTo(other *Group, touch bool) {
	if other == nil {
		panic("kdbx: SyncTo called with nil group")
	}

	g.syncBase(&other.nodeBase)
	g.isExpanded = other.isExpanded
	g.defaultAutoTypeSequence = other.defaultAutoTypeSequence
	g.enableAutoType = cloneBoolPtr(other.enableAutoType)
	g.enableSearching = cloneBoolPtr(other.enableSearching)
	g.lastTopVisibleEntry = other.lastTopVisibleEntry
	if touch {
		g.times.LastModificationTime = now()
	}
	g.notify("")
}

// Equal compares the groups deeply, including every child in order.
func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	if !g.equalBase(&other.nodeBase) ||
		g.isExpanded != other.isExpanded ||
		g.defaultAutoTypeSequence != other.defaultAutoTypeSequence ||
		!equalBoolPtr(g.enableAutoType, other.enableAutoType) ||
		!equalBoolPtr(g.enableSearching, other.enableSearching) ||
		g.lastTopVisibleEntry != other.lastTopVisibleEntry {
		return false
	}
	return slices.EqualFunc(g.children.nodes, other.children.nodes, Node.equalNode)
}

func (g *Group) equalNode(other Node) bool {
	o, ok := other.(*Group)
	return ok && g.Equal(o)
}

func (g *Group) toXML(w *writeContext) *etree.Element {
	return g.part.Build(func(el *etree.Element) {
		addUUID(el, "UUID", g.uuid)
		addText(el, "Name", g.title.ClearValue())
		addText(el, "Notes", g.notes.ClearValue())
		addInt(el, "IconID", g.iconID)
		if !g.customIcon.IsEmpty() {
			addUUID(el, "CustomIconUUID", g.customIcon)
		}
		el.AddChild(g.times.toXML(w))
		addBool(el, "IsExpanded", g.isExpanded)
		addText(el, "DefaultAutoTypeSequence", g.defaultAutoTypeSequence)
		addText(el, "EnableAutoType", formatLowerNullableBool(g.enableAutoType))
		addText(el, "EnableSearching", formatLowerNullableBool(g.enableSearching))
		addUUID(el, "LastTopVisibleEntry", g.lastTopVisibleEntry)

		for _, c := range g.children.nodes {
			el.AddChild(c.toXML(w))
		}
		if g.customData != nil {
			el.AddChild(g.customData.toXML(w))
		}
	})
}

func cloneBoolPtr(b *bool) *bool {
	if b == nil {
		return nil
	}
	return boolPtr(*b)
}
