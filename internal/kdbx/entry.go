// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

const (
	entryTag    = "Entry"
	autoTypeTag = "AutoType"

	// DefaultEntryIconID is the key icon.
	DefaultEntryIconID = 0
)

// Entry is a credential record.
//
// Title, UserName, Password, URL and Notes are always present. Custom
// strings are kept in Fields in document order. History is nil only for
// entries that are themselves history snapshots.
type Entry struct {
	nodeBase

	userName *ProtectedString
	password *ProtectedString
	url      *ProtectedString

	foreground  *Color
	background  *Color
	overrideURL string
	tags        string

	fields      []*ProtectedString
	attachments []*Attachment
	autoType    *Opaque
	history     *History

	metadata *Metadata
}

// NewEntry creates an empty entry whose standard strings follow the memory
// protection policy of metadata. The entry records parent but is not
// inserted into it.
func NewEntry(parent *Group, rng crypto.RandomSource, metadata *Metadata) *Entry {
	if metadata == nil {
		panic("kdbx: NewEntry called with nil metadata")
	}
	if rng == nil {
		rng = crypto.NewSystemSource()
	}

	mp := metadata.MemoryProtection()
	return &Entry{
		nodeBase: nodeBase{
			part:   emptyPart(entryTag),
			uuid:   NewUUID(),
			title:  NewProtectedString(KeyTitle, "", rng, mp.ProtectTitle),
			notes:  NewProtectedString(KeyNotes, "", rng, mp.ProtectNotes),
			iconID: DefaultEntryIconID,
			times:  NewTimes(),
			parent: parent,
		},
		userName: NewProtectedString(KeyUserName, metadata.DefaultUserName(), rng, mp.ProtectUserName),
		password: NewProtectedString(KeyPassword, "", rng, mp.ProtectPassword),
		url:      NewProtectedString(KeyURL, "", rng, mp.ProtectURL),
		history:  NewHistory(metadata),
		metadata: metadata,
	}
}

// parseEntry reads an <Entry> that lives in the group tree.
func parseEntry(el *etree.Element, parent *Group, ctx *parseContext) (*Entry, error) {
	return parseEntryElement(el, parent, ctx, false)
}

// parseEntryElement reads an <Entry>. Snapshots are the entries inside a
// History block; they have no parent and never carry their own history.
func parseEntryElement(el *etree.Element, parent *Group, ctx *parseContext, snapshot bool) (*Entry, error) {
	part, err := NewPart(entryTag, el)
	if err != nil {
		return nil, err
	}

	base, err := parseNodeBase(&part)
	if err != nil {
		return nil, err
	}

	e := &Entry{nodeBase: base, metadata: ctx.metadata}
	e.parent = parent

	r := fieldReader{p: &part}
	e.foreground = r.color("ForegroundColor")
	e.background = r.color("BackgroundColor")
	e.overrideURL = r.str("OverrideURL", false)
	e.tags = r.str("Tags", false)
	if r.err != nil {
		return nil, r.err
	}

	// Strings come before History in the document; parse them first so the
	// stream stays aligned.
	for _, strEl := range part.GetNodes(stringTag) {
		s, err := parseProtectedString(strEl, ctx.rng)
		if err != nil {
			return nil, err
		}
		e.assignString(s)
	}
	e.fillMissingStrings(ctx.rng)

	for _, binEl := range part.GetNodes(binaryTag) {
		a, err := parseAttachment(binEl, ctx.metadata.Binaries())
		if err != nil {
			return nil, err
		}
		e.attachments = append(e.attachments, a)
	}

	if autoTypeEl := r.node(autoTypeTag, false); autoTypeEl != nil {
		e.autoType = NewOpaque(autoTypeEl)
	}

	historyEl := r.node(historyTag, false)
	if r.err != nil {
		return nil, r.err
	}
	switch {
	case snapshot:
		if historyEl != nil {
			return nil, newFormatError(ErrMalformedXML, entryTag, historyTag, "", nil)
		}
	case historyEl != nil:
		if e.history, err = parseHistory(historyEl, ctx); err != nil {
			return nil, err
		}
	default:
		e.history = NewHistory(ctx.metadata)
	}

	e.part = part
	return e, nil
}

func (e *Entry) assignString(s *ProtectedString) {
	switch s.Key() {
	case KeyTitle:
		e.title = s
	case KeyUserName:
		e.userName = s
	case KeyPassword:
		e.password = s
	case KeyURL:
		e.url = s
	case KeyNotes:
		e.notes = s
	default:
		e.fields = append(e.fields, s)
	}
}

func (e *Entry) fillMissingStrings(rng crypto.RandomSource) {
	mp := NewMemoryProtection()
	if e.metadata != nil {
		mp = e.metadata.MemoryProtection()
	}

	if e.password == nil {
		e.password = NewProtectedString(KeyPassword, "", rng, mp.ProtectPassword)
	}
	if e.title == nil {
		e.title = NewProtectedString(KeyTitle, "", rng, mp.ProtectTitle)
	}
	if e.url == nil {
		e.url = NewProtectedString(KeyURL, "", rng, mp.ProtectURL)
	}
	if e.userName == nil {
		e.userName = NewProtectedString(KeyUserName, "", rng, mp.ProtectUserName)
	}
	if e.notes == nil {
		e.notes = NewProtectedString(KeyNotes, "", rng, mp.ProtectNotes)
	}
}

func (e *Entry) UserName() *ProtectedString {
	return e.userName
}

func (e *Entry) Password() *ProtectedString {
	return e.password
}

func (e *Entry) URL() *ProtectedString {
	return e.url
}

func (e *Entry) ForegroundColor() *Color {
	return e.foreground
}

func (e *Entry) SetForegroundColor(c *Color) {
	e.foreground = c
	e.notify("ForegroundColor")
}

func (e *Entry) BackgroundColor() *Color {
	return e.background
}

func (e *Entry) SetBackgroundColor(c *Color) {
	e.background = c
	e.notify("BackgroundColor")
}

func (e *Entry) OverrideURL() string {
	return e.overrideURL
}

func (e *Entry) SetOverrideURL(u string) {
	e.overrideURL = u
	e.notify("OverrideURL")
}

func (e *Entry) Tags() string {
	return e.tags
}

func (e *Entry) SetTags(tags string) {
	e.tags = tags
	e.notify("Tags")
}

// Fields returns the custom strings in order.
func (e *Entry) Fields() []*ProtectedString {
	return slices.Clone(e.fields)
}

// Field returns the custom string with the given key.
func (e *Entry) Field(key string) (*ProtectedString, bool) {
	for _, f := range e.fields {
		if f.Key() == key {
			return f, true
		}
	}
	return nil, false
}

func (e *Entry) AddField(s *ProtectedString) {
	if s == nil {
		panic("kdbx: AddField called with nil string")
	}
	e.fields = append(e.fields, s)
	e.notify("Fields")
}

func (e *Entry) RemoveField(key string) bool {
	i := slices.IndexFunc(e.fields, func(f *ProtectedString) bool { return f.Key() == key })
	if i < 0 {
		return false
	}
	e.fields = slices.Delete(e.fields, i, i+1)
	e.notify("Fields")
	return true
}

func (e *Entry) Attachments() []*Attachment {
	return slices.Clone(e.attachments)
}

// AddAttachment pools bin in the database and attaches it under name.
func (e *Entry) AddAttachment(name string, bin *Binary) *Attachment {
	if e.metadata != nil {
		e.metadata.Binaries().Add(bin)
	}
	a := NewAttachment(name, bin)
	e.attachments = append(e.attachments, a)
	e.notify("Attachments")
	return a
}

func (e *Entry) RemoveAttachment(name string) bool {
	i := slices.IndexFunc(e.attachments, func(a *Attachment) bool { return a.name == name })
	if i < 0 {
		return false
	}
	e.attachments = slices.Delete(e.attachments, i, i+1)
	e.notify("Attachments")
	return true
}

// AutoType returns the preserved auto-type block, or nil.
func (e *Entry) AutoType() *Opaque {
	return e.autoType
}

func (e *Entry) SetAutoType(at *Opaque) {
	e.autoType = at
	e.notify("AutoType")
}

// History is nil for history snapshots.
func (e *Entry) History() *History {
	return e.history
}

func (e *Entry) IsSnapshot() bool {
	return e.history == nil
}

func (e *Entry) Reparent(newParent *Group) {
	reparent(e, newParent)
}

// MatchesQuery reports a case-insensitive substring match on the title or
// tags.
func (e *Entry) MatchesQuery(query string) bool {
	q := strings.ToUpper(query)
	return strings.Contains(strings.ToUpper(e.title.ClearValue()), q) ||
		strings.Contains(strings.ToUpper(e.tags), q)
}

// Clone deep-copies the strings (each protected clone draws its own mask)
// and shares attachments and auto-type, which are immutable. Without
// preserveHistory the clone is a history snapshot.
func (e *Entry) Clone(preserveHistory bool) *Entry {
	c := &Entry{
		nodeBase:    e.cloneBase(),
		userName:    e.userName.Clone(),
		password:    e.password.Clone(),
		url:         e.url.Clone(),
		foreground:  e.foreground,
		background:  e.background,
		overrideURL: e.overrideURL,
		tags:        e.tags,
		fields:      cloneStrings(e.fields),
		attachments: slices.Clone(e.attachments),
		autoType:    e.autoType,
		metadata:    e.metadata,
	}
	if preserveHistory && e.history != nil {
		c.history = e.history.Clone()
	}
	return c
}

func (e *Entry) cloneNode() Node {
	return e.Clone(true)
}

// SyncTo overwrites the entry with the fields of other. With isUpdate the
// current state is first pushed onto History and the modification time is
// stamped afterwards. Without it the history is replaced by other's, which
// restores an entry exactly from an earlier clone.
func (e *Entry) SyncTo(other *Entry, isUpdate bool) {
	if other == nil {
		panic("kdbx: SyncTo called with nil entry")
	}

	if isUpdate && e.history != nil {
		e.history.Add(e)
	}

	e.syncBase(&other.nodeBase)
	e.userName = other.userName.Clone()
	e.password = other.password.Clone()
	e.url = other.url.Clone()
	e.foreground = other.foreground
	e.background = other.background
	e.overrideURL = other.overrideURL
	e.tags = other.tags
	e.fields = cloneStrings(other.fields)
	e.attachments = slices.Clone(other.attachments)
	e.autoType = other.autoType

	if isUpdate {
		e.times.LastModificationTime = now()
	} else if e.history != nil && other.history != nil {
		e.history = other.history.Clone()
	}
	e.notify("")
}

// Equal compares every field, including custom strings, attachments and
// history in order.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.equalBase(&other.nodeBase) &&
		e.userName.Equal(other.userName) &&
		e.password.Equal(other.password) &&
		e.url.Equal(other.url) &&
		equalColor(e.foreground, other.foreground) &&
		equalColor(e.background, other.background) &&
		e.overrideURL == other.overrideURL &&
		e.tags == other.tags &&
		slices.EqualFunc(e.fields, other.fields, (*ProtectedString).Equal) &&
		slices.EqualFunc(e.attachments, other.attachments, (*Attachment).Equal) &&
		e.autoType.Equal(other.autoType) &&
		e.history.Equal(other.history)
}

func (e *Entry) equalNode(other Node) bool {
	o, ok := other.(*Entry)
	return ok && e.Equal(o)
}

// toXML writes the entry. Protected strings draw from w.rng in the order
// they are written: custom fields, Notes, Password, Title, URL, UserName,
// then the history entries.
func (e *Entry) toXML(w *writeContext) *etree.Element {
	return e.part.Build(func(el *etree.Element) {
		addUUID(el, "UUID", e.uuid)
		addInt(el, "IconID", e.iconID)
		if !e.customIcon.IsEmpty() {
			addUUID(el, "CustomIconUUID", e.customIcon)
		}
		addText(el, "ForegroundColor", formatColor(e.foreground))
		addText(el, "BackgroundColor", formatColor(e.background))
		addText(el, "OverrideURL", e.overrideURL)
		addText(el, "Tags", e.tags)
		el.AddChild(e.times.toXML(w))

		for _, f := range e.fields {
			el.AddChild(f.toXML(w))
		}
		el.AddChild(e.notes.toXML(w))
		el.AddChild(e.password.toXML(w))
		el.AddChild(e.title.toXML(w))
		el.AddChild(e.url.toXML(w))
		el.AddChild(e.userName.toXML(w))

		for _, a := range e.attachments {
			el.AddChild(a.toXML(w))
		}
		if e.autoType != nil {
			el.AddChild(e.autoType.toXML())
		}
		if e.history != nil {
			el.AddChild(e.history.toXML(w))
		}
		if e.customData != nil {
			el.AddChild(e.customData.toXML(w))
		}
	})
}

func cloneStrings(in []*ProtectedString) []*ProtectedString {
	if in == nil {
		return nil
	}
	out := make([]*ProtectedString, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
