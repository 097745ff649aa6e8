// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

const (
	documentTag = "KeePassFile"

	// RootGroupName is the name given to the top group of a new database.
	RootGroupName = "Database Root"
)

// Document is a whole KDBX XML payload: one Metadata and one Root.
type Document struct {
	part     Part
	metadata *Metadata
	root     *Root
}

// NewDocument creates an empty database with default settings.
func NewDocument(name string) *Document {
	group := NewGroup(nil, RootGroupName)
	return &Document{
		part:     emptyPart(documentTag),
		metadata: NewMetadata(name),
		root:     NewRoot(group),
	}
}

// Parse decodes a decrypted XML payload. rng must be the inner random
// stream of the file; it is consumed in document order and then kept by
// every protected value for in-memory masking. Any failure aborts the whole
// parse with a *FormatError.
func Parse(data []byte, rng crypto.RandomSource, opts ParseOptions) (*Document, error) {
	xmlDoc := etree.NewDocument()
	if err := xmlDoc.ReadFromBytes(data); err != nil {
		return nil, newFormatError(ErrMalformedXML, documentTag, "", "", err)
	}
	return ParseElement(xmlDoc.Root(), rng, opts)
}

// ParseElement decodes an already parsed <KeePassFile> element.
func ParseElement(el *etree.Element, rng crypto.RandomSource, opts ParseOptions) (*Document, error) {
	if el == nil {
		return nil, newFormatError(ErrMalformedXML, documentTag, "", "", fmt.Errorf("no root element"))
	}
	if rng == nil {
		rng = crypto.NewSystemSource()
	}
	if opts.Params.Version == 0 {
		opts.Params = ParamsFor(3)
	}

	part, err := NewPart(documentTag, el)
	if err != nil {
		return nil, err
	}

	ctx := &parseContext{rng: rng, params: opts.Params}

	metaEl, err := part.GetNode(metaTag, true)
	if err != nil {
		return nil, err
	}
	if ctx.metadata, err = parseMetadata(metaEl, ctx, opts); err != nil {
		return nil, err
	}

	rootEl, err := part.GetNode(rootTag, true)
	if err != nil {
		return nil, err
	}
	root, err := parseRoot(rootEl, ctx)
	if err != nil {
		return nil, err
	}

	return &Document{part: part, metadata: ctx.metadata, root: root}, nil
}

func (d *Document) Metadata() *Metadata {
	return d.metadata
}

func (d *Document) Root() *Root {
	return d.root
}

// RootGroup is a shortcut for Root().DatabaseGroup().
func (d *Document) RootGroup() *Group {
	return d.root.group
}

// FindNode looks up a node anywhere in the tree by its encoded identifier.
func (d *Document) FindNode(encoded string) Node {
	return d.root.group.FindNode(encoded)
}

// NewEntry creates an entry for parent using the document's metadata. The
// entry is not inserted.
func (d *Document) NewEntry(parent *Group, rng crypto.RandomSource) *Entry {
	return NewEntry(parent, rng, d.metadata)
}

// HeaderBinaries returns the attachment pool to store in a KDBX 4 inner
// header, in reference order.
func (d *Document) HeaderBinaries() []*Binary {
	return d.metadata.binaries.All()
}

func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.metadata.Equal(other.metadata) && d.root.Equal(other.root)
}

// ToXML serializes the document to an element tree. Protected values are
// encrypted with rng in document order, so rng must be a fresh inner random
// stream for the file being written.
func (d *Document) ToXML(rng crypto.RandomSource, params Params) (*etree.Element, error) {
	if rng == nil {
		return nil, fmt.Errorf("kdbx: ToXML requires a random source")
	}

	w := &writeContext{rng: rng, params: params, binaries: d.metadata.binaries}
	el := d.part.Build(func(el *etree.Element) {
		el.AddChild(d.metadata.toXML(w))
		el.AddChild(d.root.toXML(w))
	})
	if w.err != nil {
		return nil, w.err
	}
	return el, nil
}

// WriteXML serializes the document with an XML declaration, indented with
// tabs as KeePass does.
func (d *Document) WriteXML(rng crypto.RandomSource, params Params) ([]byte, error) {
	el, err := d.ToXML(rng, params)
	if err != nil {
		return nil, err
	}

	xmlDoc := etree.NewDocument()
	xmlDoc.CreateProcInst("xml", `version="1.0" encoding="utf-8" standalone="yes"`)
	xmlDoc.SetRoot(el)
	xmlDoc.IndentTabs()

	out, err := xmlDoc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("kdbx: write xml: %w", err)
	}
	return out, nil
}
