// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/gzip"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

const (
	binariesTag = "Binaries"
	binaryTag   = "Binary"
)

// Binary is an attachment payload from the database pool. The stored bytes
// (gzip-compressed when Compressed is set) are kept masked with a process
// keystream for as long as the value lives. Binaries are immutable.
type Binary struct {
	maskID     uint64
	stored     []byte
	compressed bool
	protected  bool
}

// NewBinary wraps an uncompressed payload.
func NewBinary(data []byte, protected bool) *Binary {
	return newStoredBinary(data, false, protected)
}

// NewCompressedBinary gzips data and stores the compressed form.
func NewCompressedBinary(data []byte, protected bool) (*Binary, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress binary: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress binary: %w", err)
	}
	return newStoredBinary(buf.Bytes(), true, protected), nil
}

func newStoredBinary(stored []byte, compressed, protected bool) *Binary {
	b := &Binary{
		maskID:     crypto.NewMaskID(),
		stored:     append([]byte{}, stored...),
		compressed: compressed,
		protected:  protected,
	}
	crypto.XORMask(b.maskID, b.stored)
	return b
}

func (b *Binary) Compressed() bool {
	return b.compressed
}

// Protected reports whether the payload is encrypted with the inner stream
// on disk.
func (b *Binary) Protected() bool {
	return b.protected
}

// Raw returns the stored bytes in the clear, still compressed if the binary
// is compressed.
func (b *Binary) Raw() []byte {
	out := append([]byte{}, b.stored...)
	crypto.XORMask(b.maskID, out)
	return out
}

// Data returns the decompressed payload.
func (b *Binary) Data() ([]byte, error) {
	raw := b.Raw()
	if !b.compressed {
		return raw, nil
	}
	defer clear(raw)

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decompress binary: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress binary: %w", err)
	}
	return data, nil
}

func (b *Binary) Equal(other *Binary) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b == other {
		return true
	}
	if b.protected != other.protected || b.compressed != other.compressed {
		return false
	}
	x, y := b.Raw(), other.Raw()
	defer clear(x)
	defer clear(y)
	return subtle.ConstantTimeCompare(x, y) == 1
}

// Binaries is the attachment pool. In KDBX 3 it is stored in Meta/Binaries;
// in KDBX 4 it comes from the inner header and is never written to XML.
type Binaries struct {
	part   Part
	items  []*Binary
	byID   map[int]*Binary
	nextID int
}

func NewBinaries() *Binaries {
	return &Binaries{part: emptyPart(binariesTag), byID: make(map[int]*Binary)}
}

// binariesFromHeader builds the pool of a KDBX 4 file, where references are
// indexes into the header list.
func binariesFromHeader(list []*Binary) *Binaries {
	b := NewBinaries()
	for _, bin := range list {
		b.Add(bin)
	}
	return b
}

func parseBinaries(el *etree.Element, rng crypto.RandomSource) (*Binaries, error) {
	part, err := NewPart(binariesTag, el)
	if err != nil {
		return nil, err
	}

	pool := &Binaries{byID: make(map[int]*Binary)}
	for _, binEl := range part.GetNodes(binaryTag) {
		rawID := binEl.SelectAttrValue("ID", "")
		id, err := strconv.Atoi(rawID)
		if err != nil {
			return nil, invalidValue(binariesTag, "ID", rawID, err)
		}
		if _, dup := pool.byID[id]; dup {
			return nil, newFormatError(ErrDuplicateBinary, binariesTag, "ID", rawID, nil)
		}

		text := strings.TrimSpace(binEl.Text())
		payload, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, invalidValue(binaryTag, strconv.Itoa(id), text, err)
		}

		protected := strings.EqualFold(binEl.SelectAttrValue("Protected", ""), "True")
		if protected {
			subtle.XORBytes(payload, payload, rng.GetBytes(len(payload)))
		}
		compressed := strings.EqualFold(binEl.SelectAttrValue("Compressed", ""), "True")

		bin := newStoredBinary(payload, compressed, protected)
		clear(payload)

		pool.items = append(pool.items, bin)
		pool.byID[id] = bin
		pool.nextID = max(pool.nextID, id+1)
	}

	pool.part = part
	return pool, nil
}

// Get resolves a reference as read from the file.
func (b *Binaries) Get(id int) (*Binary, bool) {
	bin, ok := b.byID[id]
	return bin, ok
}

// Add appends bin to the pool and returns its reference id. Adding a binary
// that is already pooled returns its existing id.
func (b *Binaries) Add(bin *Binary) int {
	for id, existing := range b.byID {
		if existing == bin {
			return id
		}
	}

	id := b.nextID
	b.nextID++
	b.items = append(b.items, bin)
	b.byID[id] = bin
	return id
}

// All returns the pool in write order.
func (b *Binaries) All() []*Binary {
	return slices.Clone(b.items)
}

func (b *Binaries) Len() int {
	return len(b.items)
}

// indexOf returns the reference written for bin: its position in the pool.
func (b *Binaries) indexOf(bin *Binary) int {
	if i := slices.Index(b.items, bin); i >= 0 {
		return i
	}
	return slices.IndexFunc(b.items, bin.Equal)
}

func (b *Binaries) Clone() *Binaries {
	if b == nil {
		return nil
	}
	c := &Binaries{
		part:   b.part.clone(),
		items:  slices.Clone(b.items),
		byID:   make(map[int]*Binary, len(b.byID)),
		nextID: b.nextID,
	}
	for id, bin := range b.byID {
		c.byID[id] = bin
	}
	return c
}

func (b *Binaries) Equal(other *Binaries) bool {
	if b == nil || other == nil {
		return b == other
	}
	return slices.EqualFunc(b.items, other.items, (*Binary).Equal)
}

func (b *Binaries) toXML(w *writeContext) *etree.Element {
	return b.part.Build(func(el *etree.Element) {
		for i, bin := range b.items {
			binEl := el.CreateElement(binaryTag)
			binEl.CreateAttr("ID", strconv.Itoa(i))
			if bin.compressed {
				binEl.CreateAttr("Compressed", "True")
			}

			payload := bin.Raw()
			if bin.protected {
				binEl.CreateAttr("Protected", "True")
				subtle.XORBytes(payload, payload, w.rng.GetBytes(len(payload)))
			}
			if len(payload) > 0 {
				binEl.SetText(base64.StdEncoding.EncodeToString(payload))
			}
			clear(payload)
		}
	})
}
