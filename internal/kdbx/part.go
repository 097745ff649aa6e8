// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Part is the parse/serialize substrate shared by every model type.
//
// On construction the immediate children of the source element are bucketed
// by tag. Typed getters consume entries from those buckets; whatever is left
// unclaimed is appended verbatim when the part is written back out.
type Part struct {
	tag      string
	pristine map[string][]*etree.Element
	order    []string
}

// NewPart buckets the children of el. el must carry the tag expected by the
// caller.
func NewPart(tag string, el *etree.Element) (Part, error) {
	if el == nil {
		return Part{}, missingElement("", tag)
	}
	if el.Tag != tag {
		return Part{}, newFormatError(ErrRootTagMismatch, tag, "", el.Tag, nil)
	}

	p := emptyPart(tag)
	for _, child := range el.ChildElements() {
		if _, ok := p.pristine[child.Tag]; !ok {
			p.order = append(p.order, child.Tag)
		}
		p.pristine[child.Tag] = append(p.pristine[child.Tag], child)
	}
	return p, nil
}

func emptyPart(tag string) Part {
	return Part{tag: tag, pristine: make(map[string][]*etree.Element)}
}

// Tag returns the element name this part serializes to.
func (p *Part) Tag() string {
	return p.tag
}

// GetNode consumes the first pristine child named name.
func (p *Part) GetNode(name string, required bool) (*etree.Element, error) {
	queue := p.pristine[name]
	if len(queue) == 0 {
		if required {
			return nil, missingElement(p.tag, name)
		}
		return nil, nil
	}

	el := queue[0]
	if len(queue) == 1 {
		delete(p.pristine, name)
	} else {
		p.pristine[name] = queue[1:]
	}
	return el, nil
}

// GetNodes consumes every pristine child named name.
func (p *Part) GetNodes(name string) []*etree.Element {
	nodes := p.pristine[name]
	delete(p.pristine, name)
	return nodes
}

// ForgetNodes drops the bucket for name without re-emitting it. Callers use
// it when they walk those children themselves.
func (p *Part) ForgetNodes(name string) {
	delete(p.pristine, name)
}

// GetString returns the text of child name, or "" when the child is absent
// and not required.
func (p *Part) GetString(name string, required bool) (string, bool, error) {
	el, err := p.GetNode(name, required)
	if err != nil || el == nil {
		return "", false, err
	}
	return el.Text(), true, nil
}

// GetBool parses a required "True"/"False" child.
func (p *Part) GetBool(name string) (bool, error) {
	s, _, err := p.GetString(name, true)
	if err != nil {
		return false, err
	}

	b, err := parseNullableBool(s)
	if err != nil || b == nil {
		return false, invalidValue(p.tag, name, s, err)
	}
	return *b, nil
}

// GetNullableBool parses an optional tri-state bool; absent, empty and
// "null" all yield nil.
func (p *Part) GetNullableBool(name string) (*bool, error) {
	s, _, err := p.GetString(name, false)
	if err != nil {
		return nil, err
	}

	b, err := parseNullableBool(s)
	if err != nil {
		return nil, invalidValue(p.tag, name, s, err)
	}
	return b, nil
}

// GetInt parses a required integer child.
func (p *Part) GetInt(name string) (int, error) {
	s, _, err := p.GetString(name, true)
	if err != nil {
		return 0, err
	}
	return p.atoi(name, s)
}

// GetIntOr parses an optional integer child, falling back to def.
func (p *Part) GetIntOr(name string, def int) (int, error) {
	s, ok, err := p.GetString(name, false)
	if err != nil || !ok {
		return def, err
	}
	return p.atoi(name, s)
}

func (p *Part) atoi(name, s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalidValue(p.tag, name, s, err)
	}
	return i, nil
}

// GetDate parses a KeePass date. Absent or empty dates yield the zero time.
func (p *Part) GetDate(name string, required bool) (time.Time, error) {
	s, _, err := p.GetString(name, required)
	if err != nil {
		return time.Time{}, err
	}

	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, invalidValue(p.tag, name, s, err)
	}
	return t, nil
}

// GetUUID parses a base64 identifier. Absent or empty values yield EmptyUUID.
func (p *Part) GetUUID(name string, required bool) (UUID, error) {
	s, _, err := p.GetString(name, required)
	if err != nil {
		return EmptyUUID, err
	}

	u, err := ParseUUID(strings.TrimSpace(s))
	if err != nil {
		return EmptyUUID, invalidValue(p.tag, name, s, err)
	}
	return u, nil
}

// GetColor parses an optional "#RRGGBB" colour.
func (p *Part) GetColor(name string) (*Color, error) {
	s, _, err := p.GetString(name, false)
	if err != nil {
		return nil, err
	}

	c, err := ParseColor(s)
	if err != nil {
		return nil, invalidValue(p.tag, name, s, err)
	}
	return c, nil
}

// GetBytes decodes an optional base64 child.
func (p *Part) GetBytes(name string, required bool) ([]byte, error) {
	s, _, err := p.GetString(name, required)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, invalidValue(p.tag, name, s, err)
	}
	return raw, nil
}

// Build creates a fresh element for the part, lets populate add the model
// owned children and then appends copies of every unclaimed child.
func (p *Part) Build(populate func(el *etree.Element)) *etree.Element {
	el := etree.NewElement(p.tag)
	if populate != nil {
		populate(el)
	}
	for _, name := range p.order {
		for _, child := range p.pristine[name] {
			el.AddChild(child.Copy())
		}
	}
	return el
}

// Leftovers returns the number of unclaimed children.
func (p *Part) Leftovers() int {
	n := 0
	for _, nodes := range p.pristine {
		n += len(nodes)
	}
	return n
}

// clone copies the bucket map. Pristine elements are never mutated, only
// copied on output, so the elements themselves are shared.
func (p *Part) clone() Part {
	c := Part{
		tag:      p.tag,
		pristine: make(map[string][]*etree.Element, len(p.pristine)),
		order:    append([]string(nil), p.order...),
	}
	for k, v := range p.pristine {
		c.pristine[k] = append([]*etree.Element(nil), v...)
	}
	return c
}

// fieldReader wraps a Part for sequential extraction: the first failure is
// kept and every later read becomes a no-op, so parsers can read a run of
// fields and check the error once.
type fieldReader struct {
	p   *Part
	err error
}

func (r *fieldReader) node(name string, required bool) *etree.Element {
	if r.err != nil {
		return nil
	}
	el, err := r.p.GetNode(name, required)
	r.err = err
	return el
}

func (r *fieldReader) str(name string, required bool) string {
	if r.err != nil {
		return ""
	}
	s, _, err := r.p.GetString(name, required)
	r.err = err
	return s
}

func (r *fieldReader) boolean(name string) bool {
	if r.err != nil {
		return false
	}
	b, err := r.p.GetBool(name)
	r.err = err
	return b
}

func (r *fieldReader) nullableBool(name string) *bool {
	if r.err != nil {
		return nil
	}
	b, err := r.p.GetNullableBool(name)
	r.err = err
	return b
}

func (r *fieldReader) integer(name string) int {
	if r.err != nil {
		return 0
	}
	i, err := r.p.GetInt(name)
	r.err = err
	return i
}

func (r *fieldReader) intOr(name string, def int) int {
	if r.err != nil {
		return def
	}
	i, err := r.p.GetIntOr(name, def)
	r.err = err
	return i
}

func (r *fieldReader) date(name string, required bool) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	t, err := r.p.GetDate(name, required)
	r.err = err
	return t
}

func (r *fieldReader) uuid(name string, required bool) UUID {
	if r.err != nil {
		return EmptyUUID
	}
	u, err := r.p.GetUUID(name, required)
	r.err = err
	return u
}

func (r *fieldReader) color(name string) *Color {
	if r.err != nil {
		return nil
	}
	c, err := r.p.GetColor(name)
	r.err = err
	return c
}

// set records an error produced outside the reader, such as a failed child
// part parse.
func (r *fieldReader) set(err error) {
	if r.err == nil {
		r.err = err
	}
}
