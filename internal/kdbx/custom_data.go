// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"maps"
	"slices"

	"github.com/beevik/etree"
)

const (
	customDataTag     = "CustomData"
	customDataItemTag = "Item"
)

// CustomData is a string map for plugin and extension metadata. Items are
// written in key order.
type CustomData struct {
	part  Part
	items map[string]string
}

func NewCustomData() *CustomData {
	return &CustomData{part: emptyPart(customDataTag), items: make(map[string]string)}
}

func parseCustomData(el *etree.Element) (*CustomData, error) {
	part, err := NewPart(customDataTag, el)
	if err != nil {
		return nil, err
	}

	d := &CustomData{items: make(map[string]string)}
	for _, itemEl := range part.GetNodes(customDataItemTag) {
		item, err := NewPart(customDataItemTag, itemEl)
		if err != nil {
			return nil, err
		}

		r := fieldReader{p: &item}
		key := r.str("Key", true)
		value := r.str("Value", false)
		if r.err != nil {
			return nil, r.err
		}
		d.items[key] = value
	}

	d.part = part
	return d, nil
}

func (d *CustomData) Get(key string) (string, bool) {
	v, ok := d.items[key]
	return v, ok
}

func (d *CustomData) Set(key, value string) {
	d.items[key] = value
}

func (d *CustomData) Delete(key string) {
	delete(d.items, key)
}

func (d *CustomData) Len() int {
	return len(d.items)
}

// Keys returns the keys in sorted order.
func (d *CustomData) Keys() []string {
	return slices.Sorted(maps.Keys(d.items))
}

func (d *CustomData) Clone() *CustomData {
	if d == nil {
		return nil
	}
	return &CustomData{part: d.part.clone(), items: maps.Clone(d.items)}
}

func (d *CustomData) Equal(other *CustomData) bool {
	if d == nil || other == nil {
		return d == other
	}
	return maps.Equal(d.items, other.items)
}

func (d *CustomData) toXML(*writeContext) *etree.Element {
	return d.part.Build(func(el *etree.Element) {
		for _, key := range d.Keys() {
			item := el.CreateElement(customDataItemTag)
			addText(item, "Key", key)
			addText(item, "Value", d.items[key])
		}
	})
}
