// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"bytes"
	"encoding/base64"
	"slices"

	"github.com/beevik/etree"
)

const (
	customIconsTag = "CustomIcons"
	iconTag        = "Icon"
)

// CustomIcon is a user supplied node icon, usually a PNG.
type CustomIcon struct {
	part Part
	UUID UUID
	Data []byte
}

func NewCustomIcon(data []byte) *CustomIcon {
	return &CustomIcon{part: emptyPart(iconTag), UUID: NewUUID(), Data: append([]byte{}, data...)}
}

func (i *CustomIcon) Equal(other *CustomIcon) bool {
	return i.UUID == other.UUID && bytes.Equal(i.Data, other.Data)
}

// CustomIcons is the Meta/CustomIcons list.
type CustomIcons struct {
	part  Part
	icons []*CustomIcon
}

func NewCustomIcons() *CustomIcons {
	return &CustomIcons{part: emptyPart(customIconsTag)}
}

func parseCustomIcons(el *etree.Element) (*CustomIcons, error) {
	part, err := NewPart(customIconsTag, el)
	if err != nil {
		return nil, err
	}

	icons := &CustomIcons{}
	for _, iconEl := range part.GetNodes(iconTag) {
		iconPart, err := NewPart(iconTag, iconEl)
		if err != nil {
			return nil, err
		}

		id, err := iconPart.GetUUID("UUID", true)
		if err != nil {
			return nil, err
		}
		data, err := iconPart.GetBytes("Data", true)
		if err != nil {
			return nil, err
		}
		icons.icons = append(icons.icons, &CustomIcon{part: iconPart, UUID: id, Data: data})
	}

	icons.part = part
	return icons, nil
}

// Get returns the icon with the given identifier.
func (c *CustomIcons) Get(id UUID) (*CustomIcon, bool) {
	for _, icon := range c.icons {
		if icon.UUID == id {
			return icon, true
		}
	}
	return nil, false
}

func (c *CustomIcons) Add(icon *CustomIcon) {
	c.icons = append(c.icons, icon)
}

func (c *CustomIcons) Remove(id UUID) bool {
	i := slices.IndexFunc(c.icons, func(icon *CustomIcon) bool { return icon.UUID == id })
	if i < 0 {
		return false
	}
	c.icons = slices.Delete(c.icons, i, i+1)
	return true
}

func (c *CustomIcons) All() []*CustomIcon {
	return slices.Clone(c.icons)
}

func (c *CustomIcons) Clone() *CustomIcons {
	if c == nil {
		return nil
	}
	out := &CustomIcons{part: c.part.clone()}
	for _, icon := range c.icons {
		out.icons = append(out.icons, &CustomIcon{
			part: icon.part.clone(),
			UUID: icon.UUID,
			Data: bytes.Clone(icon.Data),
		})
	}
	return out
}

func (c *CustomIcons) Equal(other *CustomIcons) bool {
	if c == nil || other == nil {
		return c == other
	}
	return slices.EqualFunc(c.icons, other.icons, (*CustomIcon).Equal)
}

func (c *CustomIcons) toXML(*writeContext) *etree.Element {
	return c.part.Build(func(el *etree.Element) {
		for _, icon := range c.icons {
			el.AddChild(icon.part.Build(func(iconEl *etree.Element) {
				addUUID(iconEl, "UUID", icon.UUID)
				addText(iconEl, "Data", base64.StdEncoding.EncodeToString(icon.Data))
			}))
		}
	})
}
