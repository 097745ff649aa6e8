// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"time"

	"github.com/beevik/etree"
)

const timesTag = "Times"

// Times holds the bookkeeping timestamps attached to every node. The zero
// time means "not set" and is written as an empty element.
type Times struct {
	part Part

	LastModificationTime time.Time
	CreationTime         time.Time
	LastAccessTime       time.Time
	ExpiryTime           time.Time
	Expires              bool
	UsageCount           int
	LocationChanged      time.Time
}

// NewTimes returns timestamps for a node created now.
func NewTimes() *Times {
	t := now()
	return &Times{
		part:                 emptyPart(timesTag),
		LastModificationTime: t,
		CreationTime:         t,
		LastAccessTime:       t,
		ExpiryTime:           NeverExpires,
		LocationChanged:      t,
	}
}

func parseTimes(el *etree.Element) (*Times, error) {
	part, err := NewPart(timesTag, el)
	if err != nil {
		return nil, err
	}

	r := fieldReader{p: &part}
	t := &Times{
		LastModificationTime: r.date("LastModificationTime", false),
		CreationTime:         r.date("CreationTime", false),
		LastAccessTime:       r.date("LastAccessTime", false),
		ExpiryTime:           r.date("ExpiryTime", false),
		Expires:              r.boolean("Expires"),
		UsageCount:           r.integer("UsageCount"),
		LocationChanged:      r.date("LocationChanged", false),
	}
	if r.err != nil {
		return nil, r.err
	}

	t.part = part
	return t, nil
}

func (t *Times) Clone() *Times {
	c := *t
	c.part = t.part.clone()
	return &c
}

// SyncTo copies every timestamp from other.
func (t *Times) SyncTo(other *Times) {
	t.LastModificationTime = other.LastModificationTime
	t.CreationTime = other.CreationTime
	t.LastAccessTime = other.LastAccessTime
	t.ExpiryTime = other.ExpiryTime
	t.Expires = other.Expires
	t.UsageCount = other.UsageCount
	t.LocationChanged = other.LocationChanged
}

func (t *Times) Equal(other *Times) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.LastModificationTime.Equal(other.LastModificationTime) &&
		t.CreationTime.Equal(other.CreationTime) &&
		t.LastAccessTime.Equal(other.LastAccessTime) &&
		t.ExpiryTime.Equal(other.ExpiryTime) &&
		t.Expires == other.Expires &&
		t.UsageCount == other.UsageCount &&
		t.LocationChanged.Equal(other.LocationChanged)
}

func (t *Times) toXML(w *writeContext) *etree.Element {
	return t.part.Build(func(el *etree.Element) {
		addDate(el, "LastModificationTime", t.LastModificationTime, w.params)
		addDate(el, "CreationTime", t.CreationTime, w.params)
		addDate(el, "LastAccessTime", t.LastAccessTime, w.params)
		addDate(el, "ExpiryTime", t.ExpiryTime, w.params)
		addBool(el, "Expires", t.Expires)
		addInt(el, "UsageCount", t.UsageCount)
		addDate(el, "LocationChanged", t.LocationChanged, w.params)
	})
}
