// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// now is the clock used for every timestamp the DOM stamps. KeePass stores
// whole seconds, so values are truncated to keep round trips exact.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// unixToKeePassEpoch is the number of seconds between 0001-01-01 and the Unix
// epoch.
const unixToKeePassEpoch = 62135596800

// NeverExpires is the expiry KeePass writes for entries that do not expire.
var NeverExpires = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

var errBadBool = errors.New("not a boolean")

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatLowerNullableBool renders the tri-state group flags, which KeePass
// writes in lower case with "null" for inherit.
func formatLowerNullableBool(b *bool) string {
	if b == nil {
		return "null"
	}
	if *b {
		return "true"
	}
	return "false"
}

// parseNullableBool accepts "true"/"false" in any case; "null" and the empty
// string mean unset.
func parseNullableBool(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "", strings.EqualFold(s, "null"):
		return nil, nil
	case strings.EqualFold(s, "true"):
		b := true
		return &b, nil
	case strings.EqualFold(s, "false"):
		b := false
		return &b, nil
	default:
		return nil, errBadBool
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func equalBoolPtr(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Color is an opaque RGB colour as written by KeePass ("#RRGGBB").
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor parses "#RRGGBB". Strings of any other shape yield nil, matching
// KeePass, which ignores colours it cannot read; bad hex digits are an error.
func ParseColor(s string) (*Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return nil, nil
	}

	raw, err := hex.DecodeString(s[1:])
	if err != nil {
		return nil, err
	}
	return &Color{R: raw[0], G: raw[1], B: raw[2]}, nil
}

func formatColor(c *Color) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func equalColor(a, b *Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatDate renders t for the given format version. The zero time renders
// as the empty string.
func formatDate(t time.Time, params Params) string {
	if t.IsZero() {
		return ""
	}

	if params.UseBase64DateTimeEncoding {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(t.Unix()+unixToKeePassEpoch))
		return base64.StdEncoding.EncodeToString(buf[:])
	}

	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

// parseDate accepts both the text and the base64 form regardless of version.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	text := strings.TrimSuffix(s, "Z")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.Truncate(time.Second), nil
		}
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != 8 {
		return time.Time{}, errors.New("not a KeePass date")
	}
	secs := int64(binary.LittleEndian.Uint64(raw))
	return time.Unix(secs-unixToKeePassEpoch, 0).UTC(), nil
}
