// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/MKhiriev/go-kdbx/internal/crypto"
)

// ── Properties ──

// TestProtectedString_ProtectRoundTrip: setting a value, protecting and
// unprotecting it never changes the clear value.
func TestProtectedString_ProtectRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Bool().Draw(t, "initiallyProtected")
		v := rapid.String().Draw(t, "value")

		s := NewProtectedString("k", "seed", crypto.NewSystemSource(), initial)
		s.SetClearValue(v)
		s.SetProtected(true)
		v2 := s.ClearValue()
		s.SetProtected(false)
		v3 := s.ClearValue()

		if v2 != v || v3 != v {
			t.Fatalf("got %q / %q, want %q", v2, v3, v)
		}
	})
}

// TestProtectedString_CloneMaskIndependence: a protected clone has its own
// mask and does not follow later edits of the source.
func TestProtectedString_CloneMaskIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.StringN(4, 64, -1).Draw(t, "value")
		other := rapid.String().Draw(t, "other")

		s := NewProtectedString("Password", v, crypto.NewSystemSource(), true)
		c := s.Clone()

		if !s.Equal(c) {
			t.Fatalf("clone not equal to source")
		}
		if bytes.Equal(s.Masked(), c.Masked()) {
			t.Fatalf("clone shares masked bytes with source")
		}

		c.SetClearValue(other)
		if s.ClearValue() != v {
			t.Fatalf("source changed to %q", s.ClearValue())
		}
	})
}

func TestProtectedString_MaskLengthMatchesValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.String().Draw(t, "value")
		s := NewProtectedString("k", v, nil, true)
		if len(s.Masked()) != len([]byte(v)) {
			t.Fatalf("masked length %d for %d bytes", len(s.Masked()), len(v))
		}
	})
}

// ── Behaviour ──

func TestProtectedString_Equal(t *testing.T) {
	a := NewProtectedString("Password", "x", nil, true)

	tests := []struct {
		name  string
		other *ProtectedString
		want  bool
	}{
		{name: "independent mask", other: NewProtectedString("Password", "x", nil, true), want: true},
		{name: "different value", other: NewProtectedString("Password", "y", nil, true), want: false},
		{name: "different key", other: NewProtectedString("Other", "x", nil, true), want: false},
		{name: "unprotected", other: NewProtectedString("Password", "x", nil, false), want: false},
		{name: "nil", other: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Equal(tt.other))
		})
	}
}

func TestProtectedString_UnprotectedHasNoMask(t *testing.T) {
	s := NewProtectedString("UserName", "bob", nil, false)
	assert.Nil(t, s.Masked())
	assert.Equal(t, "bob", s.ClearValue())

	s.SetProtected(true)
	assert.NotEqual(t, []byte("bob"), s.Masked())
	assert.Equal(t, "bob", s.ClearValue())
}

func TestProtectedString_Notifications(t *testing.T) {
	s := NewProtectedString("k", "v", nil, false)

	var got []string
	cancel := s.Subscribe(func(c Change) { got = append(got, c.Property) })

	s.SetClearValue("w")
	s.SetProtected(true)
	s.SetProtected(true)
	s.SetKey("k2")
	cancel()
	s.SetKey("k3")

	assert.Equal(t, []string{"ClearValue", "Protected", "Key"}, got)
}

func TestProtectedString_ConcurrentAccess(t *testing.T) {
	s := NewProtectedString("Password", "initial", nil, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetClearValue("changed-value")
		}()
		go func() {
			defer wg.Done()
			v := s.ClearValue()
			assert.Contains(t, []string{"initial", "changed-value"}, v)
		}()
	}
	wg.Wait()
}

// ── XML ──

func TestParseProtectedString_UsesStreamInOrder(t *testing.T) {
	writer := newStream()
	first := protect(writer, "one")
	second := protect(writer, "two")

	reader := newStream()
	a, err := parseProtectedString(mustElement(t, `<String><Key>A</Key><Value Protected="True">`+first+`</Value></String>`), reader)
	require.NoError(t, err)
	b, err := parseProtectedString(mustElement(t, `<String><Key>B</Key><Value Protected="True">`+second+`</Value></String>`), reader)
	require.NoError(t, err)

	assert.Equal(t, "one", a.ClearValue())
	assert.Equal(t, "two", b.ClearValue())
	assert.True(t, a.Protected())
}

func TestParseProtectedString_MissingValue(t *testing.T) {
	_, err := parseProtectedString(mustElement(t, `<String><Key>A</Key></String>`), newStream())
	assert.ErrorIs(t, err, ErrMissingElement)
}

func TestProtectedString_ToXML(t *testing.T) {
	s := NewProtectedString("Password", "hunter2", nil, true)

	w := &writeContext{rng: newStream(), params: ParamsFor(3)}
	el := s.toXML(w)

	value := el.SelectElement("Value")
	require.NotNil(t, value)
	assert.Equal(t, "True", value.SelectAttrValue("Protected", ""))
	assert.NotEqual(t, "hunter2", value.Text())

	back, err := parseProtectedString(el, newStream())
	require.NoError(t, err)
	assert.True(t, s.Equal(back))
}

func TestProtectedString_EmptyProtectedDrawsNothing(t *testing.T) {
	s := NewProtectedString("Password", "", nil, true)

	stream := newStream()
	el := s.toXML(&writeContext{rng: stream, params: ParamsFor(3)})
	assert.Equal(t, "", el.SelectElement("Value").Text())
	assert.Equal(t, newStream().GetBytes(4), stream.GetBytes(4))
}
