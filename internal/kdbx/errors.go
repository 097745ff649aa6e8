// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedXML       = errors.New("malformed xml")
	ErrRootTagMismatch    = errors.New("root tag mismatch")
	ErrMissingElement     = errors.New("missing required element")
	ErrInvalidValue       = errors.New("invalid value")
	ErrDuplicateBinary    = errors.New("duplicate binary id")
	ErrUnknownBinary      = errors.New("unknown binary reference")
	ErrHeaderHashMismatch = errors.New("header hash mismatch")

	// ErrAdoptionCycle is returned by Group.TryAdopt when the node to adopt
	// is the group itself or one of its ancestors.
	ErrAdoptionCycle = errors.New("a group cannot adopt itself or its ancestors")

	// ErrDetachedGroup is returned by Group.TryAdopt when the adopting group
	// or the node to adopt is not held by the tree it claims to belong to.
	ErrDetachedGroup = errors.New("group is not attached to a tree")
)

// ErrorKind is the coarse category of a [FormatError].
type ErrorKind int

const (
	// KindMalformed covers bad XML shape: unparsable markup, unexpected root
	// tags and missing required elements.
	KindMalformed ErrorKind = iota
	// KindBadValue covers well-formed elements whose content cannot be parsed.
	KindBadValue
	// KindBadHeaderHash is reported when Meta/HeaderHash does not match the
	// outer header.
	KindBadHeaderHash
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindBadValue:
		return "bad value"
	case KindBadHeaderHash:
		return "bad header hash"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// FormatError describes why a document could not be parsed. Part is the tag
// of the element being parsed, Field the child that failed and Value the raw
// offending text when there is one.
type FormatError struct {
	Kind  ErrorKind
	Part  string
	Field string
	Value string
	Err   error
	Cause error
}

func (e *FormatError) Error() string {
	var sb strings.Builder
	sb.WriteString("kdbx: ")
	if e.Part != "" {
		sb.WriteString(e.Part)
		if e.Field != "" {
			sb.WriteString("/")
			sb.WriteString(e.Field)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Err.Error())
	if e.Value != "" {
		fmt.Fprintf(&sb, " (value %q)", e.Value)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *FormatError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrHeaderHashMismatch):
		return KindBadHeaderHash
	case errors.Is(err, ErrInvalidValue), errors.Is(err, ErrDuplicateBinary), errors.Is(err, ErrUnknownBinary):
		return KindBadValue
	default:
		return KindMalformed
	}
}

func newFormatError(sentinel error, part, field, value string, cause error) *FormatError {
	return &FormatError{
		Kind:  kindOf(sentinel),
		Part:  part,
		Field: field,
		Value: value,
		Err:   sentinel,
		Cause: cause,
	}
}

func missingElement(part, field string) error {
	return newFormatError(ErrMissingElement, part, field, "", nil)
}

func invalidValue(part, field, value string, cause error) error {
	return newFormatError(ErrInvalidValue, part, field, value, cause)
}
