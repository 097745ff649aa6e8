// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import "github.com/MKhiriev/go-kdbx/internal/crypto"

// Params describes how the XML payload differs between KDBX major versions.
type Params struct {
	// Version is the KDBX major version (3 or 4).
	Version int
	// UseXMLHeaderAuthentication means the outer header hash is stored in
	// Meta/HeaderHash (KDBX 3).
	UseXMLHeaderAuthentication bool
	// UseBase64DateTimeEncoding writes dates as base64 seconds (KDBX 4).
	UseBase64DateTimeEncoding bool
	// BinariesInXML means attachment payloads live in Meta/Binaries rather
	// than in the inner header (KDBX 3).
	BinariesInXML bool
}

// ParamsFor returns the parameters of a KDBX major version. Anything below 4
// is treated as version 3.
func ParamsFor(version int) Params {
	if version >= 4 {
		return Params{
			Version:                   version,
			UseBase64DateTimeEncoding: true,
		}
	}

	return Params{
		Version:                    3,
		UseXMLHeaderAuthentication: true,
		BinariesInXML:              true,
	}
}

// ParseOptions carries the collaborators of a parse that come from the outer
// container.
type ParseOptions struct {
	Params Params

	// HeaderBinaries is the attachment pool read from the KDBX 4 inner
	// header. Entry references index into it.
	HeaderBinaries []*Binary

	// ExpectedHeaderHash, when set, is compared against Meta/HeaderHash for
	// versions that authenticate the header in XML.
	ExpectedHeaderHash []byte
}

type parseContext struct {
	rng      crypto.RandomSource
	params   Params
	metadata *Metadata
}

// writeContext is threaded through serialization. The first failure is kept
// in err and reported by the document writer.
type writeContext struct {
	rng      crypto.RandomSource
	params   Params
	binaries *Binaries
	err      error
}

func (w *writeContext) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}
