// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package kdbx implements the document object model of the XML payload that
// sits inside a decrypted KDBX (KeePass) database.
//
// A [Document] is parsed from the inner XML with [Parse] and written back with
// [Document.WriteXML]. Every model type is built on a [Part], which keeps the
// child elements that the model does not understand and re-emits them on
// serialization, so unknown format features survive a parse/modify/write
// cycle unchanged.
//
// Secret values are held as [ProtectedString], which can keep its value
// XOR-masked in memory. Masks come from a [crypto.RandomSource]; when parsing,
// the source must be the KDBX inner random stream so that protected values are
// unmasked in document order.
//
// The tree is not safe for concurrent mutation. Only the mask state of a
// ProtectedString is guarded internally.
package kdbx
