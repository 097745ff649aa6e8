// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"golang.org/x/crypto/chacha20"
)

// processKey keys the in-memory masking of binary payloads. It never leaves
// the process and is regenerated on every start.
var processKey = func() []byte {
	key := make([]byte, chacha20.KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}()

var nextMaskID atomic.Uint64

// NewMaskID returns a process-unique identifier that selects the keystream
// used by [XORMask].
func NewMaskID() uint64 {
	return nextMaskID.Add(1)
}

// XORMask XORs data in place with the process keystream selected by id.
// Applying it twice with the same id restores the original bytes.
func XORMask(id uint64, data []byte) {
	if len(data) == 0 {
		return
	}

	var nonce [chacha20.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], id)

	c, err := chacha20.NewUnauthenticatedCipher(processKey, nonce[:])
	if err != nil {
		panic(err)
	}
	c.XORKeyStream(data, data)
}
