// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/salsa20/salsa"
)

// StreamAlgorithm identifies the inner random stream of a KDBX file. The
// numeric values match the InnerRandomStreamID header field.
type StreamAlgorithm uint32

const (
	StreamNone           StreamAlgorithm = 0
	StreamArcFourVariant StreamAlgorithm = 1
	StreamSalsa20        StreamAlgorithm = 2
	StreamChaCha20       StreamAlgorithm = 3
)

// salsaIV is the fixed nonce KeePass uses for its Salsa20 inner stream.
var salsaIV = [8]byte{0xE8, 0x30, 0x09, 0x4B, 0x97, 0x20, 0x5D, 0x2A}

// String returns the lower-case algorithm name used in configuration.
func (a StreamAlgorithm) String() string {
	switch a {
	case StreamNone:
		return "none"
	case StreamArcFourVariant:
		return "arcfour"
	case StreamSalsa20:
		return "salsa20"
	case StreamChaCha20:
		return "chacha20"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(a))
	}
}

// ParseStreamAlgorithm maps a configuration name ("salsa20", "chacha20") to
// its [StreamAlgorithm]. Matching is case-insensitive.
func ParseStreamAlgorithm(name string) (StreamAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "salsa20":
		return StreamSalsa20, nil
	case "chacha20":
		return StreamChaCha20, nil
	case "arcfour":
		return StreamArcFourVariant, nil
	case "none", "":
		return StreamNone, nil
	default:
		return StreamNone, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// NewInnerStream builds the random source KeePass derives from the inner
// random stream key:
//   - Salsa20: key = SHA-256(streamKey), nonce = E8 30 09 4B 97 20 5D 2A;
//   - ChaCha20: h = SHA-512(streamKey), key = h[0:32], nonce = h[32:44].
//
// StreamNone yields the all-zero keystream of KeePass's Null stream:
// protected values are stored as plain base64.
func NewInnerStream(alg StreamAlgorithm, streamKey []byte) (RandomSource, error) {
	if alg == StreamNone {
		return NewNullSource(), nil
	}
	if len(streamKey) == 0 {
		return nil, ErrEmptyStreamKey
	}

	switch alg {
	case StreamSalsa20:
		return NewSalsa20Source(streamKey), nil
	case StreamChaCha20:
		return NewChaCha20Source(streamKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

// salsa20Source is a Salsa20 keystream generator. Keystream blocks are
// produced one at a time and buffered until consumed.
type salsa20Source struct {
	mu    sync.Mutex
	seed  []byte
	key   [32]byte
	block uint64
	buf   [64]byte
	pos   int
}

// NewSalsa20Source returns the KeePass Salsa20 inner stream for seed.
func NewSalsa20Source(seed []byte) RandomSource {
	s := &salsa20Source{
		seed: append([]byte(nil), seed...),
		key:  sha256.Sum256(seed),
		pos:  64,
	}
	return s
}

func (s *salsa20Source) GetBytes(count int) []byte {
	out := make([]byte, count)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; {
		if s.pos == len(s.buf) {
			s.refill()
		}
		n := copy(out[i:], s.buf[s.pos:])
		s.pos += n
		i += n
	}
	return out
}

func (s *salsa20Source) refill() {
	var counter [16]byte
	copy(counter[:8], salsaIV[:])
	binary.LittleEndian.PutUint64(counter[8:], s.block)

	clear(s.buf[:])
	salsa.XORKeyStream(s.buf[:], s.buf[:], &counter, &s.key)
	s.block++
	s.pos = 0
}

func (s *salsa20Source) Clone() RandomSource {
	return NewSalsa20Source(s.seed)
}

// chaCha20Source wraps the x/crypto ChaCha20 stream cipher; XOR-ing zeros
// yields the raw keystream.
type chaCha20Source struct {
	mu     sync.Mutex
	key    []byte
	nonce  []byte
	cipher *chacha20.Cipher
}

// NewChaCha20Source returns the KeePass ChaCha20 inner stream for seed.
func NewChaCha20Source(seed []byte) (RandomSource, error) {
	h := sha512.Sum512(seed)
	return newChaCha20(h[:chacha20.KeySize], h[chacha20.KeySize:chacha20.KeySize+chacha20.NonceSize])
}

func newChaCha20(key, nonce []byte) (*chaCha20Source, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("create chacha20 cipher: %w", err)
	}

	return &chaCha20Source{
		key:    append([]byte(nil), key...),
		nonce:  append([]byte(nil), nonce...),
		cipher: c,
	}, nil
}

func (c *chaCha20Source) GetBytes(count int) []byte {
	out := make([]byte, count)

	c.mu.Lock()
	c.cipher.XORKeyStream(out, out)
	c.mu.Unlock()

	return out
}

func (c *chaCha20Source) Clone() RandomSource {
	clone, err := newChaCha20(c.key, c.nonce)
	if err != nil {
		// key and nonce sizes were validated when c was built
		panic(err)
	}
	return clone
}
