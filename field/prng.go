//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package field

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/blake2b"
)

// KeyedPRNG is a deterministic cryptographic randomness source built
// on the blake2b XOF. Two instances keyed alike produce the same
// stream, which makes games reproducible for debugging and testing.
type KeyedPRNG struct {
	key []byte
	xof blake2b.XOF
}

// NewKeyedPRNG creates a keyed PRNG. The key can be up to 64 bytes;
// a nil key is replaced with a fresh random one, giving a
// non-reproducible stream.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	if key == nil {
		key = make([]byte, 64)
		_, err := rand.Read(key)
		if err != nil {
			return nil, err
		}
	}
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, key)
	if err != nil {
		return nil, err
	}
	return &KeyedPRNG{
		key: key,
		xof: xof,
	}, nil
}

// Read fills b from the stream.
func (p *KeyedPRNG) Read(b []byte) (int, error) {
	return io.ReadFull(p.xof, b)
}

// Reset rewinds the stream to its beginning.
func (p *KeyedPRNG) Reset() error {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, p.key)
	if err != nil {
		return err
	}
	p.xof = xof
	return nil
}
