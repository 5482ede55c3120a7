//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package share implements additive secret sharing over ℤ/pℤ. A
// secret is split into n shares whose sum reconstructs it mod p; any
// n-1 of the shares are uniformly distributed and carry no
// information about the secret.
package share

import (
	"fmt"

	"github.com/markkurossi/guesspoint/field"
)

// Split divides secret into n additive shares. The first n-1 shares
// are drawn uniformly from smp's field and the last one is set to the
// remainder. Secrets outside the field are reduced mod p.
func Split(smp *field.Sampler, secret uint64, n int) ([]uint64, error) {
	if n < 1 {
		return nil, fmt.Errorf("split: invalid share count %d", n)
	}
	f := smp.Field()
	secret = f.Reduce(secret)

	shares := make([]uint64, n)
	var sum uint64
	for i := 0; i < n-1; i++ {
		v, err := smp.Uniform()
		if err != nil {
			return nil, err
		}
		shares[i] = v
		sum = f.Add(sum, v)
	}
	shares[n-1] = f.Sub(secret, sum)
	return shares, nil
}

// Reconstruct recovers the secret from its additive shares.
func Reconstruct(f field.Field, shares []uint64) uint64 {
	return f.Sum(shares...)
}
