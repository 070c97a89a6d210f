// The ick package is for things I can't believe I have to write.
package ick

import (
	"math/rand"
)

// NShuffle shuffles a slice in-place.
//
// The "N" prefix is a nod to CL.
func NShuffle[T any](data []T) []T {
	rand.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
	return data
}

// NShuffleWith is NShuffle with a caller-supplied source, so tests can pin
// the permutation.  A nil rng uses the global source.
func NShuffleWith[T any](rng *rand.Rand, data []T) []T {
	if rng == nil {
		return NShuffle(data)
	}
	rng.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
	return data
}
