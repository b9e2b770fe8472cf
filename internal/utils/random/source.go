package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Source yields uniform integers in [0, n). *math/rand.Rand satisfies it.
type Source interface {
	Int63n(n int64) int64
}

// CryptoSource draws from crypto/rand. It panics if the system RNG fails,
// matching math/rand's contract of never returning an error.
type CryptoSource struct{}

func NewCryptoSource() CryptoSource {
	return CryptoSource{}
}

func (CryptoSource) Int63n(n int64) int64 {
	if n <= 0 {
		panic("random: invalid argument to Int63n")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		panic(fmt.Sprintf("random: failed to generate random number: %v", err))
	}
	return v.Int64()
}
