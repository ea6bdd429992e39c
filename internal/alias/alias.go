// Package alias generates short alias tokens.
//
// Tokens are drawn uniformly from a lowercase hexadecimal alphabet using a
// cryptographically strong source. With the default length of 6 the token
// space is 16^6 (about 16.7M), the same as hex-encoding 3 random bytes.
// Uniqueness is probabilistic: callers must check a candidate against the
// stores before committing it.
package alias

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	// Alphabet is the set of characters a generated alias is made of.
	Alphabet = "0123456789abcdef"

	DefaultLength = 6
	MinLength     = 4
)

// Generator produces alias candidates.
type Generator interface {
	Generate() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) Generate() string { return f() }

// HexGenerator generates fixed-length lowercase hex tokens.
type HexGenerator struct {
	length int
	next   func() string
}

func NewHexGenerator(length int) (*HexGenerator, error) {
	if length < MinLength {
		return nil, fmt.Errorf("alias length must be at least %d, got %d", MinLength, length)
	}

	next, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("failed to create alias generator: %w", err)
	}

	return &HexGenerator{
		length: length,
		next:   next,
	}, nil
}

func (g *HexGenerator) Generate() string {
	return g.next()
}

// Length returns the number of characters in every generated token.
func (g *HexGenerator) Length() int {
	return g.length
}

// SpaceSize returns the number of distinct tokens of the given length.
func SpaceSize(length int) uint64 {
	size := uint64(1)
	for i := 0; i < length; i++ {
		size *= uint64(len(Alphabet))
	}
	return size
}
