// Package bloomfilter implements the fixed-parameter probabilistic set
// used for Daily/Query/Contact Bloom Filters (§4.1). adapted from
// _examples/dedis-student_18_decenar/lib/bloom.go (hash-round structure,
// blake2b-based hashing, byte-serialised backing store) and
// _examples/original_source/bloom.py (the exact parameters and keyed
// blake2b hash rounds this filter must reproduce).
package bloomfilter

import (
	"errors"
	"math/big"
	"math/bits"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

const (
	// FilterSize is the backing store size in bytes (800 000 bits).
	FilterSize = 100000
	// HashRounds is the number of independent hash rounds per key.
	HashRounds = 3

	bitSize    = FilterSize * 8
	digestSize = 3 // ceil(log2(bitSize)/8)
)

// ErrParameterMismatch is returned by Union/Intersect when the two
// filters do not share identical (FilterSize, HashRounds) parameters. Per
// §7 this is a fatal, programming-error-class condition.
var ErrParameterMismatch = errors.New("bloomfilter: parameter mismatch")

// Filter is a bitset-backed bloom filter over 256-bit integer keys.
type Filter struct {
	size  int // bytes
	k     int
	words []byte
}

// New returns an empty filter with the canonical parameters.
func New() *Filter {
	return &Filter{size: FilterSize, k: HashRounds, words: make([]byte, FilterSize)}
}

// hashIndices computes the HashRounds bit indices for key, by encoding key
// as its decimal ASCII representation and running a keyed BLAKE2b digest
// per round, exactly as bloom.py's generate_hashes does.
func (f *Filter) hashIndices(key *big.Int) []uint32 {
	msg := []byte(key.String())
	idxs := make([]uint32, f.k)
	for r := 0; r < f.k; r++ {
		h, err := blake2b.New(digestSize, []byte(strconv.Itoa(r)))
		if err != nil {
			// digestSize (3) is always within blake2b's valid [1,64] range.
			panic(err)
		}
		h.Write(msg)
		sum := h.Sum(nil)
		var v uint64
		for i := len(sum) - 1; i >= 0; i-- {
			v = v<<8 | uint64(sum[i])
		}
		idxs[r] = uint32(v % uint64(f.size*8))
	}
	return idxs
}

func (f *Filter) setBit(idx uint32) {
	f.words[idx/8] |= 1 << (idx % 8)
}

func (f *Filter) getBit(idx uint32) bool {
	return f.words[idx/8]&(1<<(idx%8)) != 0
}

// Add inserts key into the filter.
func (f *Filter) Add(key *big.Int) {
	for _, idx := range f.hashIndices(key) {
		f.setBit(idx)
	}
}

// Contains reports whether key may be a member (no false negatives).
func (f *Filter) Contains(key *big.Int) bool {
	for _, idx := range f.hashIndices(key) {
		if !f.getBit(idx) {
			return false
		}
	}
	return true
}

// sameParams reports whether f and other share identical parameters.
func (f *Filter) sameParams(other *Filter) bool {
	return f.size == other.size && f.k == other.k
}

// Union returns a new filter containing the set union of f and other.
func (f *Filter) Union(other *Filter) (*Filter, error) {
	if !f.sameParams(other) {
		return nil, ErrParameterMismatch
	}
	out := &Filter{size: f.size, k: f.k, words: make([]byte, f.size)}
	for i := range out.words {
		out.words[i] = f.words[i] | other.words[i]
	}
	return out, nil
}

// Intersect returns a new filter containing the set intersection of f and
// other.
func (f *Filter) Intersect(other *Filter) (*Filter, error) {
	if !f.sameParams(other) {
		return nil, ErrParameterMismatch
	}
	out := &Filter{size: f.size, k: f.k, words: make([]byte, f.size)}
	for i := range out.words {
		out.words[i] = f.words[i] & other.words[i]
	}
	return out, nil
}

// Popcount returns the number of set bits. Intended for sparse
// intersections (the backend's match test), per §4.1.
func (f *Filter) Popcount() int {
	count := 0
	for _, b := range f.words {
		count += bits.OnesCount8(b)
	}
	return count
}

// Bytes returns the FilterSize-byte little-endian serialization of the
// filter's backing store, as sent over the wire (§6).
func (f *Filter) Bytes() []byte {
	out := make([]byte, len(f.words))
	copy(out, f.words)
	return out
}

// FromBytes reconstructs a filter from its FilterSize-byte serialization.
func FromBytes(data []byte) (*Filter, error) {
	if len(data) != FilterSize {
		return nil, errors.New("bloomfilter: wrong serialized length")
	}
	words := make([]byte, FilterSize)
	copy(words, data)
	return &Filter{size: FilterSize, k: HashRounds, words: words}, nil
}
