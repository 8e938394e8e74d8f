package cryptosubstrate

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// BlockSize is the block width (in bytes) the underlying field operates
// on: GF(2^128) elements, matching a standard 128-bit Shamir scheme
// (SSSS-128). adapted from _examples/original_source/sss.py, which wraps
// pycryptodome's Shamir module the same way for exactly this reason.
const BlockSize = 16

// Share is one piece of a block-wise Shamir split: an index in 1..=n and
// a payload whose length is a multiple of BlockSize.
type Share struct {
	Index   int
	Payload []byte
}

var (
	// ErrNotMultipleOfBlock is returned when a secret or share payload's
	// length is not a multiple of BlockSize.
	ErrNotMultipleOfBlock = errors.New("cryptosubstrate: length not a multiple of the block size")
	// ErrInconsistentShareLengths is returned by Combine when supplied
	// shares do not all have the same payload length.
	ErrInconsistentShareLengths = errors.New("cryptosubstrate: inconsistent share lengths")
	// ErrTooFewShares is returned when fewer than two shares, or an
	// otherwise unusable threshold, is requested.
	ErrTooFewShares = errors.New("cryptosubstrate: need at least two shares")
)

// Split divides secret into n shares of which any k reconstruct it. secret
// must have a length that is a multiple of BlockSize; the split runs
// block-wise, reusing the same (k, n) polynomial degree per block and
// concatenating the n resulting per-block payloads.
func Split(k, n int, secret []byte) ([]Share, error) {
	if len(secret)%BlockSize != 0 {
		return nil, ErrNotMultipleOfBlock
	}
	if k < 2 || k > n {
		return nil, ErrTooFewShares
	}

	blocks := len(secret) / BlockSize
	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = make([]byte, 0, blocks*BlockSize)
	}

	for b := 0; b < blocks; b++ {
		block := secret[b*BlockSize : (b+1)*BlockSize]
		blockShares, err := gfSplitBlock(k, n, block)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			payloads[i] = append(payloads[i], blockShares[i]...)
		}
	}

	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		shares[i] = Share{Index: i + 1, Payload: payloads[i]}
	}
	return shares, nil
}

// Combine reverses Split: any k of the n shares produced by Split, routed
// through the underlying per-block combine, recover the original secret.
// All supplied shares must have equal, multiple-of-block-size length.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, ErrTooFewShares
	}
	shareLen := len(shares[0].Payload)
	if shareLen%BlockSize != 0 {
		return nil, ErrNotMultipleOfBlock
	}
	for _, s := range shares {
		if len(s.Payload)%BlockSize != 0 {
			return nil, ErrNotMultipleOfBlock
		}
		if len(s.Payload) != shareLen {
			return nil, ErrInconsistentShareLengths
		}
	}

	blocks := shareLen / BlockSize
	secret := make([]byte, 0, shareLen)
	for b := 0; b < blocks; b++ {
		blockShares := make([]gfShare, len(shares))
		for i, s := range shares {
			blockShares[i] = gfShare{x: s.Index, y: s.Payload[b*BlockSize : (b+1)*BlockSize]}
		}
		block, err := gfCombineBlock(blockShares)
		if err != nil {
			return nil, err
		}
		secret = append(secret, block...)
	}
	return secret, nil
}

// --- GF(2^128) field arithmetic, reduction polynomial x^128+x^7+x^2+x+1
// (the same field GCM's GHASH uses), matching the field SSSS-128 operates
// over. Elements are represented as big.Int in [0, 2^128).

var gfReductionLow = big.NewInt(0x87) // x^7 + x^2 + x + 1

func gfAdd(a, b *big.Int) *big.Int {
	return new(big.Int).Xor(a, b)
}

func gfMul(a, b *big.Int) *big.Int {
	result := new(big.Int)
	aa := new(big.Int).Set(a)
	bb := new(big.Int).Set(b)
	for bb.Sign() != 0 {
		if bb.Bit(0) == 1 {
			result.Xor(result, aa)
		}
		bb.Rsh(bb, 1)
		aa.Lsh(aa, 1)
		if aa.Bit(128) == 1 {
			aa.SetBit(aa, 128, 0)
			aa.Xor(aa, gfReductionLow)
		}
	}
	return result
}

func gfInv(a *big.Int) (*big.Int, error) {
	if a.Sign() == 0 {
		return nil, errors.New("cryptosubstrate: division by zero in GF(2^128)")
	}
	// a^(2^128 - 2) via square-and-multiply.
	result := big.NewInt(1)
	base := new(big.Int).Set(a)
	exp := new(big.Int).Lsh(big.NewInt(1), 128)
	exp.Sub(exp, big.NewInt(2))
	for i := 0; i < exp.BitLen(); i++ {
		if exp.Bit(i) == 1 {
			result = gfMul(result, base)
		}
		base = gfMul(base, base)
	}
	return result, nil
}

func gfElemFromX(x int) *big.Int {
	return big.NewInt(int64(x))
}

type gfShare struct {
	x int
	y []byte
}

// gfSplitBlock runs a single-block (k, n) Shamir split over GF(2^128),
// evaluating a random degree-(k-1) polynomial with the secret as its
// constant term at x = 1..n.
func gfSplitBlock(k, n int, block []byte) ([][]byte, error) {
	coeffs := make([]*big.Int, k)
	coeffs[0] = new(big.Int).SetBytes(block)
	for i := 1; i < k; i++ {
		c, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}

	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		x := gfElemFromX(i + 1)
		y := gfEvalPoly(coeffs, x)
		out[i] = padTo(y.Bytes(), BlockSize)
	}
	return out, nil
}

// gfEvalPoly evaluates a polynomial (coeffs low-degree first) at x using
// Horner's method over GF(2^128).
func gfEvalPoly(coeffs []*big.Int, x *big.Int) *big.Int {
	acc := new(big.Int)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = gfAdd(gfMul(acc, x), coeffs[i])
	}
	return acc
}

// gfCombineBlock reconstructs a single block's secret via Lagrange
// interpolation at x = 0 over GF(2^128).
func gfCombineBlock(shares []gfShare) ([]byte, error) {
	secret := new(big.Int)
	for i, si := range shares {
		xi := gfElemFromX(si.x)
		yi := new(big.Int).SetBytes(si.y)

		num := big.NewInt(1)
		den := big.NewInt(1)
		for j, sj := range shares {
			if i == j {
				continue
			}
			xj := gfElemFromX(sj.x)
			num = gfMul(num, xj)
			den = gfMul(den, gfAdd(xj, xi))
		}
		denInv, err := gfInv(den)
		if err != nil {
			return nil, err
		}
		term := gfMul(yi, gfMul(num, denInv))
		secret = gfAdd(secret, term)
	}
	return padTo(secret.Bytes(), BlockSize), nil
}

func padTo(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
