package cryptosubstrate

import (
	"crypto/subtle"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/crypto/blake2b"
)

// EphID is a 32-byte compressed Ed25519 public point, broadcast piecewise
// via Shamir shares, together with the 32-byte BLAKE2b digest that is sent
// in the clear alongside each share so reassembly can be keyed by it.
type EphID struct {
	Public [32]byte
	Digest [32]byte
}

// Digest computes the BLAKE2b-256 digest of a compressed EphID public key.
func Digest(public [32]byte) [32]byte {
	return blake2b.Sum256(public[:])
}

// GenerateEphID samples a fresh keypair and returns the EphID alongside the
// private scalar the generator must keep secret.
func GenerateEphID() (priv kyber.Scalar, id EphID) {
	priv, pub := GenerateKeypair()
	return priv, EphID{Public: pub, Digest: Digest(pub)}
}

// SplitEphID splits an EphID's compressed public key into n shares with
// threshold k, per §4.3/§4.4.
func SplitEphID(k, n int, id EphID) ([]Share, error) {
	return Split(k, n, id.Public[:])
}

// ReconstructEphID combines shares into a candidate public key and verifies
// it against the expected digest using a constant-time comparison, per
// §4.6's hash-mismatch handling. Returns (EphID{}, false) on any mismatch
// or malformed share set, discarding the attempt silently so more shares
// can be awaited -- it never returns an error the caller must branch on.
func ReconstructEphID(shares []Share, expectDigest [32]byte) (EphID, bool) {
	public, err := Combine(shares)
	if err != nil || len(public) != 32 {
		return EphID{}, false
	}
	var pub [32]byte
	copy(pub[:], public)
	digest := Digest(pub)
	if subtle.ConstantTimeCompare(digest[:], expectDigest[:]) != 1 {
		return EphID{}, false
	}
	return EphID{Public: pub, Digest: digest}, true
}
