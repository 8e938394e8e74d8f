// Package wire implements the broadcast and TCP upload framing described
// in §6. adapted from _examples/original_source/client.py
// (STRUCT_FORMAT_STRING = "<B32s32s") and
// _examples/dedis-student_18_decenar/lib/bloom.go's CBF.Write, which
// favors explicit binary.Write/Read over a reflection-based codec.
package wire

import (
	"errors"
)

// PacketSize is the exact size, in bytes, of a broadcast frame.
const PacketSize = 1 + 32 + 32

// ErrWireTooShort is returned when a buffer whose length is not exactly
// PacketSize (shorter or longer) is decoded.
var ErrWireTooShort = errors.New("wire: frame too short")

// Packet is the little-endian, fixed 65-byte broadcast frame: idx (1
// byte), share (32 bytes), hash (32 bytes).
type Packet struct {
	Idx   uint8
	Share [32]byte
	Hash  [32]byte
}

// Encode serializes p into its 65-byte wire form.
func (p Packet) Encode() [PacketSize]byte {
	var out [PacketSize]byte
	out[0] = p.Idx
	copy(out[1:33], p.Share[:])
	copy(out[33:65], p.Hash[:])
	return out
}

// Decode parses a 65-byte buffer into a Packet.
func Decode(data []byte) (Packet, error) {
	if len(data) != PacketSize {
		return Packet{}, ErrWireTooShort
	}
	var p Packet
	p.Idx = data[0]
	copy(p.Share[:], data[1:33])
	copy(p.Hash[:], data[33:65])
	return p, nil
}
