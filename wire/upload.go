package wire

import (
	"errors"
	"io"
	"net"
	"time"

	"go.dedis.ch/dimy/bloomfilter"
)

// UploadType is the 3-ASCII-byte tag identifying the kind of filter being
// uploaded to the backend.
type UploadType string

const (
	// TypeQBF tags a Query Bloom Filter upload.
	TypeQBF UploadType = "QBF"
	// TypeCBF tags a Contact Bloom Filter upload.
	TypeCBF UploadType = "CBF"

	tagSize = 3
	// uploadTimeout bounds the connect+read portion of an upload;
	// exceeding it is reported as a fatal upload error for that cycle
	// per §5.
	uploadTimeout = 10 * time.Second
)

// ErrBadTypeTag is returned when a received tag is neither "CBF" nor
// "QBF".
var ErrBadTypeTag = errors.New("wire: bad type tag")

// Upload opens a TCP connection to addr, sends the 3-byte type tag
// followed by the filter's FilterSize-byte serialization, half-closes the
// write side, and returns the single ASCII response line.
func Upload(addr string, typ UploadType, filter *bloomfilter.Filter) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, uploadTimeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(uploadTimeout)); err != nil {
		return "", err
	}
	if _, err := conn.Write([]byte(typ)); err != nil {
		return "", err
	}
	if _, err := conn.Write(filter.Bytes()); err != nil {
		return "", err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

// ReadUpload reads an upload's type tag and filter payload from r,
// matching the backend's framing in §4.8: exactly 3 ASCII bytes then
// exactly FilterSize bytes. Any short read or malformed tag is a
// connection-level error per §7.
func ReadUpload(r io.Reader) (UploadType, *bloomfilter.Filter, error) {
	tag := make([]byte, tagSize)
	if _, err := io.ReadFull(r, tag); err != nil {
		return "", nil, err
	}
	typ := UploadType(tag)
	if typ != TypeCBF && typ != TypeQBF {
		return "", nil, ErrBadTypeTag
	}

	payload := make([]byte, bloomfilter.FilterSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", nil, err
	}
	filter, err := bloomfilter.FromBytes(payload)
	if err != nil {
		return "", nil, err
	}
	return typ, filter, nil
}
