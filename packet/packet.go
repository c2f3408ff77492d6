// Package packet implements the fixed-layout wire packet used by the rdt
// transport: a 16-byte header (type, seq, checksum, data length) followed
// by a constant-size payload area, always MTU bytes on the wire.
package packet

import (
	"encoding/binary"
	"fmt"
)

// Type tags the kind of message a packet carries.
type Type uint32

const (
	SYN Type = 1 + iota
	SYNACK
	ACK
	DATA
	DATAACK
	FIN
	FINACK
)

func (t Type) String() string {
	switch t {
	case SYN:
		return "SYN"
	case SYNACK:
		return "SYN_ACK"
	case ACK:
		return "ACK"
	case DATA:
		return "DATA"
	case DATAACK:
		return "DATA_ACK"
	case FIN:
		return "FIN"
	case FINACK:
		return "FIN_ACK"
	default:
		return fmt.Sprintf("Type(%d)", uint32(t))
	}
}

const (
	// MTU is the fixed size of every packet on the wire.
	MTU = 1024
	// HeaderSize is the fixed header length preceding the data area.
	HeaderSize = 16
	// MaxDataLength is the largest payload a single DATA packet can carry.
	MaxDataLength = MTU - HeaderSize
)

// Header field offsets, network byte order, 4 bytes each.
const (
	typeOffset       = 0
	seqOffset        = 4
	checksumOffset   = 8
	dataLengthOffset = 12
	dataOffset       = HeaderSize
)

// Packet is the in-memory representation of one wire packet.
type Packet struct {
	Type       Type
	Seq        uint32
	Checksum   uint32
	DataLength uint32
	Data       [MaxDataLength]byte
}

// New builds a control packet (SYN/SYN_ACK/ACK/FIN/FIN_ACK) carrying no
// payload, per the invariant that control packets have DataLength 0.
func New(typ Type, seq uint32) *Packet {
	return &Packet{Type: typ, Seq: seq}
}

// NewData builds a DATA packet carrying up to MaxDataLength bytes of data.
// Extra bytes beyond MaxDataLength are silently dropped; a caller with a
// larger payload is expected to split it across multiple calls.
func NewData(seq uint32, data []byte) *Packet {
	p := &Packet{Type: DATA, Seq: seq}
	n := copy(p.Data[:], data)
	p.DataLength = uint32(n)
	return p
}

// Encode serializes p into a freshly allocated MTU-byte wire image with the
// checksum field populated using algo.
func (p *Packet) Encode(algo ChecksumAlgorithm) []byte {
	buf := make([]byte, MTU)
	p.encodeInto(buf)
	binary.BigEndian.PutUint32(buf[checksumOffset:], algo.Compute(buf))
	return buf
}

func (p *Packet) encodeInto(buf []byte) {
	binary.BigEndian.PutUint32(buf[typeOffset:], uint32(p.Type))
	binary.BigEndian.PutUint32(buf[seqOffset:], p.Seq)
	binary.BigEndian.PutUint32(buf[checksumOffset:], 0)
	binary.BigEndian.PutUint32(buf[dataLengthOffset:], p.DataLength)
	copy(buf[dataOffset:], p.Data[:])
}

// Decode parses and validates an MTU-byte wire image, rejecting it with
// ErrChecksumMismatch if the checksum computed over the image (with the
// checksum field zeroed) doesn't match the one carried on the wire.
func Decode(buf []byte, algo ChecksumAlgorithm) (*Packet, error) {
	if len(buf) != MTU {
		return nil, fmt.Errorf("packet: got %d bytes, want %d", len(buf), MTU)
	}

	received := binary.BigEndian.Uint32(buf[checksumOffset:])
	zeroed := make([]byte, MTU)
	copy(zeroed, buf)
	binary.BigEndian.PutUint32(zeroed[checksumOffset:], 0)
	if computed := algo.Compute(zeroed); computed != received {
		return nil, ErrChecksumMismatch
	}

	p := &Packet{
		Type:       Type(binary.BigEndian.Uint32(buf[typeOffset:])),
		Seq:        binary.BigEndian.Uint32(buf[seqOffset:]),
		Checksum:   received,
		DataLength: binary.BigEndian.Uint32(buf[dataLengthOffset:]),
	}
	if p.DataLength > MaxDataLength {
		return nil, fmt.Errorf("packet: data_length %d exceeds max %d", p.DataLength, MaxDataLength)
	}
	copy(p.Data[:], buf[dataOffset:])
	return p, nil
}

// ErrChecksumMismatch is returned by Decode when the packet's checksum
// does not match its contents; the caller discards the packet silently
// and waits for a retransmit rather than surfacing this to the application.
var ErrChecksumMismatch = fmt.Errorf("packet: checksum mismatch")
