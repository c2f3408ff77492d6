package packet

import "encoding/binary"

// ChecksumAlgorithm computes a checksum over a full MTU-byte packet image
// with the checksum field already zeroed. Two interchangeable variants are
// implemented here, both selected via transport.Config.ChecksumAlgorithm.
type ChecksumAlgorithm interface {
	Compute(image []byte) uint32
}

// Additive sums type + seq + data_length plus every data byte. It is the
// weaker of the two variants: it catches random single-byte flips but not
// permutations of the same bytes.
type Additive struct{}

func (Additive) Compute(image []byte) uint32 {
	var sum uint32
	sum += binary.BigEndian.Uint32(image[typeOffset:])
	sum += binary.BigEndian.Uint32(image[seqOffset:])
	sum += binary.BigEndian.Uint32(image[dataLengthOffset:])
	for _, b := range image[dataOffset:] {
		sum += uint32(b)
	}
	return sum
}

// Fletcher16 runs the classic two-running-sum Fletcher algorithm over the
// entire packet image, packing both 8-bit sums into the low 16 bits of the
// returned checksum. This is the recommended default: it catches
// permutations the additive checksum misses.
type Fletcher16 struct{}

func (Fletcher16) Compute(image []byte) uint32 {
	var sum1, sum2 uint32
	for _, b := range image {
		sum1 = (sum1 + uint32(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}
	return (sum2 << 8) | sum1
}
