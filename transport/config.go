package transport

import (
	"time"

	"github.com/rdtproto/rdt/packet"
)

// Config holds the transport's tunable parameters. Zero-value fields are
// replaced by their documented defaults in DefaultConfig and in the
// constructors that accept a Config.
type Config struct {
	// RecvTimeout is the per-wait timeout that drives retransmission.
	// Default: 1 second.
	RecvTimeout time.Duration

	// ChecksumAlgorithm selects the checksum variant from the packet
	// package (packet.Additive or packet.Fletcher16).
	// Default: packet.Fletcher16{}.
	ChecksumAlgorithm packet.ChecksumAlgorithm

	// MaxRetransmits caps the number of retransmissions a single
	// handshake/data/teardown exchange will attempt before giving up
	// with ErrPeerUnreachable. Zero means unbounded retransmission; a
	// positive value opts into a bounded retry budget instead.
	MaxRetransmits int
}

// DefaultConfig returns the default configuration: MTU 1024 / header 16
// (both fixed by the packet package), 1s recv timeout, Fletcher16
// checksums, unbounded retransmission.
func DefaultConfig() Config {
	return Config{
		RecvTimeout:       1 * time.Second,
		ChecksumAlgorithm: packet.Fletcher16{},
	}
}

func (c Config) withDefaults() Config {
	if c.RecvTimeout <= 0 {
		c.RecvTimeout = DefaultConfig().RecvTimeout
	}
	if c.ChecksumAlgorithm == nil {
		c.ChecksumAlgorithm = DefaultConfig().ChecksumAlgorithm
	}
	return c
}
