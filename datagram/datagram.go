// Package datagram implements the transport's datagram I/O layer: sending
// and receiving exactly one MTU-byte packet at a time, with a bounded-wait
// receive that drives the engines' retransmission timers.
package datagram

import (
	"errors"
	"net"
	"time"

	"github.com/rdtproto/rdt/packet"
)

// DefaultRecvTimeout is the default per-wait timeout that drives retransmission.
const DefaultRecvTimeout = 1 * time.Second

// packetConn is the seam between the datagram layer and the underlying
// socket. *net.UDPConn satisfies it directly; tests substitute a fake to
// inject loss, corruption, duplication and reordering deterministically.
type packetConn interface {
	ReadFrom(b []byte) (int, net.Addr, error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Outcome classifies the result of a Recv call.
type Outcome int

const (
	// Received indicates a valid packet arrived.
	Received Outcome = iota
	// TimedOut indicates no packet arrived within the wait window.
	TimedOut
	// CorruptRejected indicates a packet arrived but failed its checksum.
	CorruptRejected
)

// IO wraps one socket and performs single-packet send/receive operations.
// It does no buffering beyond one packet and performs no retries itself;
// retry policy lives in the transport engines.
type IO struct {
	conn        packetConn
	algo        packet.ChecksumAlgorithm
	recvTimeout time.Duration
}

// New wraps conn for packet-level send/receive using algo for checksums and
// timeout as the default per-wait window.
func New(conn packetConn, algo packet.ChecksumAlgorithm, timeout time.Duration) *IO {
	if timeout <= 0 {
		timeout = DefaultRecvTimeout
	}
	return &IO{conn: conn, algo: algo, recvTimeout: timeout}
}

// Send fills in the checksum and writes the MTU-byte image of p to addr.
// It returns the number of bytes written or a socket-level error, which is
// always fatal — there is no recovering from a broken local socket.
func (io *IO) Send(p *packet.Packet, addr net.Addr) (int, error) {
	return io.conn.WriteTo(p.Encode(io.algo), addr)
}

// Recv waits up to the configured timeout for one inbound datagram. A
// corrupt arrival is reported as CorruptRejected without consuming any
// further packets; a timer expiry is reported as TimedOut. Both are
// distinguishable from Received at the caller.
func (io *IO) Recv() (Outcome, *packet.Packet, net.Addr, error) {
	buf := make([]byte, packet.MTU)
	if err := io.conn.SetReadDeadline(time.Now().Add(io.recvTimeout)); err != nil {
		return TimedOut, nil, nil, err
	}

	n, addr, err := io.conn.ReadFrom(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return TimedOut, nil, nil, nil
		}
		return TimedOut, nil, nil, err
	}
	if n != packet.MTU {
		return CorruptRejected, nil, addr, nil
	}

	p, err := packet.Decode(buf, io.algo)
	if err != nil {
		return CorruptRejected, nil, addr, nil
	}
	return Received, p, addr, nil
}

// Close releases the underlying socket.
func (io *IO) Close() error {
	return io.conn.Close()
}
