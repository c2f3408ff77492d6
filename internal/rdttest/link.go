// Package rdttest provides an in-memory, fault-injecting stand-in for a
// pair of connected UDP sockets. It satisfies the same minimal interface
// the datagram and transport packages use against *net.UDPConn, so tests
// can deterministically drop, corrupt, duplicate, or reorder packets
// instead of relying on real network timing.
package rdttest

import (
	"errors"
	"net"
	"sync"
	"time"
)

// Addr is a trivial net.Addr used to label each end of a Link.
type Addr string

func (a Addr) Network() string { return "rdttest" }
func (a Addr) String() string  { return string(a) }

// Transform rewrites or drops one outbound datagram. Returning nil drops
// it; returning multiple slices delivers multiple copies (duplication);
// mutating the returned bytes simulates corruption.
type Transform func(seq int, b []byte) [][]byte

func passthrough(_ int, b []byte) [][]byte {
	cp := append([]byte(nil), b...)
	return [][]byte{cp}
}

// Conn is one endpoint of a Link.
type Conn struct {
	addr Addr
	peer *Conn
	in   chan []byte

	mu        sync.Mutex
	deadline  time.Time
	closed    bool
	transform Transform
	seq       int
}

// NewLink creates two Conns wired to each other: writes on one arrive as
// reads on the other, after passing through that writer's Transform.
func NewLink(addrA, addrB Addr) (a, b *Conn) {
	a = &Conn{addr: addrA, in: make(chan []byte, 64), transform: passthrough}
	b = &Conn{addr: addrB, in: make(chan []byte, 64), transform: passthrough}
	a.peer, b.peer = b, a
	return a, b
}

// SetTransform installs f as the transform applied to every subsequent
// WriteTo on this Conn. Pass nil to restore plain passthrough delivery.
func (c *Conn) SetTransform(f Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f == nil {
		f = passthrough
	}
	c.transform = f
}

func (c *Conn) WriteTo(b []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, errors.New("rdttest: write on closed conn")
	}
	f := c.transform
	seq := c.seq
	c.seq++
	c.mu.Unlock()

	c.peer.mu.Lock()
	defer c.peer.mu.Unlock()
	if c.peer.closed {
		// a datagram sent to a closed socket is simply lost.
		return len(b), nil
	}
	for _, cp := range f(seq, b) {
		select {
		case c.peer.in <- cp:
		default:
			// peer's inbox is full; dropping is an acceptable simulation
			// of substrate loss under a slow reader.
		}
	}
	return len(b), nil
}

var errTimeout = &net.OpError{Op: "read", Err: errTimeoutErr{}}

type errTimeoutErr struct{}

func (errTimeoutErr) Error() string   { return "rdttest: i/o timeout" }
func (errTimeoutErr) Timeout() bool   { return true }
func (errTimeoutErr) Temporary() bool { return true }

func (c *Conn) ReadFrom(b []byte) (int, net.Addr, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var timer *time.Timer
	var after <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return 0, nil, errTimeout
		}
		timer = time.NewTimer(d)
		after = timer.C
		defer timer.Stop()
	}

	select {
	case data, ok := <-c.in:
		if !ok {
			return 0, nil, errors.New("rdttest: read on closed conn")
		}
		n := copy(b, data)
		return n, c.peer.addr, nil
	case <-after:
		return 0, nil, errTimeout
	}
}

// LocalAddr, SetDeadline and SetWriteDeadline round out net.PacketConn so
// a *Conn can stand in for a real *net.UDPConn in transport-level tests.
func (c *Conn) LocalAddr() net.Addr { return c.addr }

func (c *Conn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

func (c *Conn) SetWriteDeadline(time.Time) error { return nil }

func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.in)
	return nil
}

// DropNth returns a Transform that drops only the (n-th, zero-indexed)
// packet written through it and passes everything else through unchanged.
func DropNth(n int) Transform {
	return func(seq int, b []byte) [][]byte {
		if seq == n {
			return nil
		}
		return passthrough(seq, b)
	}
}

// CorruptNth returns a Transform that flips the low bit of the byte at
// byteOffset in the (n-th, zero-indexed) packet written through it,
// simulating transit corruption without changing the datagram's length.
// An offset of packet.HeaderSize or more lands in the data area.
func CorruptNth(n, byteOffset int) Transform {
	return func(seq int, b []byte) [][]byte {
		cp := append([]byte(nil), b...)
		if seq == n && byteOffset < len(cp) {
			cp[byteOffset] ^= 0x01
		}
		return [][]byte{cp}
	}
}

// DuplicateNth returns a Transform that delivers two copies of the (n-th,
// zero-indexed) packet written through it.
func DuplicateNth(n int) Transform {
	return func(seq int, b []byte) [][]byte {
		cp := append([]byte(nil), b...)
		if seq == n {
			return [][]byte{cp, append([]byte(nil), cp...)}
		}
		return [][]byte{cp}
	}
}
