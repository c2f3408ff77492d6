package transport

import (
	"crypto/rand"
	"net"

	"github.com/rdtproto/rdt/datagram"
	"github.com/rdtproto/rdt/packet"
)

// Endpoint is the local half of one connection: it owns exactly one
// socket and one state machine, with no state shared between endpoints.
type Endpoint struct {
	conn   net.PacketConn
	io     *datagram.IO
	remote net.Addr
	cfg    Config

	state   State
	sendSeq uint32 // next outbound DATA sequence bit, 0 or 1
	recvSeq uint32 // next expected inbound DATA sequence bit, 0 or 1
}

// RemoteAddr returns the peer address this endpoint is bound to.
func (e *Endpoint) RemoteAddr() net.Addr { return e.remote }

// State returns the endpoint's current position in the connection state
// machine; exposed for diagnostics and tests, not part of the operational
// API applications drive.
func (e *Endpoint) State() State { return e.state }

func newEndpoint(conn net.PacketConn, remote net.Addr, cfg Config) *Endpoint {
	cfg = cfg.withDefaults()
	return &Endpoint{
		conn:   conn,
		io:     datagram.New(conn, cfg.ChecksumAlgorithm, cfg.RecvTimeout),
		remote: remote,
		cfg:    cfg,
	}
}

// randomSequenceBit draws a random 0/1 per connection for the initiator's
// SYN, mirroring how a TCP initial sequence number is chosen rather than
// starting every connection at a fixed value. The choice is unobservable
// to the application.
func randomSequenceBit() uint32 {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return uint32(b[0] & 1)
}

func (e *Endpoint) send(p *packet.Packet) error {
	_, err := e.io.Send(p, e.remote)
	return socketError("send", err)
}

// sendAndAwait transmits `out`, then waits for a packet for which `match`
// returns true, returning that packet and the address it arrived from.
//
// On timeout, `out` is always retransmitted (bounded by cfg.MaxRetransmits
// when configured). On a corrupt or non-matching arrival, the call either
// retransmits `out` and keeps waiting (retransmitOnMismatch == true) or
// silently keeps waiting without retransmitting (false) — the handshake
// and teardown exchanges use the latter, the data-exchange send loop the
// former.
func (e *Endpoint) sendAndAwait(out *packet.Packet, match func(*packet.Packet) bool, retransmitOnMismatch bool) (*packet.Packet, net.Addr, error) {
	if err := e.send(out); err != nil {
		return nil, nil, err
	}

	retries := 0
	retransmit := func() error {
		retries++
		if e.cfg.MaxRetransmits > 0 && retries > e.cfg.MaxRetransmits {
			return ErrPeerUnreachable
		}
		return e.send(out)
	}

	for {
		outcome, p, addr, err := e.io.Recv()
		if err != nil {
			return nil, nil, socketError("recv", err)
		}
		switch outcome {
		case datagram.TimedOut:
			if err := retransmit(); err != nil {
				return nil, nil, err
			}
		case datagram.CorruptRejected:
			if retransmitOnMismatch {
				if err := retransmit(); err != nil {
					return nil, nil, err
				}
			}
		case datagram.Received:
			if match(p) {
				return p, addr, nil
			}
			if retransmitOnMismatch {
				if err := retransmit(); err != nil {
					return nil, nil, err
				}
			}
		}
	}
}

// awaitOnly waits for a packet matching `match`, without ever sending
// anything itself. Used by the passive sides of the handshake and
// teardown (accept's step 1, wait_close), which only react.
func (e *Endpoint) awaitOnly(match func(*packet.Packet) bool) (*packet.Packet, net.Addr, error) {
	for {
		outcome, p, addr, err := e.io.Recv()
		if err != nil {
			return nil, nil, socketError("recv", err)
		}
		if outcome == datagram.Received && match(p) {
			return p, addr, nil
		}
	}
}
