package transport

import (
	"fmt"
	"net"

	"github.com/rdtproto/rdt/packet"
)

// Connect performs the initiator side of the three-message handshake and
// returns an established Endpoint, or a fatal error.
func Connect(remoteAddr string, cfg Config) (*Endpoint, error) {
	addr, err := net.ResolveUDPAddr("udp4", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", remoteAddr, err)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, socketError("dial", err)
	}

	e := newEndpoint(conn, addr, cfg)
	e.state = StateSynSent

	synSeq := randomSequenceBit()
	e.sendSeq = synSeq

	synAck, fromAddr, err := e.sendAndAwait(
		packet.New(packet.SYN, synSeq),
		func(p *packet.Packet) bool { return p.Type == packet.SYNACK },
		false, // non-SYN_ACK or corruption is ignored, not retransmitted against
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	// The reply's source address becomes the session address — this lets
	// a Listener hand the session off to a fresh per-peer socket without
	// the initiator needing to know about it in advance.
	e.remote = fromAddr

	if err := e.send(packet.New(packet.ACK, synAck.Seq)); err != nil {
		conn.Close()
		return nil, err
	}

	// Both directions' alternating bit start from the same initial value
	// the handshake carried, tying the data-exchange sequence space to
	// the randomized SYN the way a TCP initial sequence number would.
	e.state = StateEstablished
	e.sendSeq = synSeq
	e.recvSeq = synSeq
	return e, nil
}

// Accept performs the responder side of the handshake directly on an
// already-bound socket. It blocks until some peer's SYN arrives, exchanges
// SYN_ACK/ACK with that peer, and returns the established Endpoint plus
// the peer's address.
//
// A single bound socket cannot distinguish a second peer's packets from
// the first's; Accept is therefore only correct when at most one peer
// ever dials this socket. A process serving multiple clients should use
// a Listener instead.
func Accept(conn net.PacketConn, cfg Config) (*Endpoint, net.Addr, error) {
	e := newEndpoint(conn, nil, cfg)

	syn, addr, err := e.awaitOnly(func(p *packet.Packet) bool { return p.Type == packet.SYN })
	if err != nil {
		return nil, nil, err
	}
	e.remote = addr

	ep, err := finishResponderHandshake(e, syn.Seq)
	if err != nil {
		return nil, nil, err
	}
	return ep, addr, nil
}

// finishResponderHandshake runs the SYN_ACK/ACK half of the responder
// handshake on an Endpoint that has already learned its peer's address
// and initial SYN sequence number (either by waiting directly, as Accept
// does, or because a Listener already read the SYN off its rendezvous
// socket and handed this Endpoint a fresh dedicated socket).
func finishResponderHandshake(e *Endpoint, synSeq uint32) (*Endpoint, error) {
	e.state = StateSynReceived
	synAckSeq := synSeq + 1

	_, _, err := e.sendAndAwait(
		packet.New(packet.SYNACK, synAckSeq),
		func(p *packet.Packet) bool { return p.Type == packet.ACK && p.Seq == synAckSeq },
		false, // unexpected type/corruption keeps waiting, only timeout retransmits SYN_ACK
	)
	if err != nil {
		return nil, err
	}

	e.state = StateEstablished
	e.sendSeq = synSeq
	e.recvSeq = synSeq
	return e, nil
}
