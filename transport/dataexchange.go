package transport

import (
	"io"

	"github.com/rdtproto/rdt/datagram"
	"github.com/rdtproto/rdt/packet"
)

// Send delivers up to packet.MaxDataLength bytes of b reliably, blocking
// until the matching DATA_ACK arrives. Larger payloads are the caller's
// responsibility to split across multiple Send calls.
func (e *Endpoint) Send(b []byte) (int, error) {
	n := len(b)
	if n > packet.MaxDataLength {
		n = packet.MaxDataLength
	}

	seq := e.sendSeq
	dataPkt := packet.NewData(seq, b[:n])

	// Timeout, corruption, a wrong-seq DATA_ACK, or any other packet type
	// all provoke a retransmit here — unlike the handshake/teardown
	// exchanges, where only a timeout does.
	_, _, err := e.sendAndAwait(
		dataPkt,
		func(p *packet.Packet) bool { return p.Type == packet.DATAACK && p.Seq == seq },
		true,
	)
	if err != nil {
		return 0, err
	}

	e.sendSeq ^= 1
	return n, nil
}

// Receive delivers the next in-order payload into buf, returning the
// number of bytes written. It returns (0, io.EOF) if the peer's FIN
// arrives instead of data — an outcome that must be observably distinct
// from a successful delivery to the caller.
func (e *Endpoint) Receive(buf []byte) (int, error) {
	for {
		outcome, p, _, err := e.io.Recv()
		if err != nil {
			return 0, socketError("recv", err)
		}
		if outcome != datagram.Received {
			// Timeout or corruption: keep waiting for the next arrival.
			continue
		}

		switch p.Type {
		case packet.DATA:
			n, done, err := e.handleInboundData(p, buf)
			if err != nil {
				return 0, err
			}
			if done {
				return n, nil
			}
			// stale duplicate of the previously delivered packet: re-ACK
			// and keep waiting, without flipping recvSeq or delivering.
		case packet.FIN:
			if err := e.handlePassiveFin(p); err != nil {
				return 0, err
			}
			return 0, io.EOF
		default:
			// unexpected type in ESTABLISHED state: ignore, keep waiting.
		}
	}
}

// handleInboundData ACKs and delivers a fresh DATA packet; a DATA packet
// carrying the previous sequence bit is a stale retransmit whose ACK was
// lost, so it is re-ACKed but not redelivered.
func (e *Endpoint) handleInboundData(p *packet.Packet, buf []byte) (n int, done bool, err error) {
	switch p.Seq {
	case e.recvSeq:
		if err := e.send(packet.New(packet.DATAACK, e.recvSeq)); err != nil {
			return 0, false, err
		}
		n = copy(buf, p.Data[:p.DataLength])
		e.recvSeq ^= 1
		return n, true, nil
	case e.recvSeq ^ 1:
		if err := e.send(packet.New(packet.DATAACK, e.recvSeq^1)); err != nil {
			return 0, false, err
		}
		return 0, false, nil
	default:
		return 0, false, nil
	}
}
