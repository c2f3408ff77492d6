package transport

import "github.com/rdtproto/rdt/packet"

// Close performs the active-close side of the four-message teardown: send
// FIN, retransmit on timeout, and finish once FIN_ACK arrives. This is a
// simplified four-way close — the local side does not additionally wait
// for a peer FIN once its own FIN_ACK has arrived.
func (e *Endpoint) Close() error {
	if e.state == StateClosed {
		return nil
	}
	e.state = StateFinSent

	_, _, err := e.sendAndAwait(
		packet.New(packet.FIN, 0),
		func(p *packet.Packet) bool { return p.Type == packet.FINACK },
		false, // corruption/unexpected type just keeps waiting
	)
	closeErr := e.conn.Close()
	if err != nil {
		return err
	}
	e.state = StateClosed
	return socketError("close", closeErr)
}

// WaitClose performs the passive-close side of the teardown: wait for the
// peer's FIN, ACK it, and finish.
func (e *Endpoint) WaitClose() error {
	if e.state == StateClosed {
		return nil
	}

	fin, _, err := e.awaitOnly(func(p *packet.Packet) bool { return p.Type == packet.FIN })
	if err != nil {
		e.conn.Close()
		return err
	}
	return e.handlePassiveFin(fin)
}

// handlePassiveFin sends the FIN_ACK for a received FIN, transitions to
// CLOSED, and releases the socket. Shared by WaitClose and Receive, since
// Receive can also observe a FIN mid-call — either path fully completes
// the passive-close side of the teardown.
func (e *Endpoint) handlePassiveFin(fin *packet.Packet) error {
	e.state = StateCloseWait
	sendErr := e.send(packet.New(packet.FINACK, fin.Seq))
	closeErr := e.conn.Close()
	e.state = StateClosed
	if sendErr != nil {
		return sendErr
	}
	return socketError("close", closeErr)
}
