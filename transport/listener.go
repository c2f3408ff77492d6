package transport

import (
	"net"

	"github.com/rdtproto/rdt/datagram"
	"github.com/rdtproto/rdt/packet"
)

// Listener is the multi-client front door: it owns one rendezvous socket
// used only to notice inbound SYNs, and hands each accepted connection off
// to its own freshly dialed socket, since a single bound socket cannot
// demultiplex more than one peer.
type Listener struct {
	conn       net.PacketConn
	rendezvous *datagram.IO
	cfg        Config
}

// Listen binds a rendezvous socket at localAddr (e.g. ":9000") and returns
// a Listener ready to Accept connections from any number of peers.
func Listen(localAddr string, cfg Config) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp4", localAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, socketError("listen", err)
	}
	cfg = cfg.withDefaults()
	return &Listener{
		conn:       conn,
		rendezvous: datagram.New(conn, cfg.ChecksumAlgorithm, cfg.RecvTimeout),
		cfg:        cfg,
	}, nil
}

// Close releases the rendezvous socket. Connections already handed out by
// Accept own their own sockets and are unaffected.
func (l *Listener) Close() error {
	return socketError("close", l.conn.Close())
}

// Addr returns the rendezvous socket's local address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Accept blocks until a peer's SYN arrives on the rendezvous socket, dials
// it a dedicated socket, finishes the responder handshake there, and
// returns the established Endpoint. Concurrent peers are served by calling
// Accept from one goroutine and running each returned Endpoint's data
// exchange and teardown on its own goroutine — one worker per accepted
// connection.
func (l *Listener) Accept() (*Endpoint, error) {
	for {
		outcome, p, addr, err := l.rendezvous.Recv()
		if err != nil {
			return nil, socketError("recv", err)
		}
		if outcome != datagram.Received || p.Type != packet.SYN {
			continue
		}

		conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
		if err != nil {
			return nil, socketError("dial", err)
		}

		e := newEndpoint(conn, addr, l.cfg)
		ep, err := finishResponderHandshake(e, p.Seq)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return ep, nil
	}
}
