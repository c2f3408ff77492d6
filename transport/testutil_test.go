package transport

import (
	"time"

	"github.com/rdtproto/rdt/internal/rdttest"
)

// testConfig returns a Config tuned for fast, deterministic tests: a short
// recv timeout so retransmission scenarios don't make the suite slow.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RecvTimeout = 20 * time.Millisecond
	return cfg
}

// newEstablishedPair wires two Endpoints directly to each other over an
// in-memory rdttest.Link, already in ESTABLISHED state with matching
// sequence bits, bypassing the handshake so data-exchange and teardown
// tests can focus on their own logic. The underlying link's Conns are
// returned so tests can install loss/corruption/duplication transforms.
func newEstablishedPair(cfg Config) (alpha, beta *Endpoint, linkA, linkB *rdttest.Conn) {
	linkA, linkB = rdttest.NewLink("alpha", "beta")
	alpha = newEndpoint(linkA, rdttest.Addr("beta"), cfg)
	beta = newEndpoint(linkB, rdttest.Addr("alpha"), cfg)
	alpha.state, beta.state = StateEstablished, StateEstablished
	return alpha, beta, linkA, linkB
}
