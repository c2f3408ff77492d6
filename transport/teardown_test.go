package transport

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rdtproto/rdt/internal/rdttest"
	"github.com/rdtproto/rdt/packet"
)

type TeardownTestSuite struct {
	suite.Suite
}

func TestTeardown(t *testing.T) {
	suite.Run(t, new(TeardownTestSuite))
}

// TestActiveCloseWaitCloseHappyPath has one side call Close and the other
// call WaitClose, and confirms both land in CLOSED.
func (suite *TeardownTestSuite) TestActiveCloseWaitCloseHappyPath() {
	cfg := testConfig()
	alpha, beta, _, _ := newEstablishedPair(cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	var closeErr, waitErr error
	go func() { defer wg.Done(); closeErr = alpha.Close() }()
	go func() { defer wg.Done(); waitErr = beta.WaitClose() }()
	wg.Wait()

	suite.Require().NoError(closeErr)
	suite.Require().NoError(waitErr)
	suite.Equal(StateClosed, alpha.State())
	suite.Equal(StateClosed, beta.State())
}

// TestFinRetransmitsOnTimeout drops the first FIN so the active closer
// must retransmit FIN before the passive side's WaitClose ever gets to
// observe it.
func (suite *TeardownTestSuite) TestFinRetransmitsOnTimeout() {
	cfg := testConfig()
	alpha, beta, linkA, _ := newEstablishedPair(cfg)
	linkA.SetTransform(rdttest.DropNth(0)) // drops alpha's first FIN

	var wg sync.WaitGroup
	wg.Add(2)
	var closeErr, waitErr error
	go func() { defer wg.Done(); closeErr = alpha.Close() }()
	go func() { defer wg.Done(); waitErr = beta.WaitClose() }()
	wg.Wait()

	suite.Require().NoError(closeErr)
	suite.Require().NoError(waitErr)
	suite.Equal(StateClosed, alpha.State())
	suite.Equal(StateClosed, beta.State())
}

// TestReceiveObservesFinAndReturnsEOF checks that a Receive call which
// observes the peer's FIN mid-call returns io.EOF rather than a successful
// delivery, and still completes the passive side of the teardown.
func (suite *TeardownTestSuite) TestReceiveObservesFinAndReturnsEOF() {
	cfg := testConfig()
	alpha, beta, _, _ := newEstablishedPair(cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	var closeErr error
	go func() { defer wg.Done(); closeErr = alpha.Close() }()

	buf := make([]byte, packet.MaxDataLength)
	var n int
	var recvErr error
	go func() { defer wg.Done(); n, recvErr = beta.Receive(buf) }()
	wg.Wait()

	suite.Require().NoError(closeErr)
	suite.ErrorIs(recvErr, io.EOF)
	suite.Equal(0, n)
	suite.Equal(StateClosed, beta.State())
	suite.Equal(StateClosed, alpha.State())
}
