package transport

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rdtproto/rdt/internal/rdttest"
	"github.com/rdtproto/rdt/packet"
)

type DataExchangeTestSuite struct {
	suite.Suite
}

func TestDataExchange(t *testing.T) {
	suite.Run(t, new(DataExchangeTestSuite))
}

func (suite *DataExchangeTestSuite) TestHappyPathBothDirections() {
	cfg := testConfig()
	alpha, beta, _, _ := newEstablishedPair(cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	var aliceN int
	var aliceErr error
	go func() {
		defer wg.Done()
		aliceN, aliceErr = alpha.Send([]byte("Hello from Client\x00"))
	}()

	buf := make([]byte, packet.MaxDataLength)
	var betaN int
	var betaErr error
	go func() {
		defer wg.Done()
		betaN, betaErr = beta.Receive(buf)
	}()
	wg.Wait()

	suite.Require().NoError(aliceErr)
	suite.Require().NoError(betaErr)
	suite.Equal(aliceN, betaN)
	suite.Equal("Hello from Client\x00", string(buf[:betaN]))
	// the alternating bit flips exactly once per delivered message on
	// both sides, so sender and receiver stay in lockstep after the
	// exchange.
	suite.Equal(alpha.sendSeq, beta.recvSeq)

	// and back the other way: beta sends, alpha receives.
	wg.Add(2)
	var serverN, clientN int
	var serverErr, clientErr error
	go func() {
		defer wg.Done()
		serverN, serverErr = beta.Send([]byte("Hello from Server\x00"))
	}()
	go func() {
		defer wg.Done()
		clientN, clientErr = alpha.Receive(buf)
	}()
	wg.Wait()

	suite.Require().NoError(serverErr)
	suite.Require().NoError(clientErr)
	suite.Equal(serverN, clientN)
	suite.Equal("Hello from Server\x00", string(buf[:clientN]))
	suite.Equal(beta.sendSeq, alpha.recvSeq)
}

// TestDataAckLossNotRedelivered drops the DATA_ACK for seq 0; the sender
// retransmits, and the receiver must not deliver "A" a second time.
func (suite *DataExchangeTestSuite) TestDataAckLossNotRedelivered() {
	cfg := testConfig()
	alpha, beta, _, linkB := newEstablishedPair(cfg)
	linkB.SetTransform(rdttest.DropNth(0)) // drops beta's first outbound DATA_ACK

	var wg sync.WaitGroup
	wg.Add(2)
	var sendErr error
	go func() {
		defer wg.Done()
		if _, sendErr = alpha.Send([]byte("A")); sendErr != nil {
			return
		}
		// beta only re-ACKs the retransmitted DATA while it is inside a
		// Receive call; closing ends that call with io.EOF.
		sendErr = alpha.Close()
	}()

	var deliveries [][]byte
	var mu sync.Mutex
	go func() {
		defer wg.Done()
		buf := make([]byte, packet.MaxDataLength)
		for {
			n, err := beta.Receive(buf)
			if err == io.EOF {
				return
			}
			suite.Require().NoError(err)
			mu.Lock()
			deliveries = append(deliveries, append([]byte(nil), buf[:n]...))
			mu.Unlock()
		}
	}()
	wg.Wait()

	suite.Require().NoError(sendErr)
	suite.Len(deliveries, 1)
	suite.Equal("A", string(deliveries[0]))
}

// TestCorruptedPayloadRetransmits flips a single data byte in transit; the
// receiver rejects the packet via checksum, the sender retransmits, and
// delivery eventually succeeds.
func (suite *DataExchangeTestSuite) TestCorruptedPayloadRetransmits() {
	cfg := testConfig()
	alpha, beta, linkA, _ := newEstablishedPair(cfg)
	linkA.SetTransform(rdttest.CorruptNth(0, packet.HeaderSize+2))

	var wg sync.WaitGroup
	wg.Add(2)
	var sendErr error
	go func() {
		defer wg.Done()
		_, sendErr = alpha.Send([]byte("X"))
	}()

	var recvN int
	var recvErr error
	buf := make([]byte, packet.MaxDataLength)
	go func() {
		defer wg.Done()
		recvN, recvErr = beta.Receive(buf)
	}()
	wg.Wait()

	suite.Require().NoError(sendErr)
	suite.Require().NoError(recvErr)
	suite.Equal("X", string(buf[:recvN]))
}

// TestStaleDuplicateDoesNotAdvanceOrRedeliver replays a stale copy of the
// immediately-preceding DATA packet while the receiver is still expecting
// its successor: the receiver must re-ACK the prior delivered sequence
// and must not deliver the payload a second time.
func (suite *DataExchangeTestSuite) TestStaleDuplicateDoesNotAdvanceOrRedeliver() {
	cfg := testConfig()
	alpha, beta, _, _ := newEstablishedPair(cfg)

	// Deliver "first" as seq 0, which advances beta.recvSeq to 1.
	buf := make([]byte, packet.MaxDataLength)
	var n int
	{
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = alpha.Send([]byte("first")) }()
		go func() { defer wg.Done(); n, _ = beta.Receive(buf) }()
		wg.Wait()
		suite.Equal("first", string(buf[:n]))
	}

	// While beta.recvSeq == 1, replay a stale duplicate of the seq=0 packet
	// it just delivered, the way a retransmit fires when the original
	// DATA_ACK never reached alpha. This is the one generation of staleness
	// the alternating bit can actually distinguish; a duplicate any older
	// than the immediately-preceding packet is indistinguishable from a
	// fresh one and is out of scope for this scheme.
	stale := packet.NewData(0, []byte("first"))
	err := alpha.send(stale)
	suite.Require().NoError(err)

	// beta must re-ACK seq 0 (the prior delivered sequence) without
	// delivering "first" again; drive one more real exchange to observe
	// that beta's expectation did not advance past the stale replay.
	var wg sync.WaitGroup
	wg.Add(2)
	var sendErr, recvErr error
	go func() { defer wg.Done(); _, sendErr = alpha.Send([]byte("second")) }()
	go func() { defer wg.Done(); n, recvErr = beta.Receive(buf) }()
	wg.Wait()

	suite.Require().NoError(sendErr)
	suite.Require().NoError(recvErr)
	suite.Equal("second", string(buf[:n]))
}
