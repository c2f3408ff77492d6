package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/rdtproto/rdt/packet"
	"github.com/rdtproto/rdt/transport"
)

var recvCmd = &cobra.Command{
	Use:   "recv <listen-addr> <output-dir>",
	Short: "Accept connections from any number of peers, writing each received file into output-dir",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, outDir := args[0], args[1]

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			log.WithError(err).Error("failed to create output directory")
			return err
		}

		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		listener, err := transport.Listen(listenAddr, cfg)
		if err != nil {
			log.WithError(err).Error("listen failed")
			return err
		}
		defer listener.Close()
		log.WithField("addr", listener.Addr().String()).Info("listening for connections")

		// A single rendezvous socket can only notice one peer's SYN at a
		// time, so each accepted connection is handed off to its own
		// socket and its own goroutine before the loop goes back to
		// Accept for the next peer.
		var wg sync.WaitGroup
		var sessionID int64
		for {
			conn, err := listener.Accept()
			if err != nil {
				log.WithError(err).Error("accept failed")
				wg.Wait()
				return err
			}

			id := atomic.AddInt64(&sessionID, 1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				receiveOne(conn, outDir, id)
			}()
		}
	},
}

// receiveOne drains one accepted connection to completion, writing its
// payload to a file scoped to the session, and never touches another
// session's socket or state.
func receiveOne(conn *transport.Endpoint, outDir string, id int64) {
	remote := conn.RemoteAddr().String()
	logger := log.WithField("remote", remote).WithField("session", id)
	logger.Info("connection established")

	outPath := filepath.Join(outDir, fmt.Sprintf("session-%d-%s.bin", id, sanitizeAddr(remote)))
	out, err := os.Create(outPath)
	if err != nil {
		logger.WithError(err).Error("failed to create output file")
		return
	}
	defer out.Close()

	buf := make([]byte, packet.MaxDataLength)
	var received int
	for {
		n, rerr := conn.Receive(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				logger.WithError(werr).Error("write failed")
				return
			}
			received += n
			logger.WithField("bytes", received).Debug("received chunk")
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			logger.WithError(rerr).Error("receive failed")
			return
		}
	}

	logger.WithField("bytes", received).WithField("file", outPath).Info("file received, connection closed")
}

// sanitizeAddr turns a net.Addr string like "127.0.0.1:54321" into
// something safe to embed in a filename.
func sanitizeAddr(addr string) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(addr)
}

func init() {
	rootCmd.AddCommand(recvCmd)
}
