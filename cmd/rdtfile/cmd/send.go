package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rdtproto/rdt/packet"
	"github.com/rdtproto/rdt/transport"
)

var sendCmd = &cobra.Command{
	Use:   "send <host:port> <file>",
	Short: "Connect to a listening peer and send one file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remoteAddr, filename := args[0], args[1]

		f, err := os.Open(filename)
		if err != nil {
			log.WithError(err).Error("failed to open file")
			return err
		}
		defer f.Close()

		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		conn, err := transport.Connect(remoteAddr, cfg)
		if err != nil {
			log.WithError(err).Error("connect failed")
			return err
		}
		log.WithField("remote", remoteAddr).Info("connection established")

		buf := make([]byte, packet.MaxDataLength)
		var sent int
		for {
			n, rerr := f.Read(buf)
			if n > 0 {
				if _, werr := conn.Send(buf[:n]); werr != nil {
					log.WithError(werr).Error("send failed")
					return werr
				}
				sent += n
				log.WithField("bytes", sent).Debug("sent chunk")
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return rerr
			}
		}

		if err := conn.Close(); err != nil {
			log.WithError(err).Error("close failed")
			return err
		}
		log.WithField("bytes", sent).Info("file sent, connection closed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
