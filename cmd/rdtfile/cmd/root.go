package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rdtproto/rdt/packet"
	"github.com/rdtproto/rdt/transport"
)

var (
	recvTimeout    time.Duration
	checksumName   string
	maxRetransmits int
	logLevel       string

	log = logrus.New()
)

// rootCmd is the base command for rdtfile: "send" pushes one file to a
// listening peer, "recv" runs a server that accepts any number of peers
// concurrently and writes each one's file to its own session file.
var rootCmd = &cobra.Command{
	Use:   "rdtfile",
	Short: "Send or receive files over the reliable datagram transport",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&recvTimeout, "recv-timeout", 1*time.Second, "per-wait timeout driving retransmission")
	rootCmd.PersistentFlags().StringVar(&checksumName, "checksum", "fletcher16", "checksum algorithm: fletcher16 or additive")
	rootCmd.PersistentFlags().IntVar(&maxRetransmits, "max-retransmits", 0, "retransmit cap before giving up (0 = unbounded)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func resolveConfig() (transport.Config, error) {
	cfg := transport.DefaultConfig()
	cfg.RecvTimeout = recvTimeout
	cfg.MaxRetransmits = maxRetransmits

	switch checksumName {
	case "fletcher16", "":
		cfg.ChecksumAlgorithm = packet.Fletcher16{}
	case "additive":
		cfg.ChecksumAlgorithm = packet.Additive{}
	default:
		return cfg, errUnknownChecksum(checksumName)
	}
	return cfg, nil
}

type errUnknownChecksum string

func (e errUnknownChecksum) Error() string {
	return "unknown --checksum value: " + string(e)
}
