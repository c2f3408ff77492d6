// Command rdtfile is a file-transfer demo built on the transport package:
// a client that sends one file and a server that accepts any number of
// peers concurrently, exercising the public
// Connect/Listen/Listener.Accept/Send/Receive/Close API end to end.
package main

import (
	"os"

	"github.com/rdtproto/rdt/cmd/rdtfile/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
