// Command cyberweaver manages the local diagram node store.
package main

import (
	"os"

	"github.com/nkanf-dev/CyberWeaver/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
