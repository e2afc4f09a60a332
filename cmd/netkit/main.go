package main

import (
	"os"

	"github.com/samvad-hq/samvad-netkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
