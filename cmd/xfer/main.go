package main

import (
	"github.com/input-output-hk/catalyst-forge-libs/transfer/cmd/xfer/cmd"
)

func main() {
	cmd.Execute()
}
