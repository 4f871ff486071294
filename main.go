package main

import (
	"os"

	"github.com/dmeffert/assetpipe/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
