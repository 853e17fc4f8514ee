package main

import (
	"os"

	"github.com/cdf-forge/cdfx/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
