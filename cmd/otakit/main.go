package main

import (
	"os"

	"github.com/nebulapad/otakit/internal/cmd"
	"github.com/nebulapad/otakit/internal/config"
)

func main() {
	defer config.Cleanup()
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
