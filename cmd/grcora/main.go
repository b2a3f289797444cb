package main

import (
	"os"

	"github.com/zeegglar/GRCora-sub003/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
