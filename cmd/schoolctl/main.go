package main

import (
	"os"

	"school-sos-go/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()
	if err := newRootCommand(log).Execute(); err != nil {
		os.Exit(1)
	}
}
