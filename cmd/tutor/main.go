package main

import (
	"os"

	"github.com/comigor/tutor-go/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.L.Error("command failed", "error", err)
		os.Exit(1)
	}
}
