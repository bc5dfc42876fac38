//go:build !windows

package main

import (
	"os"
	"syscall"
)

var handledSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP, syscall.SIGUSR1}
