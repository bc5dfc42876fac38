package main

import (
	"os"
	"syscall"
)

var handledSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}
