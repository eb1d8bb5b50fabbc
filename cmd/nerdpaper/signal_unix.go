//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// signalChannel returns a channel that receives SIGINT and SIGTERM, which
// stop a watch session or cut a long run short between wallpapers.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
