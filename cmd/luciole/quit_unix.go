//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// registerQuitHandler makes SIGQUIT (ctrl+\) a hard exit: renders in
// progress are abandoned and the journal is not flushed.
func registerQuitHandler() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGQUIT)
	go func() {
		sig := <-quit
		fmt.Fprintf(os.Stderr, "luciole: %v, exiting without flushing the journal\n", sig)
		os.Exit(2)
	}()
}
