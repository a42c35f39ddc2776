//go:build unix

package main

import (
	"os"
	ossignal "os/signal"
	"syscall"
)

// notifyForceExit routes SIGUSR1 to ch; each one force-exits every open position.
func notifyForceExit(ch chan<- os.Signal) {
	ossignal.Notify(ch, syscall.SIGUSR1)
}
