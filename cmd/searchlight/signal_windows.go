// SPDX-License-Identifier: MIT

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals registers OS signal handlers for cancelling a run.
// On Windows, only os.Interrupt is supported.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
