//go:build unix

package cli

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyToggle relays SIGUSR1, which pauses or resumes capture.
func notifyToggle(c chan<- os.Signal) {
	signal.Notify(c, syscall.SIGUSR1)
}
