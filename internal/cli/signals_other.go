//go:build !unix

package cli

import "os"

func notifyToggle(c chan<- os.Signal) {}
