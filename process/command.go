package process

import (
	"io"
	"time"
)

// Command describes one subprocess invocation.
type Command struct {
	// Binary is the executable, resolved via PATH when not absolute.
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. Empty uses the current directory.
	Dir string
	// Env is appended to the parent environment as key=value pairs.
	Env []string
	// Stdin is fed to the process when set.
	Stdin io.Reader
	// GracePeriod is the wait between SIGTERM and SIGKILL on cancellation.
	// Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	s := c.Binary
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}
