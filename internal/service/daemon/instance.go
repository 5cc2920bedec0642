package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another scheduler process owns the timers.
var ErrAlreadyRunning = errors.New("another scheduler instance is running")

// ensureSingleInstance fails when another process runs the same executable.
// Two schedulers would arm two timers for the same alarms.
func ensureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if pid, found := findOtherInstance(processList, os.Getpid(), filepath.Base(executable)); found {
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pid)
	}

	return nil
}

// findOtherInstance returns the PID of a process named name other than self.
func findOtherInstance(processList []ps.Process, self int, name string) (int, bool) {
	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if process.Executable() == name {
			return process.Pid(), true
		}
	}

	return 0, false
}
