package daemon

import (
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess is a static ps.Process.
type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

// TestFindOtherInstance verifies the own process is ignored and peers are found.
func TestFindOtherInstance(t *testing.T) {
	t.Parallel()

	processes := []ps.Process{
		fakeProcess{pid: 10, name: "alarm-scheduler"},
		fakeProcess{pid: 11, name: "alarm-ctl"},
	}

	_, found := findOtherInstance(processes, 10, "alarm-scheduler")
	require.False(t, found)

	processes = append(processes, fakeProcess{pid: 12, name: "alarm-scheduler"})

	pid, found := findOtherInstance(processes, 10, "alarm-scheduler")
	require.True(t, found)
	require.Equal(t, 12, pid)
}
