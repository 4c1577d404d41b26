//go:build windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Signal sends sig to the recorded process. Only os.Kill is reliable on
// Windows.
func (p *PIDFile) Signal(sig syscall.Signal) error {
	rec, err := p.Read()
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}
	proc, err := os.FindProcess(rec.PID)
	if err != nil {
		return fmt.Errorf("find process %d: %w", rec.PID, err)
	}
	return proc.Signal(sig)
}

// Terminate stops the recorded process. Windows has no polite variant.
func (p *PIDFile) Terminate() error { return p.Kill() }

// Kill stops the recorded process immediately.
func (p *PIDFile) Kill() error { return p.Signal(syscall.SIGKILL) }

// Detach is a no-op; Windows has no session to leave.
func Detach(_ *exec.Cmd) {}

// ShutdownSignals are the signals a foreground service stops on.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
