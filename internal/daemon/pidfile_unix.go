//go:build !windows

package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// processAlive sends signal 0, which checks existence only. EPERM means
// the process exists but belongs to another user.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Signal sends sig to the recorded process.
func (p *PIDFile) Signal(sig syscall.Signal) error {
	rec, err := p.Read()
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}
	return syscall.Kill(rec.PID, sig)
}

// Terminate asks the recorded process to shut down.
func (p *PIDFile) Terminate() error { return p.Signal(syscall.SIGTERM) }

// Kill stops the recorded process immediately.
func (p *PIDFile) Kill() error { return p.Signal(syscall.SIGKILL) }

// Detach makes cmd lead its own session so it outlives the terminal that started it.
func Detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// ShutdownSignals are the signals a foreground service stops on.
func ShutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
