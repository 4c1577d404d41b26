// Package daemon tracks a background `fixxy serve` process through a small
// JSON record on disk.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when a live process owns the file.
var ErrAlreadyRunning = errors.New("service already running")

// Record describes the running service.
type Record struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
}

// Uptime returns how long the service has been running as of now.
func (r Record) Uptime(now time.Time) time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(r.StartedAt).Truncate(time.Second)
}

// PIDFile manages the service record.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Acquire records the current process as the service listening on addr.
// A record left by a dead process is replaced.
func (p *PIDFile) Acquire(addr string) error {
	if rec, running := p.Status(); running && rec.PID != os.Getpid() {
		return fmt.Errorf("%w (pid %d on %s)", ErrAlreadyRunning, rec.PID, rec.Addr)
	}
	return p.Write(Record{PID: os.Getpid(), Addr: addr, StartedAt: time.Now().UTC()})
}

// Write stores rec, creating the parent directory.
func (p *PIDFile) Write(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(p.Path, append(data, '\n'), 0o644)
}

// Read loads the stored record.
func (p *PIDFile) Read() (Record, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("invalid PID file content: %w", err)
	}
	if rec.PID <= 0 {
		return Record{}, fmt.Errorf("invalid PID file content: pid %d", rec.PID)
	}
	return rec, nil
}

// Remove deletes the record. A missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Status reads the record and reports whether its process is alive.
func (p *PIDFile) Status() (Record, bool) {
	rec, err := p.Read()
	if err != nil {
		return Record{}, false
	}
	return rec, processAlive(rec.PID)
}
