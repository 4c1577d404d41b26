package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/fixxy/internal/daemon"
)

func TestPidFile_Path(t *testing.T) {
	dir := testEnv(t)

	pf := pidFile()
	expected := filepath.Join(dir, "fixxy-serve.pid")
	assert.Equal(t, expected, pf.Path)
}

func TestServeLogPath(t *testing.T) {
	dir := testEnv(t)

	logPath := serveLogPath()
	expected := filepath.Join(dir, "fixxy-serve.log")
	assert.Equal(t, expected, logPath)
}

func TestServeStatusRun_NotRunning(t *testing.T) {
	testEnv(t)

	var buf bytes.Buffer
	ui.Out = &buf

	// No PID file exists, so status should show "not running" without error.
	require.NoError(t, serveStatusRun())
	assert.Contains(t, buf.String(), "not running")
}

func TestServeStatusRun_Running(t *testing.T) {
	dir := testEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	addr := strings.TrimPrefix(srv.URL, "http://")

	pf := daemon.NewPIDFile(filepath.Join(dir, "fixxy-serve.pid"))
	require.NoError(t, pf.Write(daemon.Record{PID: os.Getpid(), Addr: addr, StartedAt: time.Now().Add(-time.Minute)}))

	var buf bytes.Buffer
	ui.Out = &buf

	require.NoError(t, serveStatusRun())
	assert.Contains(t, buf.String(), srv.URL)
	assert.Contains(t, buf.String(), "ok")
}

func TestServeStopRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so stop should return an error.
	err := serveStopRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestServeStopRun_RemovesStaleRecord(t *testing.T) {
	dir := testEnv(t)

	pf := daemon.NewPIDFile(filepath.Join(dir, "fixxy-serve.pid"))
	require.NoError(t, os.WriteFile(pf.Path, []byte("garbage"), 0644))

	err := serveStopRun()
	require.Error(t, err)
	_, statErr := os.Stat(pf.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestServeStartRun_AlreadyRunning(t *testing.T) {
	dir := testEnv(t)

	// Write a PID file for the current process (which is alive).
	pf := daemon.NewPIDFile(filepath.Join(dir, "fixxy-serve.pid"))
	require.NoError(t, pf.Write(daemon.Record{PID: os.Getpid(), Addr: ":8000"}))

	err := serveStartRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServeStartRun_DryRun(t *testing.T) {
	dir := testEnv(t)
	dryRun = true
	defer func() { dryRun = false }()

	var buf bytes.Buffer
	ui.ErrOut = &buf
	ui.DryRun = true

	require.NoError(t, serveStartRun())
	assert.Contains(t, buf.String(), "--port 8000")

	_, err := os.Stat(filepath.Join(dir, "fixxy-serve.pid"))
	assert.True(t, os.IsNotExist(err), "dry run must not record a process")
}

func TestProbeURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/", probeURL(":8000"))
	assert.Equal(t, "http://127.0.0.1:9000/", probeURL("127.0.0.1:9000"))
}
