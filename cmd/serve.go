package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/joescharf/fixxy/internal/api"
	"github.com/joescharf/fixxy/internal/daemon"
	"github.com/joescharf/fixxy/internal/llm"
	"github.com/joescharf/fixxy/internal/output"
)

const (
	shutdownTimeout = 10 * time.Second
	stopTimeout     = 5 * time.Second
	probeTimeout    = 2 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inference service",
	Long: `Run the inference service the chat talks to, in the foreground.

POST /ask answers Explain, Solve, Debug and TestCases requests through the
configured model provider (llm.provider). The question catalog is served
under /api/v1/sets and Prometheus metrics under /metrics.

Use 'fixxy serve start' to run it in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the service in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background service is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.PersistentFlags().IntP("port", "p", 0, "Port to listen on (default serve.port)")
	_ = viper.BindPFlag("serve.port", serveCmd.PersistentFlags().Lookup("port"))

	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

// pidFile returns the record of the background service.
func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "fixxy-serve.pid"))
}

// serveLogPath returns where the background service writes its log.
func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "fixxy-serve.log")
}

func listenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// probeURL turns a listen address into a URL reachable from this host.
func probeURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

// httpClient returns the client used for calls to the inference service.
func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func serveRun(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer closer.Close()

	completer, err := newCompleter(cfg)
	if err != nil {
		return err
	}
	src, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	if dataStore != nil {
		defer dataStore.Close()
	}

	srv := api.NewServer(llm.NewTutor(completer, log), src,
		api.WithRateLimit(cfg.Serve.RateLimit, cfg.Serve.Burst),
		api.WithLogger(log),
	)

	addr := listenAddr(cfg.Serve.Port)
	pf := pidFile()
	if err := pf.Acquire(addr); err != nil {
		return err
	}
	defer func() {
		if err := pf.Remove(); err != nil {
			log.Warn().Err(err).Msg("remove pid file")
		}
	}()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, daemon.ShutdownSignals()...)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", addr).
			Str("provider", cfg.LLM.Provider).
			Str("catalog", cfg.Catalog.Backend).
			Msg("inference service listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func serveStartRun() error {
	pf := pidFile()
	if rec, running := pf.Status(); running {
		return fmt.Errorf("server already running (pid %d on %s)", rec.PID, rec.Addr)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	port := viper.GetInt("serve.port")
	args := []string{"serve", "--port", strconv.Itoa(port)}
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}

	logPath := serveLogPath()
	if dryRun {
		ui.DryRunMsg("Would run %s %s (log: %s)", exe, strings.Join(args, " "), logPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	daemon.Detach(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	addr := listenAddr(port)
	rec := daemon.Record{PID: child.Process.Pid, Addr: addr, StartedAt: time.Now().UTC()}
	if err := pf.Write(rec); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	_ = child.Process.Release()

	ui.Success("Server started (pid %d) on %s", rec.PID, probeURL(addr))
	ui.Info("Log: %s", logPath)
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	rec, running := pf.Status()
	if !running {
		_ = pf.Remove()
		return fmt.Errorf("server is not running")
	}

	if dryRun {
		ui.DryRunMsg("Would stop server (pid %d)", rec.PID)
		return nil
	}

	if err := pf.Terminate(); err != nil {
		return fmt.Errorf("signal server: %w", err)
	}

	deadline := time.Now().Add(stopTimeout)
	for time.Now().Before(deadline) {
		if _, alive := pf.Status(); !alive {
			_ = pf.Remove()
			ui.Success("Server stopped (pid %d)", rec.PID)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	ui.Warning("Server did not exit within %s, killing it", stopTimeout)
	if err := pf.Kill(); err != nil {
		return fmt.Errorf("kill server: %w", err)
	}
	if err := pf.Remove(); err != nil {
		return fmt.Errorf("remove PID file: %w", err)
	}
	ui.Success("Server killed (pid %d)", rec.PID)
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	rec, running := pf.Status()
	if !running {
		ui.Info("Server is not running")
		return nil
	}

	table := ui.Table([]string{"PID", "URL", "UPTIME", "HEALTH"})
	_ = table.Append([]string{
		strconv.Itoa(rec.PID),
		probeURL(rec.Addr),
		rec.Uptime(time.Now()).String(),
		probeHealth(rec.Addr),
	})
	return table.Render()
}

// probeHealth reports whether GET / answers on addr.
func probeHealth(addr string) string {
	resp, err := httpClient(probeTimeout).Get(probeURL(addr))
	if err != nil {
		return output.Red("unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return output.Yellow(resp.Status)
	}
	return output.Green("ok")
}
