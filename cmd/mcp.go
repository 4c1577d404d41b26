package cmd

import (
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joescharf/fixxy/internal/api"
	"github.com/joescharf/fixxy/internal/daemon"
	"github.com/joescharf/fixxy/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Tutor tools forward to the inference service at service.endpoint, the same
one the chat uses. Configure your MCP client with:

  {
    "mcpServers": {
      "fixxy": { "command": "fixxy", "args": ["mcp"] }
    }
  }

Available tools: dsa_explain, dsa_solve, dsa_debug, dsa_testcases,
dsa_list_sets, dsa_list_questions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol, so logs go to stderr unless log.file is set.
	log, closer, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), daemon.ShutdownSignals()...)
	defer stop()

	src, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	if dataStore != nil {
		defer dataStore.Close()
	}

	client := api.NewClient(cfg.Service.Endpoint,
		api.WithHTTPClient(httpClient(cfg.Service.Timeout)),
		api.WithClientLogger(log),
	)
	srv := mcp.NewServer(client, src, buildVersion, log)
	log.Info().Str("endpoint", cfg.Service.Endpoint).Msg("mcp server listening on stdio")
	return srv.ServeStdio(ctx)
}
