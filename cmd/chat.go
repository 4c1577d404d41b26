package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/fixxy/internal/api"
	"github.com/joescharf/fixxy/internal/config"
	"github.com/joescharf/fixxy/internal/session"
	"github.com/joescharf/fixxy/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive practice chat",
	Long: `Open the full-screen practice chat.

Type a question or pick one from the sidebar, then press ctrl+s to send.
Each task (Explain, Debug, TestCases) keeps its own conversation; switch
with ctrl+t. Press f1 for help.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatRun(cmd.Context(), cmd)
	},
}

func init() {
	chatCmd.Flags().StringP("task", "t", "", "Task to start on (Explain, Debug, TestCases)")
	chatCmd.Flags().StringP("language", "l", "", "Target language (C++, Python, Java, JavaScript)")
	chatCmd.Flags().StringP("set", "s", "", "Question set shown in the sidebar")
	chatCmd.Flags().String("theme", "", "Color theme (light, dark)")
	chatCmd.Flags().Bool("no-sidebar", false, "Hide the question sidebar")

	_ = viper.BindPFlag("chat.task", chatCmd.Flags().Lookup("task"))
	_ = viper.BindPFlag("chat.language", chatCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("chat.set", chatCmd.Flags().Lookup("set"))
	_ = viper.BindPFlag("chat.theme", chatCmd.Flags().Lookup("theme"))

	rootCmd.AddCommand(chatCmd)
}

// chatRun starts the chat. cmd supplies the chat flags; commands without
// them get the configured defaults.
func chatRun(ctx context.Context, cmd *cobra.Command) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("chat needs a terminal; use 'fixxy ask' for scripted use")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyChatFlags(cmd, cfg)

	// The screen belongs to the chat, so logs go to a file.
	log, closer, err := newLogger(cfg, filepath.Join(cfg.StateDir, "fixxy.log"))
	if err != nil {
		return err
	}
	defer closer.Close()

	src, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	if dataStore != nil {
		defer dataStore.Close()
	}

	client := api.NewClient(cfg.Service.Endpoint,
		api.WithHTTPClient(httpClient(0)),
		api.WithClientLogger(log),
	)
	ctrl := session.NewController(client,
		session.WithLogger(log),
		session.WithTimeout(cfg.Service.Timeout),
		session.WithLatePolicy(cfg.LatePolicy()),
		session.WithTask(cfg.TaskMode()),
		session.WithLanguage(cfg.Language()),
	)

	log.Info().
		Str("endpoint", cfg.Service.Endpoint).
		Str("task", cfg.TaskMode().String()).
		Str("language", cfg.Language().String()).
		Msg("chat started")

	m := tui.New(ctrl, src, tui.Options{
		Theme:   cfg.Chat.Theme,
		Sidebar: cfg.Chat.Sidebar,
		Tick:    cfg.Chat.Tick,
		Set:     cfg.Chat.Set,
		Logger:  log,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat: %w", err)
	}
	log.Info().Msg("chat closed")
	return nil
}

// applyChatFlags copies flags that have no config key onto cfg.
func applyChatFlags(cmd *cobra.Command, cfg *config.Config) {
	if hide, err := cmd.Flags().GetBool("no-sidebar"); err == nil && hide {
		cfg.Chat.Sidebar = false
	}
}
