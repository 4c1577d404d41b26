package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/fixxy/internal/config"
)

func TestChatRun_NeedsTerminal(t *testing.T) {
	testEnv(t)

	// go test never runs with a terminal on stdout.
	err := chatRun(context.Background(), chatCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a terminal")
}

func TestApplyChatFlags_NoSidebar(t *testing.T) {
	require.NoError(t, chatCmd.Flags().Set("no-sidebar", "true"))
	t.Cleanup(func() { _ = chatCmd.Flags().Set("no-sidebar", "false") })

	cfg := &config.Config{}
	cfg.Chat.Sidebar = true
	applyChatFlags(chatCmd, cfg)
	assert.False(t, cfg.Chat.Sidebar)
}

func TestApplyChatFlags_CommandWithoutFlag(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chat.Sidebar = true
	applyChatFlags(&cobra.Command{Use: "bare"}, cfg)
	assert.True(t, cfg.Chat.Sidebar)
}
