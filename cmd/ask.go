package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/joescharf/fixxy/internal/api"
	"github.com/joescharf/fixxy/internal/config"
	"github.com/joescharf/fixxy/internal/models"
	"github.com/joescharf/fixxy/internal/output"
	"github.com/joescharf/fixxy/internal/reveal"
	"github.com/joescharf/fixxy/internal/session"
)

var (
	askTask     string
	askLanguage string
	askCode     string
	askPlain    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the reply",
	Long: `Send a single request to the inference service and print the exchange.

Explain and TestCases send the question. Debug sends the code, read from
--code (use --code - for stdin).

  fixxy ask "Two Sum"
  fixxy ask --task TestCases --language Java "Merge Intervals"
  fixxy ask --task Debug --code solution.py "Two Sum"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return askRun(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().StringVarP(&askTask, "task", "t", "", "Task (Explain, Debug, TestCases; default chat.task)")
	askCmd.Flags().StringVarP(&askLanguage, "language", "l", "", "Target language (default chat.language)")
	askCmd.Flags().StringVarP(&askCode, "code", "c", "", "File holding the code to debug, or - for stdin")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Print the reply at once instead of typing it out")
	rootCmd.AddCommand(askCmd)
}

func askRun(ctx context.Context, question string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mode, lang, err := askSelection(cfg)
	if err != nil {
		return err
	}

	log, closer, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer closer.Close()

	code, err := readCode(askCode, os.Stdin)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Service.Endpoint,
		api.WithHTTPClient(httpClient(0)),
		api.WithClientLogger(log),
	)
	ctrl := session.NewController(client,
		session.WithLogger(log),
		session.WithTimeout(cfg.Service.Timeout),
		session.WithTask(mode),
		session.WithLanguage(lang),
	)
	ctrl.SetQuestion(question)
	ctrl.SetCode(code)

	if dryRun {
		ui.DryRunMsg("Would ask %s (%s, %s): %q", cfg.Service.Endpoint, mode, lang, ctrl.View().Session.ActiveInput(mode))
		return nil
	}

	start := time.Now()
	p, err := ctrl.Submit(ctx)
	if err != nil {
		if errors.Is(err, session.ErrValidation) {
			ui.Warning("%s", err.Error())
			return nil
		}
		return err
	}

	ui.VerboseLog("%s request sent to %s", mode, cfg.Service.Endpoint)

	if askPlain || !isatty.IsTerminal(os.Stdout.Fd()) {
		bot, err := p.Wait(ctx)
		if err != nil {
			return err
		}
		ui.VerboseLog("request %s after %s", output.StateColor(ctrl.StateOf(mode)), time.Since(start).Truncate(time.Millisecond))
		ui.Transcript(ctrl.View().Session.Transcript)
		return askOutcome(bot, cfg)
	}

	ui.Message(userMessage(ctrl, p.UserMessageID()))
	fmt.Fprintln(ui.Out)

	bot, err := p.Wait(ctx)
	if err != nil {
		return err
	}
	ui.VerboseLog("request %s after %s", output.StateColor(ctrl.StateOf(mode)), time.Since(start).Truncate(time.Millisecond))
	ui.StreamMessage(bot, reveal.Reveal(ctx, bot.Text, cfg.Chat.Tick))
	return askOutcome(bot, cfg)
}

// askOutcome turns a failed reply into a command error.
func askOutcome(bot models.Message, cfg *config.Config) error {
	if bot.Failed {
		return fmt.Errorf("no answer from %s", cfg.Service.Endpoint)
	}
	return nil
}

// askSelection resolves the task and language flags against the configured defaults.
func askSelection(cfg *config.Config) (models.TaskMode, models.Language, error) {
	mode := cfg.TaskMode()
	if askTask != "" {
		m, err := models.ParseTaskMode(askTask)
		if err != nil {
			return 0, 0, err
		}
		mode = m
	}
	lang := cfg.Language()
	if askLanguage != "" {
		l, err := models.ParseLanguage(askLanguage)
		if err != nil {
			return 0, 0, err
		}
		lang = l
	}
	return mode, lang, nil
}

// readCode loads the --code argument: empty, a path, or - for stdin.
func readCode(src string, stdin io.Reader) (string, error) {
	switch src {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read code from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("read code: %w", err)
		}
		return string(data), nil
	}
}

func userMessage(ctrl *session.Controller, id string) models.Message {
	for _, m := range ctrl.View().Session.Transcript {
		if m.ID == id {
			return m
		}
	}
	return models.Message{Origin: models.OriginUser}
}
