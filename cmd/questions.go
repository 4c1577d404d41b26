package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/config"
	"github.com/joescharf/fixxy/internal/models"
	"github.com/joescharf/fixxy/internal/store"
)

var errReadOnlyCatalog = errors.New("the builtin catalog is read-only; set catalog.backend to sqlite to edit it")

var (
	questionsSet    string
	questionsFilter string
)

var questionsCmd = &cobra.Command{
	Use:     "questions",
	Aliases: []string{"q"},
	Short:   "Browse and edit the question catalog",
	Long: `Browse and edit the practice question catalog.

Running bare 'fixxy questions' is the same as 'fixxy questions list'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return questionsListRun(cmd.Context())
	},
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the questions of a set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return questionsListRun(cmd.Context())
	},
}

var questionsSetsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List question sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return questionsSetsRun(cmd.Context())
	},
}

var questionsAddCmd = &cobra.Command{
	Use:   "add <set> <title>",
	Short: "Append a question to a set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return questionsAddRun(cmd.Context(), args[0], args[1])
	},
}

var questionsRemoveCmd = &cobra.Command{
	Use:   "remove <set> <title>",
	Short: "Remove a question from a set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return questionsRemoveRun(cmd.Context(), args[0], args[1])
	},
}

var questionsNewSetCmd = &cobra.Command{
	Use:   "new-set <name>",
	Short: "Create an empty question set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return questionsNewSetRun(cmd.Context(), args[0])
	},
}

func init() {
	questionsCmd.PersistentFlags().StringVarP(&questionsSet, "set", "s", "", "Question set id or name (default chat.set)")
	questionsCmd.PersistentFlags().StringVarP(&questionsFilter, "filter", "f", "", "Only list titles containing this text")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsSetsCmd)
	questionsCmd.AddCommand(questionsAddCmd)
	questionsCmd.AddCommand(questionsRemoveCmd)
	questionsCmd.AddCommand(questionsNewSetCmd)
	rootCmd.AddCommand(questionsCmd)
}

func questionsListRun(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}

	ref := questionsSet
	if ref == "" {
		ref = cfg.Chat.Set
	}
	set, err := catalog.ResolveSet(ctx, src, ref)
	if err != nil {
		return err
	}
	questions, err := src.ListQuestions(ctx, set.ID)
	if err != nil {
		return err
	}
	matches := catalog.Filter(questions, questionsFilter)

	if len(matches) == 0 {
		ui.Info("No questions in %s match %q", set.Name, questionsFilter)
		return nil
	}

	ui.Info("%s (%d of %d)", set.Name, len(matches), len(questions))
	table := ui.Table([]string{"#", "QUESTION"})
	for i, q := range matches {
		_ = table.Append([]string{strconv.Itoa(i + 1), q})
	}
	return table.Render()
}

func questionsSetsRun(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	sets, err := src.ListSets(ctx)
	if err != nil {
		return err
	}

	table := ui.Table([]string{"ID", "NAME", "QUESTIONS"})
	for _, s := range sets {
		count := "?"
		if qs, err := src.ListQuestions(ctx, s.ID); err == nil {
			count = strconv.Itoa(len(qs))
		}
		_ = table.Append([]string{s.ID, s.Name, count})
	}
	return table.Render()
}

// editableStore opens the sqlite catalog, refusing the read-only builtin one.
func editableStore(ctx context.Context) (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Backend != config.CatalogSQLite {
		return nil, errReadOnlyCatalog
	}
	return getStore(ctx, cfg.DBPath)
}

func questionsAddRun(ctx context.Context, setRef, title string) error {
	s, err := editableStore(ctx)
	if err != nil {
		return err
	}
	set, err := catalog.ResolveSet(ctx, s, setRef)
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would add %q to %s", title, set.Name)
		return nil
	}
	if err := s.AddQuestion(ctx, set.ID, title); err != nil {
		return err
	}
	ui.Success("Added %q to %s", title, set.Name)
	return nil
}

func questionsRemoveRun(ctx context.Context, setRef, title string) error {
	s, err := editableStore(ctx)
	if err != nil {
		return err
	}
	set, err := catalog.ResolveSet(ctx, s, setRef)
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would remove %q from %s", title, set.Name)
		return nil
	}
	if err := s.RemoveQuestion(ctx, set.ID, title); err != nil {
		return err
	}
	ui.Success("Removed %q from %s", title, set.Name)
	return nil
}

func questionsNewSetRun(ctx context.Context, name string) error {
	s, err := editableStore(ctx)
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would create set %q", name)
		return nil
	}
	set := &models.ProblemSet{Name: name}
	if err := s.CreateSet(ctx, set); err != nil {
		return fmt.Errorf("create set: %w", err)
	}
	ui.Success("Created set %s (%s)", set.Name, set.ID)
	return nil
}
