package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/config"
	"github.com/joescharf/fixxy/internal/store"
)

func questionsEnv(t *testing.T, backend string) *bytes.Buffer {
	t.Helper()
	testEnv(t)
	viper.Set("catalog.backend", backend)
	questionsSet, questionsFilter = "", ""
	t.Cleanup(func() { questionsSet, questionsFilter = "", "" })

	var buf bytes.Buffer
	ui.Out = &buf
	return &buf
}

func TestQuestionsList_DefaultSet(t *testing.T) {
	out := questionsEnv(t, config.CatalogBuiltin)

	require.NoError(t, questionsListRun(context.Background()))
	assert.Contains(t, out.String(), "Ravi 251")
	assert.Contains(t, out.String(), "Two Sum")
	assert.NotContains(t, out.String(), "Merge Intervals")
}

func TestQuestionsList_FilterAndSetByName(t *testing.T) {
	out := questionsEnv(t, config.CatalogBuiltin)
	questionsSet = "ravi 400"
	questionsFilter = "merge"

	require.NoError(t, questionsListRun(context.Background()))
	assert.Contains(t, out.String(), "Merge Intervals")
	assert.NotContains(t, out.String(), "Longest Palindromic Substring")
}

func TestQuestionsList_UnknownSet(t *testing.T) {
	questionsEnv(t, config.CatalogBuiltin)
	questionsSet = "nope"

	err := questionsListRun(context.Background())
	assert.ErrorIs(t, err, catalog.ErrSetNotFound)
}

func TestQuestionsSets(t *testing.T) {
	out := questionsEnv(t, config.CatalogBuiltin)

	require.NoError(t, questionsSetsRun(context.Background()))
	for _, s := range catalog.DefaultSets {
		assert.Contains(t, out.String(), s.Name)
	}
}

func TestQuestionsAdd_BuiltinIsReadOnly(t *testing.T) {
	questionsEnv(t, config.CatalogBuiltin)

	err := questionsAddRun(context.Background(), "ravi251", "Valid Parentheses")
	assert.ErrorIs(t, err, errReadOnlyCatalog)
}

func TestQuestionsAddRemove_SQLite(t *testing.T) {
	out := questionsEnv(t, config.CatalogSQLite)
	ctx := context.Background()

	require.NoError(t, questionsAddRun(ctx, "Ravi 251", "Valid Parentheses"))

	questions, err := dataStore.ListQuestions(ctx, "ravi251")
	require.NoError(t, err)
	assert.Equal(t, "Valid Parentheses", questions[len(questions)-1])

	err = questionsAddRun(ctx, "ravi251", "Valid Parentheses")
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, questionsRemoveRun(ctx, "ravi251", "Valid Parentheses"))
	questions, err = dataStore.ListQuestions(ctx, "ravi251")
	require.NoError(t, err)
	assert.NotContains(t, questions, "Valid Parentheses")
	assert.Contains(t, out.String(), "Removed")
}

func TestQuestionsNewSet_SQLite(t *testing.T) {
	questionsEnv(t, config.CatalogSQLite)
	ctx := context.Background()

	require.NoError(t, questionsNewSetRun(ctx, "Blind 75"))
	require.NoError(t, questionsAddRun(ctx, "blind 75", "Climbing Stairs"))

	set, err := catalog.ResolveSet(ctx, dataStore, "Blind 75")
	require.NoError(t, err)
	questions, err := dataStore.ListQuestions(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Climbing Stairs"}, questions)
}
