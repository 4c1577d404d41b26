package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskMode(t *testing.T) {
	for _, m := range TaskModes() {
		got, err := ParseTaskMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseTaskMode(" testcases ")
	require.NoError(t, err)
	assert.Equal(t, TaskTestCases, got)

	_, err = ParseTaskMode("Solve")
	assert.Error(t, err)
}

func TestTaskModeNext(t *testing.T) {
	assert.Equal(t, TaskDebug, TaskExplain.Next())
	assert.Equal(t, TaskTestCases, TaskDebug.Next())
	assert.Equal(t, TaskExplain, TaskTestCases.Next())
	assert.Equal(t, TaskExplain, TaskMode(42).Next())
}

func TestTaskModeInvalidString(t *testing.T) {
	assert.False(t, TaskMode(-1).Valid())
	assert.Equal(t, "TaskMode(7)", TaskMode(7).String())
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"C++":        LangCPP,
		"cpp":        LangCPP,
		"python":     LangPython,
		"Java":       LangJava,
		"javascript": LangJavaScript,
		"JS":         LangJavaScript,
	}
	for in, want := range tests {
		got, err := ParseLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLanguage("Rust")
	assert.Error(t, err)
}

func TestLanguageNext(t *testing.T) {
	assert.Equal(t, LangJavaScript, LangJava.Next())
	assert.Equal(t, LangCPP, LangJavaScript.Next())
}

func TestActiveInput(t *testing.T) {
	s := Session{Question: "Two Sum", Code: "int main() {}"}
	assert.Equal(t, "Two Sum", s.ActiveInput(TaskExplain))
	assert.Equal(t, "Two Sum", s.ActiveInput(TaskTestCases))
	assert.Equal(t, "int main() {}", s.ActiveInput(TaskDebug))
}

func TestNewMessageID(t *testing.T) {
	a := NewMessageID()
	b := NewMessageID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
