package models

import (
	"fmt"
	"strings"
)

// TaskMode selects both the expected input shape and the isolated conversation lane.
type TaskMode int

const (
	TaskExplain TaskMode = iota
	TaskDebug
	TaskTestCases

	taskModeCount
)

// TaskModeCount is the number of task modes. Per-mode state is sized by it.
const TaskModeCount = int(taskModeCount)

var taskModeNames = [taskModeCount]string{
	TaskExplain:   "Explain",
	TaskDebug:     "Debug",
	TaskTestCases: "TestCases",
}

// TaskModes returns every task mode in display order.
func TaskModes() []TaskMode {
	return []TaskMode{TaskExplain, TaskDebug, TaskTestCases}
}

// Valid reports whether m is one of the known task modes.
func (m TaskMode) Valid() bool {
	return m >= 0 && m < taskModeCount
}

// String returns the wire name of the task mode.
func (m TaskMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("TaskMode(%d)", int(m))
	}
	return taskModeNames[m]
}

// Next cycles to the following task mode.
func (m TaskMode) Next() TaskMode {
	if !m.Valid() {
		return TaskExplain
	}
	return (m + 1) % taskModeCount
}

// UsesCode reports whether the mode's active input is the code field.
func (m TaskMode) UsesCode() bool {
	return m == TaskDebug
}

// ParseTaskMode parses a task name case-insensitively.
func ParseTaskMode(s string) (TaskMode, error) {
	for i, name := range taskModeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return TaskMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown task %q (want Explain, Debug or TestCases)", s)
}

// Language is the target programming language. It is global, not per task.
type Language int

const (
	LangCPP Language = iota
	LangPython
	LangJava
	LangJavaScript

	languageCount
)

// DefaultLanguage is used when nothing else is configured.
const DefaultLanguage = LangPython

var languageNames = [languageCount]string{
	LangCPP:        "C++",
	LangPython:     "Python",
	LangJava:       "Java",
	LangJavaScript: "JavaScript",
}

var languageAliases = map[string]Language{
	"cpp": LangCPP,
	"js":  LangJavaScript,
	"py":  LangPython,
}

// Languages returns every supported language in display order.
func Languages() []Language {
	return []Language{LangCPP, LangPython, LangJava, LangJavaScript}
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l >= 0 && l < languageCount
}

func (l Language) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Language(%d)", int(l))
	}
	return languageNames[l]
}

// Next cycles to the following language.
func (l Language) Next() Language {
	if !l.Valid() {
		return DefaultLanguage
	}
	return (l + 1) % languageCount
}

// ParseLanguage parses a language name or alias case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for i, name := range languageNames {
		if strings.EqualFold(s, name) {
			return Language(i), nil
		}
	}
	if l, ok := languageAliases[strings.ToLower(s)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown language %q (want C++, Python, Java or JavaScript)", s)
}
