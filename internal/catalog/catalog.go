// Package catalog supplies the practice question sets.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/joescharf/fixxy/internal/models"
)

// ErrSetNotFound is returned for an unknown problem set ID.
var ErrSetNotFound = errors.New("problem set not found")

// Source lists problem sets and their questions.
type Source interface {
	ListSets(ctx context.Context) ([]*models.ProblemSet, error)
	ListQuestions(ctx context.Context, setID string) ([]string, error)
}

// Filter keeps the questions that contain term, ignoring case. An empty
// term keeps everything. Order is preserved.
func Filter(questions []string, term string) []string {
	term = strings.ToLower(term)
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if strings.Contains(strings.ToLower(q), term) {
			out = append(out, q)
		}
	}
	return out
}

// Set is one built-in problem set with its questions.
type Set struct {
	models.ProblemSet
	Questions []string
}

// DefaultSets are the sets shipped with fixxy.
var DefaultSets = []Set{
	{
		ProblemSet: models.ProblemSet{ID: "ravi251", Name: "Ravi 251", Position: 0},
		Questions:  []string{"Two Sum", "Reverse Linked List", "Binary Search"},
	},
	{
		ProblemSet: models.ProblemSet{ID: "ravi400", Name: "Ravi 400", Position: 1},
		Questions:  []string{"Longest Palindromic Substring", "Merge Intervals"},
	},
	{
		ProblemSet: models.ProblemSet{ID: "ravi111", Name: "Ravi 111", Position: 2},
		Questions:  []string{"N-Queens Problem", "Maximum Subarray"},
	},
}

// DefaultSetID is selected when nothing else is configured.
const DefaultSetID = "ravi251"

// Memory is an in-memory Source.
type Memory struct {
	sets []Set
}

// NewMemory returns a Source over the given sets.
func NewMemory(sets []Set) *Memory {
	return &Memory{sets: sets}
}

// Builtin returns a Source over DefaultSets.
func Builtin() *Memory {
	return NewMemory(DefaultSets)
}

func (m *Memory) ListSets(_ context.Context) ([]*models.ProblemSet, error) {
	out := make([]*models.ProblemSet, len(m.sets))
	for i := range m.sets {
		ps := m.sets[i].ProblemSet
		out[i] = &ps
	}
	return out, nil
}

func (m *Memory) ListQuestions(_ context.Context, setID string) ([]string, error) {
	for _, s := range m.sets {
		if s.ID == setID {
			return slices.Clone(s.Questions), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSetNotFound, setID)
}

// ResolveSet finds a set by ID or by case-insensitive name.
func ResolveSet(ctx context.Context, src Source, ref string) (*models.ProblemSet, error) {
	sets, err := src.ListSets(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		if s.ID == ref || strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSetNotFound, ref)
}
