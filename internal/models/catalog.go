package models

// ProblemSet is a named, ordered list of practice questions.
type ProblemSet struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}
