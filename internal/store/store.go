package store

import (
	"context"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/models"
)

// Store defines the persistence interface for the question catalog.
type Store interface {
	catalog.Source

	// Sets
	GetSet(ctx context.Context, id string) (*models.ProblemSet, error)
	CreateSet(ctx context.Context, set *models.ProblemSet) error
	DeleteSet(ctx context.Context, id string) error

	// Questions
	AddQuestion(ctx context.Context, setID, title string) error
	RemoveQuestion(ctx context.Context, setID, title string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
