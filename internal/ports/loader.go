package ports

import (
	"context"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// Loader reads the infrastructure dataset into an immutable table.
type Loader interface {
	Load(ctx context.Context) (*domain.Table, error)
	Name() string
}

// EvaluationLoader reads the optional model evaluation dataset.
type EvaluationLoader interface {
	LoadEvaluation(ctx context.Context) (*domain.EvaluationTable, error)
	Name() string
}
