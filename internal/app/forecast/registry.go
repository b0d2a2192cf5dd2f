package forecast

import (
	"fmt"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// Build resolves strategy names into forecasters, preserving order.
func Build(names []string, forest ForestConfig) ([]ports.Forecaster, error) {
	out := make([]ports.Forecaster, 0, len(names))
	for _, name := range names {
		switch name {
		case LinearTrendName:
			out = append(out, NewLinearTrend())
		case ForestName:
			out = append(out, NewForest(forest))
		default:
			return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownStrategy)
		}
	}
	return out, nil
}

// Known reports whether name is a registered strategy.
func Known(name string) bool {
	return name == LinearTrendName || name == ForestName
}
