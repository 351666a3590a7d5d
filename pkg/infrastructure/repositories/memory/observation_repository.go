package memory

import (
	"fmt"

	"github.com/vsinha/invplan/pkg/domain/entities"
	"github.com/vsinha/invplan/pkg/domain/repositories"
)

// ObservationRepository provides in-memory observation storage, keyed by
// product in load order.
type ObservationRepository struct {
	observations map[entities.ProductID][]entities.Observation
	productOrder []entities.ProductID
}

// NewObservationRepository creates a new in-memory observation repository
func NewObservationRepository() *ObservationRepository {
	return &ObservationRepository{
		observations: make(map[entities.ProductID][]entities.Observation),
	}
}

// Verify interface compliance
var _ repositories.ObservationRepository = (*ObservationRepository)(nil)

// LoadObservations loads observations into the repository
func (r *ObservationRepository) LoadObservations(observations []*entities.Observation) error {
	for i, obs := range observations {
		if obs == nil {
			return fmt.Errorf("%w: observation %d is nil", entities.ErrDataLoad, i+1)
		}
		if _, exists := r.observations[obs.ProductID]; !exists {
			r.productOrder = append(r.productOrder, obs.ProductID)
		}
		r.observations[obs.ProductID] = append(r.observations[obs.ProductID], *obs)
	}
	return nil
}

// GetSeries returns the validated daily series of a product
func (r *ObservationRepository) GetSeries(productID entities.ProductID) (*entities.DemandSeries, error) {
	observations, exists := r.observations[productID]
	if !exists {
		return nil, fmt.Errorf("%w: no observations for product %s", entities.ErrDataLoad, productID)
	}

	series, err := entities.NewDemandSeries(observations)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	return series, nil
}

// GetProductIDs returns the loaded product ids in first-seen order
func (r *ObservationRepository) GetProductIDs() []entities.ProductID {
	out := make([]entities.ProductID, len(r.productOrder))
	copy(out, r.productOrder)
	return out
}
